// Package models defines data structures for the harvester.
package models

import "time"

// ExtractionStatus records how content extraction for an article ended.
type ExtractionStatus string

const (
	ExtractionOK          ExtractionStatus = "ok"
	ExtractionFetchFailed ExtractionStatus = "fetch_failed"
	ExtractionParseFailed ExtractionStatus = "parse_failed"
)

// CrawlTarget identifies one company/year listing query.
type CrawlTarget struct {
	Company string
	Year    int
}

// PaginationState is derived once per target from the first listing page.
// Windows is the number of continuation windows to walk (indices
// 0..Windows-1); PageCount is the number of listing pages per window.
type PaginationState struct {
	PageCount int
	Windows   int
}

// ArticleSummary is one listing-page entry that passed link validation.
type ArticleSummary struct {
	Title string
	Link  string
	Date  string
}

// Article is a fully resolved harvest record.
type Article struct {
	Company     string           `csv:"company" json:"company"`
	Year        int              `csv:"year" json:"year"`
	Title       string           `csv:"title" json:"title"`
	Link        string           `csv:"link" json:"link"`
	Date        string           `csv:"date" json:"date"`
	Summary     string           `csv:"summary" json:"summary"`
	FullArticle string           `csv:"full_article" json:"full_article"`
	Status      ExtractionStatus `json:"status"`
	HarvestedAt time.Time        `json:"harvested_at"`
}

// HarvestResult holds the ordered harvest set and run counters.
type HarvestResult struct {
	Articles     []*Article
	StartTime    time.Time
	EndTime      time.Time
	RequestCount int
	PageCount    int
	ErrorCount   int
	FailedURLs   []string
	ErrorsByType map[string]int
}
