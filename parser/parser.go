// Package parser extracts structure from listing-page markup and
// normalizes harvested article text. All functions are pure: re-running
// them over the same input yields the same output.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-news-harvester/models"
)

// Markup contract of the listing source.
const (
	paginationRegionSelector = "div.pages.MR10.MT15"
	entryBlockSelector       = "div.FL.PR20"
	headlineAnchorSelector   = "a.arial11_summ"
	entryDateSelector        = "span.g_date"
)

// NoDate is stored when a listing entry carries no date marker.
const NoDate = "no date"

const (
	// MaxContentLength caps the normalized full text of one article.
	MaxContentLength = 15000
	// TruncationMarker is appended when content is cut at MaxContentLength.
	TruncationMarker = "... [Content truncated]"
)

var (
	reInlineSpace = regexp.MustCompile(`[^\S\n]+`)
	reNewlineEdge = regexp.MustCompile(` *\n *`)
	reBlankRuns   = regexp.MustCompile(`\n{2,}`)
	reWhitespace  = regexp.MustCompile(`\s+`)
)

// ResolvePageCount reads the maximum page number from the pagination
// region of a first listing page. The second return value reports
// whether pagination was actually resolved; the count defaults to 1
// whenever the region is absent, empty, or non-numeric. Resolution is
// total: malformed input never yields an error.
func ResolvePageCount(body []byte) (int, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 1, false
	}

	region := doc.Find(paginationRegionSelector).First()
	if region.Length() == 0 {
		return 1, false
	}

	var labels []string
	region.Find("a").Each(func(_ int, anchor *goquery.Selection) {
		labels = append(labels, strings.TrimSpace(anchor.Text()))
	})
	if len(labels) == 0 {
		return 1, false
	}

	if n, err := strconv.Atoi(labels[len(labels)-1]); err == nil && n > 0 {
		return n, true
	}

	// Last label is a control like "Next"; take the highest numeric one.
	max := 0
	for _, label := range labels {
		if n, err := strconv.Atoi(label); err == nil && n > max {
			max = n
		}
	}
	if max == 0 {
		return 1, false
	}
	return max, true
}

// ScanListing extracts article summaries from one listing page, in
// document order. Blocks without a headline anchor and entries whose
// link is not an absolute http(s) URL are skipped.
func ScanListing(body []byte) []models.ArticleSummary {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var summaries []models.ArticleSummary
	doc.Find(entryBlockSelector).Each(func(_ int, block *goquery.Selection) {
		anchor := block.Find(headlineAnchorSelector).First()
		if anchor.Length() == 0 {
			return
		}

		title := strings.TrimSpace(anchor.AttrOr("title", ""))
		if title == "" {
			title = CollapseWhitespace(anchor.Text())
		}

		link := strings.TrimSpace(anchor.AttrOr("href", ""))
		if !strings.HasPrefix(link, "http") {
			return
		}

		date := strings.TrimSpace(block.Find(entryDateSelector).First().Text())
		if date == "" {
			date = NoDate
		}

		summaries = append(summaries, models.ArticleSummary{
			Title: title,
			Link:  link,
			Date:  date,
		})
	})
	return summaries
}

// CollapseWhitespace reduces every whitespace run, newlines included,
// to a single space and trims the result.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// NormalizeContent collapses inline whitespace runs to single spaces
// and blank-line runs to exactly one blank line, then trims. It is
// idempotent: normalizing already-normalized text is a no-op.
func NormalizeContent(s string) string {
	s = reInlineSpace.ReplaceAllString(s, " ")
	s = reNewlineEdge.ReplaceAllString(s, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// TruncateContent cuts normalized text to MaxContentLength characters
// and appends TruncationMarker. Counted in runes so multi-byte content
// is never split mid-character.
func TruncateContent(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxContentLength {
		return s
	}
	return string(runes[:MaxContentLength]) + TruncationMarker
}

// ValidateArticle ensures the harvester captured the required fields.
func ValidateArticle(a *models.Article) error {
	if a == nil {
		return fmt.Errorf("article is nil")
	}
	if strings.TrimSpace(a.Company) == "" {
		return fmt.Errorf("article missing company")
	}
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("article missing title")
	}
	if strings.TrimSpace(a.Link) == "" {
		return fmt.Errorf("article missing link for %s", a.Title)
	}
	return nil
}
