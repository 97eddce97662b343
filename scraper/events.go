package scraper

import (
	"log/slog"

	"github.com/aluiziolira/go-news-harvester/models"
)

// ProgressReporter receives crawl progress events. Implementations must
// not block; the harvester calls them inline between requests.
type ProgressReporter interface {
	TargetStarted(target models.CrawlTarget)
	PageFetched(target models.CrawlTarget, window, page, entries int)
	ArticleExtracted(target models.CrawlTarget, article *models.Article)
	TargetCompleted(target models.CrawlTarget, harvested int)
}

// NopReporter discards all progress events.
type NopReporter struct{}

func (NopReporter) TargetStarted(models.CrawlTarget)                     {}
func (NopReporter) PageFetched(models.CrawlTarget, int, int, int)        {}
func (NopReporter) ArticleExtracted(models.CrawlTarget, *models.Article) {}
func (NopReporter) TargetCompleted(models.CrawlTarget, int)              {}

// NewLogReporter returns the default reporter, which emits progress
// through slog.
func NewLogReporter() ProgressReporter {
	return logReporter{}
}

type logReporter struct{}

func (logReporter) TargetStarted(target models.CrawlTarget) {
	slog.Info("processing target",
		slog.String("company", target.Company),
		slog.Int("year", target.Year),
	)
}

func (logReporter) PageFetched(target models.CrawlTarget, window, page, entries int) {
	slog.Debug("listing page scanned",
		slog.String("company", target.Company),
		slog.Int("year", target.Year),
		slog.Int("window", window),
		slog.Int("page", page),
		slog.Int("entries", entries),
	)
}

func (logReporter) ArticleExtracted(target models.CrawlTarget, article *models.Article) {
	slog.Info("article extracted",
		slog.String("company", target.Company),
		slog.String("title", article.Title),
		slog.String("status", string(article.Status)),
	)
}

func (logReporter) TargetCompleted(target models.CrawlTarget, harvested int) {
	slog.Info("target completed",
		slog.String("company", target.Company),
		slog.Int("year", target.Year),
		slog.Int("harvested", harvested),
	)
}
