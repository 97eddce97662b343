// Package scraper orchestrates the crawl across companies, years,
// continuation windows and listing pages.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/go-news-harvester/config"
	"github.com/aluiziolira/go-news-harvester/extractor"
	"github.com/aluiziolira/go-news-harvester/models"
	"github.com/aluiziolira/go-news-harvester/parser"
	"github.com/gocolly/colly/v2"
)

// Harvester walks the company × year × window × page product, scans
// listing pages and resolves every accepted entry into an Article. One
// fetch is outstanding at a time; politeness delays separate requests.
type Harvester struct {
	cfg       *config.Config
	collector *colly.Collector
	extractor *extractor.Extractor
	reporter  ProgressReporter
	Metrics   *Metrics

	requestCount int64
	pageCount    int64
	errorCount   int64

	mu           sync.Mutex
	failedURLs   []string
	errorsByType map[string]int

	// Capture slots for the current listing fetch. The collector runs
	// synchronously, so Visit fills them before returning.
	pendingBody []byte
	pendingErr  error

	handlersOnce sync.Once
}

// NewHarvester builds a harvester instance configured from cfg.
func NewHarvester(cfg *config.Config) (*Harvester, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	// The first listing page is fetched once for pagination resolution
	// and again as window 0 page 1, hence AllowURLRevisit.
	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(cfg.ListingTimeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ListingTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.PageDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	return &Harvester{
		cfg:          cfg,
		collector:    collector,
		extractor:    extractor.New(cfg),
		reporter:     NewLogReporter(),
		Metrics:      NewMetrics(),
		errorsByType: make(map[string]int),
	}, nil
}

// SetReporter replaces the default slog-backed progress reporter.
func (h *Harvester) SetReporter(r ProgressReporter) {
	if r == nil {
		r = NopReporter{}
	}
	h.reporter = r
}

// Run executes the crawl and returns the ordered harvest set. Failures
// at page or article granularity are contained and reported; the only
// error returned is context cancellation.
func (h *Harvester) Run(ctx context.Context) (*models.HarvestResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	h.configureHandlers()

	result := &models.HarvestResult{StartTime: time.Now()}

	for _, company := range h.cfg.Companies {
		harvested := 0
		for _, year := range h.cfg.Years {
			if ctx.Err() != nil {
				h.finalize(result)
				return result, ctx.Err()
			}
			target := models.CrawlTarget{Company: company, Year: year}
			h.reporter.TargetStarted(target)
			h.harvestTarget(ctx, target, &harvested, result)
			h.reporter.TargetCompleted(target, harvested)
		}
	}

	h.finalize(result)
	return result, nil
}

// harvestTarget processes one company/year query: resolve pagination
// from the first listing page, then walk windows 0..N (window-major)
// and pages 1..pageCount within each window.
func (h *Harvester) harvestTarget(ctx context.Context, target models.CrawlTarget, harvested *int, result *models.HarvestResult) {
	if h.quotaReached(*harvested) {
		slog.Info("quota already met, skipping target",
			slog.String("company", target.Company),
			slog.Int("year", target.Year),
		)
		return
	}

	state := h.resolvePagination(target)

	for window := 0; window < state.Windows; window++ {
		for page := 1; page <= state.PageCount; page++ {
			if ctx.Err() != nil {
				return
			}
			if h.quotaReached(*harvested) {
				slog.Info("quota reached",
					slog.String("company", target.Company),
					slog.Int("limit", h.cfg.MaxPerCompany),
				)
				return
			}

			body, err := h.fetchListing(h.listingURL(target, page, window))
			if err != nil {
				// Reported via the collector's error handler; the rest
				// of the page range is still attempted.
				continue
			}
			atomic.AddInt64(&h.pageCount, 1)
			h.Metrics.IncPages()

			summaries := parser.ScanListing(body)
			h.reporter.PageFetched(target, window, page, len(summaries))

			for _, summary := range summaries {
				if h.quotaReached(*harvested) {
					slog.Info("quota reached",
						slog.String("company", target.Company),
						slog.Int("limit", h.cfg.MaxPerCompany),
					)
					return
				}
				article := h.extractArticle(ctx, target, summary)
				result.Articles = append(result.Articles, article)
				*harvested++
				h.Metrics.IncArticles()
				h.reporter.ArticleExtracted(target, article)
				h.wait(ctx, h.cfg.ArticleDelay)
			}
		}
	}
}

// resolvePagination fetches the first listing page and derives the
// pagination state. It is total: fetch or parse trouble degrades to a
// single page, never to a failed target.
func (h *Harvester) resolvePagination(target models.CrawlTarget) models.PaginationState {
	state := models.PaginationState{
		PageCount: 1,
		Windows:   h.cfg.ContinuationWindows + 1,
	}

	body, err := h.fetchListing(h.listingURL(target, 1, 0))
	if err != nil {
		slog.Warn("pagination fetch failed, assuming single page",
			slog.String("company", target.Company),
			slog.Int("year", target.Year),
			slog.Any("error", err),
		)
		return state
	}

	count, ok := parser.ResolvePageCount(body)
	if !ok {
		slog.Info("no pagination found",
			slog.String("company", target.Company),
			slog.Int("year", target.Year),
		)
	}
	state.PageCount = count
	return state
}

func (h *Harvester) extractArticle(ctx context.Context, target models.CrawlTarget, summary models.ArticleSummary) *models.Article {
	h.Metrics.IncRequest("article")
	content, status := h.extractor.Extract(ctx, summary.Link)
	if status != models.ExtractionOK {
		atomic.AddInt64(&h.errorCount, 1)
		h.recordErrorType("extraction_" + string(status))
		h.Metrics.IncError(string(status))
	}
	return &models.Article{
		Company:     target.Company,
		Year:        target.Year,
		Title:       summary.Title,
		Link:        summary.Link,
		Date:        summary.Date,
		Summary:     summary.Title,
		FullArticle: content,
		Status:      status,
		HarvestedAt: time.Now(),
	}
}

// fetchListing visits url through the collector and returns the raw
// response body. The collector applies the per-domain politeness delay
// before the request goes out.
func (h *Harvester) fetchListing(listingURL string) ([]byte, error) {
	h.pendingBody = nil
	h.pendingErr = nil

	err := h.collector.Visit(listingURL)
	if h.pendingErr != nil {
		return nil, h.pendingErr
	}
	if err != nil {
		return nil, err
	}
	return h.pendingBody, nil
}

func (h *Harvester) listingURL(target models.CrawlTarget, page, window int) string {
	q := url.Values{}
	q.Set("sc_id", target.Company)
	q.Set("scat", "")
	q.Set("page_no", strconv.Itoa(page))
	q.Set("next", strconv.Itoa(window))
	q.Set("durationType", "Y")
	q.Set("Year", strconv.Itoa(target.Year))
	q.Set("duration", "1")
	q.Set("news_type", "")
	return h.cfg.BaseURL + "?" + q.Encode()
}

func (h *Harvester) quotaReached(harvested int) bool {
	return h.cfg.MaxPerCompany > 0 && harvested >= h.cfg.MaxPerCompany
}

// wait blocks for the article politeness delay, or until ctx is done.
func (h *Harvester) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (h *Harvester) configureHandlers() {
	h.handlersOnce.Do(func() {
		h.collector.OnRequest(func(r *colly.Request) {
			r.Ctx.Put("start", time.Now())
			atomic.AddInt64(&h.requestCount, 1)
			h.Metrics.IncRequest("listing")
			slog.Debug("listing request", slog.String("url", r.URL.String()))
		})

		h.collector.OnResponse(func(r *colly.Response) {
			h.pendingBody = r.Body
			if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
				h.Metrics.ObserveDuration(time.Since(start))
			}
		})

		h.collector.OnError(func(r *colly.Response, err error) {
			atomic.AddInt64(&h.errorCount, 1)
			statusCode := 0
			requestURL := ""
			if r != nil {
				statusCode = r.StatusCode
				if r.Request != nil && r.Request.URL != nil {
					requestURL = r.Request.URL.String()
				}
			}
			category := errorTypeLabel(classifyError(err, statusCode))
			h.recordErrorType(category)
			h.Metrics.IncError(category)

			h.mu.Lock()
			h.failedURLs = append(h.failedURLs, requestURL)
			h.mu.Unlock()

			h.pendingErr = err
			slog.Error("listing request error",
				slog.String("url", requestURL),
				slog.String("category", category),
				slog.Any("error", err),
			)
		})
	})
}

func (h *Harvester) recordErrorType(category string) {
	h.mu.Lock()
	h.errorsByType[category]++
	h.mu.Unlock()
}

func (h *Harvester) finalize(result *models.HarvestResult) {
	result.EndTime = time.Now()
	result.RequestCount = int(atomic.LoadInt64(&h.requestCount))
	result.PageCount = int(atomic.LoadInt64(&h.pageCount))
	result.ErrorCount = int(atomic.LoadInt64(&h.errorCount))
	result.FailedURLs = h.snapshotFailedURLs()
	result.ErrorsByType = h.snapshotErrors()
}

func (h *Harvester) snapshotFailedURLs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.failedURLs))
	copy(out, h.failedURLs)
	return out
}

func (h *Harvester) snapshotErrors() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int, len(h.errorsByType))
	for k, v := range h.errorsByType {
		out[k] = v
	}
	return out
}
