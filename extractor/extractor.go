// Package extractor resolves an article URL into normalized full text.
package extractor

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-news-harvester/config"
	"github.com/aluiziolira/go-news-harvester/models"
	"github.com/aluiziolira/go-news-harvester/parser"
)

// Sentinel content stored when extraction fails. The article record is
// still produced; failures are never propagated past the extractor.
const (
	FetchFailedContent = "Error: Could not fetch article content"
	ParseFailedContent = "Error: Could not parse article content"
)

// Minimum text length for elements accepted by the body fallback.
const fallbackMinLength = 50

// RegionMatcher locates a candidate content region in an article page.
type RegionMatcher interface {
	// Name identifies the matcher in logs.
	Name() string
	// Match returns the content region, or nil when the page does not
	// carry this layout.
	Match(doc *goquery.Document) *goquery.Selection
}

type selectorMatcher string

func (m selectorMatcher) Name() string { return string(m) }

func (m selectorMatcher) Match(doc *goquery.Document) *goquery.Selection {
	sel := doc.Find(string(m)).First()
	if sel.Length() == 0 {
		return nil
	}
	return sel
}

// DefaultMatchers returns the content-region cascade, most specific
// first. Target sites are heterogeneous; the two substring matchers at
// the end catch layouts with generated class names.
func DefaultMatchers() []RegionMatcher {
	return []RegionMatcher{
		selectorMatcher("div.article_scheme"),
		selectorMatcher("div.article"),
		selectorMatcher("div.content_text"),
		selectorMatcher("div.article-content"),
		selectorMatcher("div.story-content"),
		selectorMatcher("div.article-body"),
		selectorMatcher("div.content"),
		selectorMatcher("article"),
		selectorMatcher("div[class*='article']"),
		selectorMatcher("div[class*='content']"),
	}
}

// Extractor fetches article pages and extracts their text content.
type Extractor struct {
	client    *http.Client
	userAgent string
	matchers  []RegionMatcher
}

// New builds an extractor configured from cfg.
func New(cfg *config.Config) *Extractor {
	return &Extractor{
		client:    &http.Client{Timeout: cfg.ExtractTimeout},
		userAgent: cfg.UserAgent,
		matchers:  DefaultMatchers(),
	}
}

// WithTransport replaces the underlying HTTP transport.
func (e *Extractor) WithTransport(rt http.RoundTripper) {
	e.client.Transport = rt
}

// Extract fetches articleURL and returns its normalized full text. On
// failure it returns sentinel content and the matching status; it never
// returns an error.
func (e *Extractor) Extract(ctx context.Context, articleURL string) (string, models.ExtractionStatus) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		slog.Error("article request failed", slog.String("url", articleURL), slog.Any("error", err))
		return FetchFailedContent, models.ExtractionFetchFailed
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		slog.Error("article fetch failed", slog.String("url", articleURL), slog.Any("error", err))
		return FetchFailedContent, models.ExtractionFetchFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		slog.Error("article fetch failed",
			slog.String("url", articleURL),
			slog.Int("status", resp.StatusCode),
		)
		return FetchFailedContent, models.ExtractionFetchFailed
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.Error("article parse failed", slog.String("url", articleURL), slog.Any("error", err))
		return ParseFailedContent, models.ExtractionParseFailed
	}

	content := e.extractRegion(doc, articleURL)
	if content == "" {
		content = extractFromBody(doc)
	}
	if content != "" {
		content = parser.TruncateContent(parser.NormalizeContent(content))
	}
	return content, models.ExtractionOK
}

// extractRegion walks the matcher cascade and returns text from the
// first region that yields heading or paragraph content.
func (e *Extractor) extractRegion(doc *goquery.Document, articleURL string) string {
	for _, matcher := range e.matchers {
		region := matcher.Match(doc)
		if region == nil {
			continue
		}
		region.Find("script, style, nav, header, footer, aside").Remove()
		parts := collectText(region, "p, h1, h2, h3, h4, h5, h6", 0)
		if len(parts) == 0 {
			continue
		}
		slog.Debug("content region matched",
			slog.String("url", articleURL),
			slog.String("matcher", matcher.Name()),
		)
		return strings.Join(parts, "\n\n")
	}
	return ""
}

// extractFromBody is the last resort for pages exposing none of the
// known content containers: any sufficiently long text block counts.
func extractFromBody(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	body.Find("script, style, nav, header, footer, aside, form, button").Remove()
	parts := collectText(body, "p, h1, h2, h3, h4, h5, h6, div", fallbackMinLength)
	return strings.Join(parts, "\n\n")
}

func collectText(region *goquery.Selection, selector string, minLength int) []string {
	var parts []string
	region.Find(selector).Each(func(_ int, el *goquery.Selection) {
		text := parser.CollapseWhitespace(el.Text())
		if text == "" || utf8.RuneCountInString(text) <= minLength {
			return
		}
		parts = append(parts, text)
	})
	return parts
}
