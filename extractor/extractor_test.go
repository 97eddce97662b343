package extractor

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/aluiziolira/go-news-harvester/config"
	"github.com/aluiziolira/go-news-harvester/models"
	"github.com/aluiziolira/go-news-harvester/parser"
	"github.com/jarcoal/httpmock"
)

func newTestExtractor() (*Extractor, *httpmock.MockTransport) {
	cfg := config.DefaultConfig()
	e := New(cfg)
	transport := httpmock.NewMockTransport()
	e.WithTransport(transport)
	return e, transport
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func TestExtractPrimarySelector(t *testing.T) {
	e, transport := newTestExtractor()
	page := `<html><body>
		<div class="article_scheme">
			<p>First paragraph.</p>
			<p>Second paragraph.</p>
			<p>Third paragraph.</p>
		</div>
	</body></html>`
	transport.RegisterResponder("GET", "http://news.test/a1", htmlResponder(page))

	content, status := e.Extract(context.Background(), "http://news.test/a1")
	if status != models.ExtractionOK {
		t.Fatalf("status=%s, want ok", status)
	}
	want := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."
	if content != want {
		t.Fatalf("content=%q, want %q", content, want)
	}
}

func TestExtractCascadeOrder(t *testing.T) {
	e, transport := newTestExtractor()
	page := `<html><body>
		<div class="content"><p>Generic container text.</p></div>
		<div class="article_scheme"><p>Primary container text.</p></div>
	</body></html>`
	transport.RegisterResponder("GET", "http://news.test/a2", htmlResponder(page))

	content, _ := e.Extract(context.Background(), "http://news.test/a2")
	if content != "Primary container text." {
		t.Fatalf("content=%q, want primary container to win", content)
	}
}

func TestExtractSkipsEmptyRegion(t *testing.T) {
	e, transport := newTestExtractor()
	// article_scheme matches but has no heading/paragraph children, so
	// the cascade moves on to div.content.
	page := `<html><body>
		<div class="article_scheme"><span>metadata only</span></div>
		<div class="content"><p>Actual article body.</p></div>
	</body></html>`
	transport.RegisterResponder("GET", "http://news.test/a3", htmlResponder(page))

	content, _ := e.Extract(context.Background(), "http://news.test/a3")
	if content != "Actual article body." {
		t.Fatalf("content=%q, want fallthrough to next matcher", content)
	}
}

func TestExtractStripsChrome(t *testing.T) {
	e, transport := newTestExtractor()
	page := `<html><body>
		<div class="article_scheme">
			<script>var tracker = 1;</script>
			<nav><p>navigation text that is quite long indeed</p></nav>
			<h1>Headline</h1>
			<p>Body text.</p>
		</div>
	</body></html>`
	transport.RegisterResponder("GET", "http://news.test/a4", htmlResponder(page))

	content, _ := e.Extract(context.Background(), "http://news.test/a4")
	want := "Headline\n\nBody text."
	if content != want {
		t.Fatalf("content=%q, want %q", content, want)
	}
}

func TestExtractBodyFallback(t *testing.T) {
	e, transport := newTestExtractor()
	long := strings.Repeat("long enough paragraph text ", 4)
	page := `<html><body>
		<main>
			<p>short</p>
			<p>` + long + `</p>
		</main>
	</body></html>`
	transport.RegisterResponder("GET", "http://news.test/a5", htmlResponder(page))

	content, status := e.Extract(context.Background(), "http://news.test/a5")
	if status != models.ExtractionOK {
		t.Fatalf("status=%s, want ok", status)
	}
	if strings.Contains(content, "short") {
		t.Fatalf("fallback kept a sub-50-char element: %q", content)
	}
	if !strings.Contains(content, "long enough paragraph text") {
		t.Fatalf("fallback missed the long paragraph: %q", content)
	}
}

func TestExtractTruncatesLongContent(t *testing.T) {
	e, transport := newTestExtractor()
	page := `<html><body><div class="article_scheme"><p>` +
		strings.Repeat("a", 20000) + `</p></div></body></html>`
	transport.RegisterResponder("GET", "http://news.test/a6", htmlResponder(page))

	content, _ := e.Extract(context.Background(), "http://news.test/a6")
	if !strings.HasSuffix(content, parser.TruncationMarker) {
		t.Fatalf("missing truncation marker")
	}
	body := strings.TrimSuffix(content, parser.TruncationMarker)
	if len([]rune(body)) != parser.MaxContentLength {
		t.Fatalf("truncated length=%d, want %d", len([]rune(body)), parser.MaxContentLength)
	}
}

func TestExtractFetchFailure(t *testing.T) {
	e, transport := newTestExtractor()
	transport.RegisterResponder("GET", "http://news.test/down",
		httpmock.NewErrorResponder(http.ErrHandlerTimeout))

	content, status := e.Extract(context.Background(), "http://news.test/down")
	if status != models.ExtractionFetchFailed {
		t.Fatalf("status=%s, want fetch_failed", status)
	}
	if content != FetchFailedContent {
		t.Fatalf("content=%q, want fetch sentinel", content)
	}
}

func TestExtractHTTPErrorStatus(t *testing.T) {
	e, transport := newTestExtractor()
	transport.RegisterResponder("GET", "http://news.test/missing",
		httpmock.NewStringResponder(404, "not found"))

	content, status := e.Extract(context.Background(), "http://news.test/missing")
	if status != models.ExtractionFetchFailed {
		t.Fatalf("status=%s, want fetch_failed", status)
	}
	if content != FetchFailedContent {
		t.Fatalf("content=%q, want fetch sentinel", content)
	}
}

func TestExtractNoContent(t *testing.T) {
	e, transport := newTestExtractor()
	transport.RegisterResponder("GET", "http://news.test/empty",
		htmlResponder("<html><body><p>tiny</p></body></html>"))

	content, status := e.Extract(context.Background(), "http://news.test/empty")
	if status != models.ExtractionOK {
		t.Fatalf("status=%s, want ok", status)
	}
	if content != "" {
		t.Fatalf("content=%q, want empty", content)
	}
}
