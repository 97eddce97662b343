package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aluiziolira/go-news-harvester/config"
	"github.com/aluiziolira/go-news-harvester/models"
)

// collectingWriter records every written article in order.
type collectingWriter struct {
	mu       sync.Mutex
	articles []*models.Article
	writeErr error
}

func (w *collectingWriter) Write(articles []*models.Article) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr != nil {
		return w.writeErr
	}
	w.articles = append(w.articles, articles...)
	return nil
}

func (w *collectingWriter) Close() error    { return nil }
func (w *collectingWriter) Validate() error { return nil }

func (w *collectingWriter) collected() []*models.Article {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*models.Article, len(w.articles))
	copy(out, w.articles)
	return out
}

func pipelineConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.PipelineBufferSize = 16
	cfg.BatchSize = 4
	return cfg
}

func makeArticle(i int) *models.Article {
	return &models.Article{
		Company: "RI",
		Year:    2025,
		Title:   fmt.Sprintf("Article %d", i),
		Link:    fmt.Sprintf("http://news.test/a%d", i),
		Date:    "May 5, 2025",
	}
}

func TestPipelineProcessPreservesOrder(t *testing.T) {
	writer := &collectingWriter{}
	p := NewPipeline(context.Background(), writer, pipelineConfig())
	p.Start(1)

	var input []*models.Article
	for i := 0; i < 10; i++ {
		input = append(input, makeArticle(i))
	}
	if err := p.Process(input); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := writer.collected()
	if len(got) != 10 {
		t.Fatalf("written=%d, want 10", len(got))
	}
	for i, article := range got {
		if want := fmt.Sprintf("Article %d", i); article.Title != want {
			t.Fatalf("article[%d]=%q, want %q", i, article.Title, want)
		}
	}
}

func TestPipelineDropsInvalidArticles(t *testing.T) {
	writer := &collectingWriter{}
	p := NewPipeline(context.Background(), writer, pipelineConfig())
	p.Start(1)

	input := []*models.Article{
		makeArticle(1),
		{Company: "RI", Year: 2025}, // no title, no link
		makeArticle(2),
	}
	if err := p.Process(input); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.collected(); len(got) != 2 {
		t.Fatalf("written=%d, want invalid record dropped", len(got))
	}
	snapshot := p.GetMetrics()
	validation := snapshot["validation_errors"].(map[string]int)
	if validation["invalid_record"] != 1 {
		t.Fatalf("validation errors=%v, want one invalid_record", validation)
	}
	if processed := snapshot["processed_articles"].(int64); processed != 2 {
		t.Fatalf("processed=%d, want 2", processed)
	}
}

func TestPipelineDedupe(t *testing.T) {
	cfg := pipelineConfig()
	cfg.DedupeMaxSize = 128

	writer := &collectingWriter{}
	p := NewPipeline(context.Background(), writer, cfg)
	p.Start(1)

	input := []*models.Article{makeArticle(1), makeArticle(1), makeArticle(2)}
	if err := p.Process(input); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.collected(); len(got) != 2 {
		t.Fatalf("written=%d, want duplicate link dropped", len(got))
	}
	validation := p.GetMetrics()["validation_errors"].(map[string]int)
	if validation["duplicate_link"] != 1 {
		t.Fatalf("validation errors=%v, want one duplicate_link", validation)
	}
}

func TestPipelineDedupeDisabledByDefault(t *testing.T) {
	writer := &collectingWriter{}
	p := NewPipeline(context.Background(), writer, pipelineConfig())
	p.Start(1)

	input := []*models.Article{makeArticle(1), makeArticle(1)}
	if err := p.Process(input); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.collected(); len(got) != 2 {
		t.Fatalf("written=%d, want both records kept when de-duplication is off", len(got))
	}
}

func TestPipelineProcessAfterClose(t *testing.T) {
	writer := &collectingWriter{}
	p := NewPipeline(context.Background(), writer, pipelineConfig())
	p.Start(1)

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.Process([]*models.Article{makeArticle(1)}); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("process after close: err=%v, want ErrPipelineClosed", err)
	}
}

func TestPipelineWriterFailureSurfaces(t *testing.T) {
	writer := &collectingWriter{writeErr: errors.New("disk full")}
	p := NewPipeline(context.Background(), writer, pipelineConfig())
	p.Start(1)

	var input []*models.Article
	for i := 0; i < 8; i++ {
		input = append(input, makeArticle(i))
	}
	// Enqueue failures are possible once the worker shuts the pipeline
	// down, so only Close's error is authoritative.
	_ = p.Process(input)
	if err := p.Close(); err == nil {
		t.Fatalf("expected writer error to surface from Close")
	}
}
