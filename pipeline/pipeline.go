// Package pipeline validates harvested articles and writes them to the
// configured output sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/go-news-harvester/config"
	"github.com/aluiziolira/go-news-harvester/models"
	"github.com/aluiziolira/go-news-harvester/parser"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(articles []*models.Article) error
	Close() error
	Validate() error
}

// Pipeline coordinates validation, optional link de-duplication, and
// output writing. De-duplication is off by default: the same article
// link appearing across overlapping windows is recorded twice unless
// DedupeMaxSize is set.
type Pipeline struct {
	ctx       context.Context
	writer    OutputWriter
	articleCh chan *models.Article
	batchSize int

	wg sync.WaitGroup

	seen *lru.Cache[string, struct{}]

	metrics metrics

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline with buffer sizes taken from cfg.
func NewPipeline(ctx context.Context, writer OutputWriter, cfg *config.Config) *Pipeline {
	if ctx == nil {
		ctx = context.Background()
	}

	var seen *lru.Cache[string, struct{}]
	if cfg.DedupeMaxSize > 0 {
		cache, err := lru.New[string, struct{}](cfg.DedupeMaxSize)
		if err != nil {
			slog.Error("dedupe cache init failed, de-duplication disabled", slog.Any("error", err))
		} else {
			seen = cache
		}
	}

	return &Pipeline{
		ctx:       ctx,
		writer:    writer,
		articleCh: make(chan *models.Article, cfg.PipelineBufferSize),
		batchSize: cfg.BatchSize,
		seen:      seen,
		metrics:   newMetrics(),
		shutdown:  make(chan struct{}),
	}
}

// Start launches worker goroutines. A single worker preserves harvest
// order in the output.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues articles for downstream processing.
func (p *Pipeline) Process(articles []*models.Article) error {
	if len(articles) == 0 {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for _, article := range articles {
		if article == nil {
			continue
		}
		if err := p.enqueue(article); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.articleCh)
	})

	p.wg.Wait()
	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				snapshot := p.GetMetrics()
				processed := snapshot["processed_articles"].(int64)
				validation := snapshot["validation_errors"].(map[string]int)
				slog.Info("pipeline progress",
					slog.Int64("processed", processed),
					slog.Int("validation_error_kinds", len(validation)),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.Article, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for article := range p.articleCh {
		prepared := p.prepare(article)
		if prepared == nil {
			continue
		}
		batch = append(batch, prepared)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

func (p *Pipeline) prepare(article *models.Article) *models.Article {
	if err := parser.ValidateArticle(article); err != nil {
		p.metrics.addValidation("invalid_record")
		return nil
	}

	if p.seen != nil {
		if p.seen.Contains(article.Link) {
			p.metrics.addValidation("duplicate_link")
			return nil
		}
		p.seen.Add(article.Link, struct{}{})
	}

	p.metrics.incrementProcessed()
	return article
}

func (p *Pipeline) enqueue(article *models.Article) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.articleCh <- article:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.articleCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu         sync.Mutex
	processed  int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_articles": m.processed,
		"validation_errors":  copyValidation,
	}
}
