package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-news-harvester/config"
	"github.com/aluiziolira/go-news-harvester/models"
	"github.com/aluiziolira/go-news-harvester/pipeline"
	"github.com/aluiziolira/go-news-harvester/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.DefaultConfig()

	companiesDefault := strings.Join(defaultCfg.Companies, ",")
	if value, ok := config.EnvString("HARVESTER_COMPANIES"); ok {
		companiesDefault = value
	}
	yearsDefault := joinYears(defaultCfg.Years)
	if value, ok := config.EnvString("HARVESTER_YEARS"); ok {
		yearsDefault = value
	}
	quotaDefault := defaultCfg.MaxPerCompany
	if value, ok, err := config.EnvInt("HARVESTER_QUOTA"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid HARVESTER_QUOTA: %v\n", err)
		os.Exit(1)
	} else if ok {
		quotaDefault = value
	}
	outputDefault := ""
	if value, ok := config.EnvString("HARVESTER_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := ""
	if value, ok := config.EnvString("HARVESTER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	companies := flag.String("companies", companiesDefault, "Comma-separated company stock codes")
	years := flag.String("years", yearsDefault, "Comma-separated years to harvest")
	quota := flag.Int("quota", quotaDefault, "Maximum articles per company (0 = unlimited)")
	windows := flag.Int("windows", defaultCfg.ContinuationWindows, "Continuation-window baseline (windows 0..N are walked)")
	articleDelay := flag.Duration("article-delay", defaultCfg.ArticleDelay, "Delay between article extractions")
	pageDelay := flag.Duration("page-delay", defaultCfg.PageDelay, "Delay between listing-page fetches")
	listingTimeout := flag.Duration("listing-timeout", defaultCfg.ListingTimeout, "Timeout for listing-page fetches")
	extractTimeout := flag.Duration("extract-timeout", defaultCfg.ExtractTimeout, "Timeout for article fetches")
	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Listing endpoint to query")
	outputFile := flag.String("output", outputDefault, "Output file path (empty = derived from companies/years)")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	companyList := splitList(*companies)
	yearList, err := parseYears(*years)
	if err != nil {
		slog.Error("invalid years", slog.Any("error", err))
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = *baseURL
	cfg.Companies = companyList
	cfg.Years = yearList
	cfg.MaxPerCompany = *quota
	cfg.ContinuationWindows = *windows
	cfg.ArticleDelay = *articleDelay
	cfg.PageDelay = *pageDelay
	cfg.ListingTimeout = *listingTimeout
	cfg.ExtractTimeout = *extractTimeout
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	cfg.OutputFile = *outputFile
	if cfg.OutputFile == "" {
		cfg.OutputFile = defaultOutputPath(companyList, yearList, time.Now())
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting harvest",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("companies", len(cfg.Companies)),
		slog.Int("years", len(cfg.Years)),
		slog.Int("quota", cfg.MaxPerCompany),
	)

	h, err := scraper.NewHarvester(cfg)
	if err != nil {
		slog.Error("initialising harvester", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && h.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(h.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, runErr := h.Run(ctx)
	if runErr != nil {
		slog.Warn("harvest interrupted, persisting collected articles", slog.Any("error", runErr))
	}

	if len(result.Articles) == 0 {
		slog.Warn("no articles collected")
	} else {
		// The harvest set is written in one pass after the crawl; a
		// single worker keeps the output in harvest order.
		p := pipeline.NewPipeline(context.Background(), writer, cfg)
		p.Start(1)
		if err := p.Process(result.Articles); err != nil {
			slog.Error("pipeline process failed", slog.Any("error", err))
			os.Exit(1)
		}
		if err := p.Close(); err != nil {
			slog.Error("pipeline shutdown failed", slog.Any("error", err))
			os.Exit(1)
		}
		if err := writer.Validate(); err != nil {
			slog.Error("output validation failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, cfg.OutputFile)
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// defaultOutputPath mirrors the historical naming scheme:
// company_news_full_articles_<companies>_<years>_<timestamp>.csv
func defaultOutputPath(companies []string, years []int, now time.Time) string {
	var yearParts []string
	for _, year := range years {
		yearParts = append(yearParts, strconv.Itoa(year))
	}
	return fmt.Sprintf("output/company_news_full_articles_%s_%s_%s.csv",
		strings.Join(companies, "_"),
		strings.Join(yearParts, "_"),
		now.Format("20060102_150405"),
	)
}

func printSummary(result *models.HarvestResult, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Harvest complete")

	fmt.Printf("  Total articles: %d\n", len(result.Articles))
	fmt.Printf("  Requests:       %d\n", result.RequestCount)
	fmt.Printf("  Listing pages:  %d\n", result.PageCount)
	fmt.Printf("  Errors:         %d\n", result.ErrorCount)
	fmt.Printf("  Failed URLs:    %d\n", len(result.FailedURLs))
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:    %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Duration:       %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Printf("  Output file:    %s\n", outputFile)

	if avg, min, max, ok := articleLengthStats(result.Articles); ok {
		fmt.Printf("  Article length: avg %d / min %d / max %d characters\n", avg, min, max)
	}
	if info, err := os.Stat(outputFile); err == nil {
		fmt.Printf("  File size:      %.2f MB\n", float64(info.Size())/(1024*1024))
	}
	fmt.Println(separator)
}

func articleLengthStats(articles []*models.Article) (avg, min, max int, ok bool) {
	if len(articles) == 0 {
		return 0, 0, 0, false
	}
	total := 0
	min = len(articles[0].FullArticle)
	for _, article := range articles {
		length := len(article.FullArticle)
		total += length
		if length < min {
			min = length
		}
		if length > max {
			max = length
		}
	}
	return total / len(articles), min, max, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinYears(years []int) string {
	var parts []string
	for _, year := range years {
		parts = append(parts, strconv.Itoa(year))
	}
	return strings.Join(parts, ",")
}

func parseYears(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		year, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parse year %q: %w", part, err)
		}
		out = append(out, year)
	}
	return out, nil
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
