package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds harvester configuration.
type Config struct {
	BaseURL             string
	Companies           []string
	Years               []int
	MaxPerCompany       int // 0 = unlimited
	ContinuationWindows int // upstream "next" baseline; windows 0..N are walked
	ArticleDelay        time.Duration
	PageDelay           time.Duration
	ListingTimeout      time.Duration
	ExtractTimeout      time.Duration
	UserAgent           string
	OutputFile          string
	OutputFormat        string // csv, json, or dual
	MetricsAddr         string
	Verbose             bool
	PipelineBufferSize  int
	BatchSize           int
	DedupeMaxSize       int // 0 disables link de-duplication
}

// DefaultConfig returns conservative defaults for the listing source.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:             "https://www.moneycontrol.com/stocks/company_info/stock_news.php",
		Companies:           []string{"RI"},
		Years:               []int{2025},
		MaxPerCompany:       0,
		ContinuationWindows: 0,
		ArticleDelay:        2 * time.Second,
		PageDelay:           1 * time.Second,
		ListingTimeout:      10 * time.Second,
		ExtractTimeout:      15 * time.Second,
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		OutputFile:          "output/company_news_full_articles.csv",
		OutputFormat:        "csv",
		Verbose:             false,
		PipelineBufferSize:  512,
		BatchSize:           64,
		DedupeMaxSize:       0,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if len(c.Companies) == 0 {
		return fmt.Errorf("companies cannot be empty")
	}
	for _, company := range c.Companies {
		if company == "" {
			return fmt.Errorf("company id cannot be empty")
		}
	}
	if len(c.Years) == 0 {
		return fmt.Errorf("years cannot be empty")
	}
	for _, year := range c.Years {
		if year <= 0 {
			return fmt.Errorf("year must be positive, got %d", year)
		}
	}
	if c.MaxPerCompany < 0 {
		return fmt.Errorf("max articles per company cannot be negative")
	}
	if c.ContinuationWindows < 0 {
		return fmt.Errorf("continuation windows cannot be negative")
	}
	if c.ArticleDelay < 0 {
		return fmt.Errorf("article delay cannot be negative")
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("page delay cannot be negative")
	}
	if c.ListingTimeout <= 0 {
		return fmt.Errorf("listing timeout must be positive")
	}
	if c.ExtractTimeout <= 0 {
		return fmt.Errorf("extract timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize < 0 {
		return fmt.Errorf("dedupe max size cannot be negative")
	}

	return nil
}
