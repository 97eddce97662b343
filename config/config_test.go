package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "empty base url", mutate: func(c *Config) { c.BaseURL = "" }, wantErr: true},
		{name: "base url without host", mutate: func(c *Config) { c.BaseURL = "/stock_news.php" }, wantErr: true},
		{name: "no companies", mutate: func(c *Config) { c.Companies = nil }, wantErr: true},
		{name: "blank company", mutate: func(c *Config) { c.Companies = []string{"RI", ""} }, wantErr: true},
		{name: "no years", mutate: func(c *Config) { c.Years = nil }, wantErr: true},
		{name: "non-positive year", mutate: func(c *Config) { c.Years = []int{0} }, wantErr: true},
		{name: "negative quota", mutate: func(c *Config) { c.MaxPerCompany = -1 }, wantErr: true},
		{name: "zero quota is unlimited", mutate: func(c *Config) { c.MaxPerCompany = 0 }, wantErr: false},
		{name: "negative windows", mutate: func(c *Config) { c.ContinuationWindows = -1 }, wantErr: true},
		{name: "negative article delay", mutate: func(c *Config) { c.ArticleDelay = -time.Second }, wantErr: true},
		{name: "negative page delay", mutate: func(c *Config) { c.PageDelay = -time.Second }, wantErr: true},
		{name: "zero article delay", mutate: func(c *Config) { c.ArticleDelay = 0 }, wantErr: false},
		{name: "zero listing timeout", mutate: func(c *Config) { c.ListingTimeout = 0 }, wantErr: true},
		{name: "zero extract timeout", mutate: func(c *Config) { c.ExtractTimeout = 0 }, wantErr: true},
		{name: "empty user agent", mutate: func(c *Config) { c.UserAgent = "" }, wantErr: true},
		{name: "empty output file", mutate: func(c *Config) { c.OutputFile = "" }, wantErr: true},
		{name: "bad output format", mutate: func(c *Config) { c.OutputFormat = "xml" }, wantErr: true},
		{name: "json output format", mutate: func(c *Config) { c.OutputFormat = "json" }, wantErr: false},
		{name: "dual output format", mutate: func(c *Config) { c.OutputFormat = "dual" }, wantErr: false},
		{name: "zero pipeline buffer", mutate: func(c *Config) { c.PipelineBufferSize = 0 }, wantErr: true},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: true},
		{name: "negative dedupe size", mutate: func(c *Config) { c.DedupeMaxSize = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvString(t *testing.T) {
	t.Setenv("HARVESTER_TEST_STR", "TCS,RI")
	if value, ok := EnvString("HARVESTER_TEST_STR"); !ok || value != "TCS,RI" {
		t.Fatalf("EnvString() = (%q, %v)", value, ok)
	}

	t.Setenv("HARVESTER_TEST_STR", "")
	if _, ok := EnvString("HARVESTER_TEST_STR"); ok {
		t.Fatalf("empty value should not count as set")
	}
	if _, ok := EnvString("HARVESTER_TEST_UNSET"); ok {
		t.Fatalf("unset key should not count as set")
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("HARVESTER_TEST_INT", "25")
	value, ok, err := EnvInt("HARVESTER_TEST_INT")
	if err != nil || !ok || value != 25 {
		t.Fatalf("EnvInt() = (%d, %v, %v)", value, ok, err)
	}

	t.Setenv("HARVESTER_TEST_INT", "not-a-number")
	if _, _, err := EnvInt("HARVESTER_TEST_INT"); err == nil {
		t.Fatalf("expected parse error")
	}

	if _, ok, err := EnvInt("HARVESTER_TEST_UNSET"); ok || err != nil {
		t.Fatalf("unset key: ok=%v err=%v", ok, err)
	}
}
