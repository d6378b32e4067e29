package config

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "origin trailing slash",
			mutate: func(cfg *Config) {
				cfg.Origin = "https://www.metacritic.com/"
			},
			wantErr: "origin",
		},
		{
			name: "negative page",
			mutate: func(cfg *Config) {
				cfg.Pages = []int{0, -1}
			},
			wantErr: "page index",
		},
		{
			name: "negative delay",
			mutate: func(cfg *Config) {
				cfg.Delay = -1 * time.Second
			},
			wantErr: "delay",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "unknown format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xlsx"
			},
			wantErr: "output format",
		},
		{
			name: "dual output named jsonl",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "dual"
				cfg.OutputFile = "albums.jsonl"
			},
			wantErr: "collide",
		},
		{
			name: "dedupe without capacity",
			mutate: func(cfg *Config) {
				cfg.Dedupe = true
				cfg.DedupeMaxSize = 0
			},
			wantErr: "dedupe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("timeout=%v, want 30s", cfg.Timeout)
	}
}

func TestParsePages(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []int
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single", input: "3", expected: []int{3}},
		{name: "list keeps order", input: "2,0,1", expected: []int{2, 0, 1}},
		{name: "duplicates kept", input: "1,1", expected: []int{1, 1}},
		{name: "range", input: "0-3", expected: []int{0, 1, 2, 3}},
		{name: "mixed with spaces", input: " 5 , 0-1 ", expected: []int{5, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePages(tt.input)
			if err != nil {
				t.Fatalf("ParsePages(%q) error: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Fatalf("ParsePages(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParsePagesErrors(t *testing.T) {
	for _, input := range []string{"a", "1,,2", "3-1", "1-x"} {
		if _, err := ParsePages(input); err == nil {
			t.Fatalf("ParsePages(%q) expected error", input)
		}
	}
}

func TestFormatPages(t *testing.T) {
	if got := FormatPages([]int{0, 2, 2}); got != "0,2,2" {
		t.Fatalf("FormatPages = %q, want 0,2,2", got)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("SCRAPER_TEST_INT", "42")
	n, ok, err := EnvInt("SCRAPER_TEST_INT")
	if err != nil || !ok || n != 42 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (42, true, nil)", n, ok, err)
	}

	t.Setenv("SCRAPER_TEST_INT", "nope")
	if _, _, err := EnvInt("SCRAPER_TEST_INT"); err == nil {
		t.Fatalf("expected parse error")
	}

	if _, ok, err := EnvInt("SCRAPER_TEST_UNSET"); ok || err != nil {
		t.Fatalf("unset key should report (false, nil), got (%v, %v)", ok, err)
	}
}
