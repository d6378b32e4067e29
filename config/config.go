package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL        string
	Origin         string
	Pages          []int
	Delay          time.Duration
	Timeout        time.Duration
	UserAgent      string
	Accept         string
	AcceptLanguage string
	OutputDir      string
	OutputFile     string
	OutputFormat   string // csv, json, or dual
	Dedupe         bool
	DedupeMaxSize  int
	MetricsAddr    string
	Verbose        bool
}

// DefaultConfig returns conservative defaults for the album listing.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://www.metacritic.com/browse/albums/score/metascore/year/filtered",
		Origin:         "https://www.metacritic.com",
		Delay:          2 * time.Second,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (compatible; album-review-scraper/1.0; +https://github.com/aluiziolira/go-scrape-albums)",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.5",
		OutputDir:      "output",
		OutputFile:     "album_reviews.csv",
		OutputFormat:   "csv",
		DedupeMaxSize:  10000,
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

	if c.Origin == "" {
		return fmt.Errorf("origin cannot be empty")
	}
	if strings.HasSuffix(c.Origin, "/") {
		return fmt.Errorf("origin must not end with a slash")
	}

	for _, p := range c.Pages {
		if p < 0 {
			return fmt.Errorf("page index cannot be negative: %d", p)
		}
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
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
	if c.OutputFormat == "dual" && filepath.Ext(c.OutputFile) == ".jsonl" {
		return fmt.Errorf("output file %q would collide with its .jsonl sibling in dual format", c.OutputFile)
	}
	if c.Dedupe && c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive when dedupe is enabled")
	}

	return nil
}

// ParsePages parses a page list such as "0,2,4-6". Order and duplicates are
// preserved; ranges expand in ascending order. An empty string yields nil.
func ParsePages(list string) ([]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty page entry in %q", list)
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid page %q: %w", part, err)
		}
		if !isRange {
			pages = append(pages, start)
			continue
		}
		end, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid page range %q: %w", part, err)
		}
		if end < start {
			return nil, fmt.Errorf("page range %q is descending", part)
		}
		for p := start; p <= end; p++ {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

// FormatPages renders pages in the compact form accepted by ParsePages.
func FormatPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// EnvString returns the value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// EnvInt parses key as an integer when it is set.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}
