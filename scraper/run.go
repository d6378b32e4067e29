package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-albums/config"
	"github.com/aluiziolira/go-scrape-albums/models"
	"github.com/aluiziolira/go-scrape-albums/pipeline"
)

// RunResult holds the overall result of an end-to-end run.
type RunResult struct {
	Table     *models.Table
	Summary   pipeline.Summary
	Export    pipeline.ExportStats
	Deduped   int
	StartTime time.Time
	EndTime   time.Time
}

// Run validates cfg, then scrapes, summarizes and exports with it.
func Run(ctx context.Context, cfg *config.Config) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	s, err := NewScraper(cfg)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}

// Run scrapes cfg.BaseURL (or each of cfg.Pages when set), optionally drops
// duplicate album URLs, and exports the table to cfg.OutputDir.
func (s *Scraper) Run(ctx context.Context) (*RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	result := &RunResult{StartTime: time.Now()}

	var table *models.Table
	if len(s.cfg.Pages) == 0 {
		page, err := s.ScrapePage(ctx, s.cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		table = page.Table
	} else {
		var err error
		table, err = s.ScrapeMultiple(ctx, s.cfg.BaseURL, s.cfg.Pages)
		if err != nil {
			return nil, err
		}
	}

	if s.cfg.Dedupe {
		deduper, err := pipeline.NewDeduper(s.cfg.DedupeMaxSize)
		if err != nil {
			return nil, err
		}
		table = deduper.Filter(table)
		result.Deduped = deduper.Dropped()
		if result.Deduped > 0 {
			slog.Info("duplicate albums dropped", slog.Int("dropped", result.Deduped))
		}
	}

	result.Table = table
	result.Summary = pipeline.Summarize(table)

	stats, err := pipeline.Export(table, s.cfg.OutputFile, s.cfg.OutputDir, s.cfg.OutputFormat)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Export = stats
	result.EndTime = time.Now()
	return result, nil
}
