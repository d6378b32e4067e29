// Package pipeline post-processes scraped tables and writes them to disk.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-albums/models"
)

// ExportStats describes a finished export.
type ExportStats struct {
	Paths   []string
	Rows    int
	Columns int
}

// NewWriter builds the OutputWriter for format. For "dual" the JSONL file
// sits next to path with a .jsonl extension, so path itself must not end in
// .jsonl.
func NewWriter(format, path string, header []string, paged bool) (OutputWriter, error) {
	switch format {
	case "csv":
		return NewCSVWriter(path, header, paged)
	case "json":
		return NewJSONWriter(path, paged)
	case "dual":
		return NewDualWriter(path, JSONSibling(path), header, paged)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Export writes table to directory/filename, creating directory if needed.
// An existing file at that path is replaced.
func Export(table *models.Table, filename, directory, format string) (ExportStats, error) {
	if table == nil {
		table = models.NewTable()
	}
	if filename == "" {
		return ExportStats{}, fmt.Errorf("export filename cannot be empty")
	}

	path := filepath.Join(directory, filename)
	header := table.Header()

	writer, err := NewWriter(format, path, header, table.Paged)
	if err != nil {
		return ExportStats{}, fmt.Errorf("create writer: %w", err)
	}
	if err := writeAll(writer, table.Rows); err != nil {
		return ExportStats{}, err
	}

	stats := ExportStats{
		Paths:   []string{path},
		Rows:    table.Len(),
		Columns: len(header),
	}
	if format == "dual" {
		stats.Paths = append(stats.Paths, JSONSibling(path))
	}

	slog.Info("table exported",
		slog.String("path", path),
		slog.String("format", format),
		slog.Int("rows", stats.Rows),
		slog.Int("columns", stats.Columns),
	)
	return stats, nil
}

// writeAll writes rows, closes writer and validates what it produced. The
// writer is closed on every path.
func writeAll(writer OutputWriter, rows []models.Row) error {
	if err := writer.Write(rows); err != nil {
		writeErr := fmt.Errorf("write rows: %w", err)
		if closeErr := writer.Close(); closeErr != nil {
			return errors.Join(writeErr, fmt.Errorf("close writer: %w", closeErr))
		}
		return writeErr
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	if err := writer.Validate(); err != nil {
		return fmt.Errorf("validate output: %w", err)
	}
	return nil
}

// JSONSibling returns the JSONL path written next to path in dual mode.
func JSONSibling(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl"
}

// Deduper drops rows whose album URL was already seen. Memory is bounded by
// an LRU, so a URL evicted from the cache can be accepted again.
type Deduper struct {
	seen    *lru.Cache[string, struct{}]
	dropped int
}

// NewDeduper returns a Deduper remembering up to size URLs.
func NewDeduper(size int) (*Deduper, error) {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}
	return &Deduper{seen: cache}, nil
}

// Filter returns a new table without duplicate album URLs. Rows lacking a URL
// are always kept since they cannot be compared.
func (d *Deduper) Filter(table *models.Table) *models.Table {
	out := &models.Table{Paged: table.Paged, Rows: make([]models.Row, 0, table.Len())}
	for _, row := range table.Rows {
		if row.Album.URL != nil {
			if found, _ := d.seen.ContainsOrAdd(*row.Album.URL, struct{}{}); found {
				d.dropped++
				continue
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Dropped returns how many rows Filter has removed so far.
func (d *Deduper) Dropped() int {
	return d.dropped
}

// Summary aggregates a table for reporting.
type Summary struct {
	Rows          int
	Metascores    int
	UserScores    int
	DistinctURLs  int
	Pages         int
	MeanMetascore float64
	MeanUserScore float64
}

// Summarize counts non-missing scores and distinct album URLs.
func Summarize(table *models.Table) Summary {
	var s Summary
	if table == nil {
		return s
	}

	urls := make(map[string]struct{})
	pages := make(map[int]struct{})
	var metaSum, userSum float64
	for _, row := range table.Rows {
		a := row.Album
		if a.Metascore != nil {
			s.Metascores++
			metaSum += *a.Metascore
		}
		if a.UserScore != nil {
			s.UserScores++
			userSum += *a.UserScore
		}
		if a.URL != nil {
			urls[*a.URL] = struct{}{}
		}
		if table.Paged {
			pages[row.PageNumber] = struct{}{}
		}
	}

	s.Rows = table.Len()
	s.DistinctURLs = len(urls)
	s.Pages = len(pages)
	if s.Metascores > 0 {
		s.MeanMetascore = metaSum / float64(s.Metascores)
	}
	if s.UserScores > 0 {
		s.MeanUserScore = userSum / float64(s.UserScores)
	}
	return s
}
