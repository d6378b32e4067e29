package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-scrape-albums/config"
	"github.com/aluiziolira/go-scrape-albums/models"
	"github.com/aluiziolira/go-scrape-albums/parser"
	"github.com/aluiziolira/go-scrape-albums/pipeline"
)

// Scraper fetches album listing pages one at a time through a colly
// collector and turns them into tables.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	Metrics   *Metrics

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// PageResult is the outcome of scraping one listing page. Warning is
// ErrNoEntries or ErrNoValidData when Table is empty for those reasons.
type PageResult struct {
	URL     string
	Table   *models.Table
	Found   int
	Skipped map[parser.SkipReason]int
	Invalid map[string]int
	Warning error
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidArgument)
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Scraper{
		cfg:       cfg,
		collector: collector,
		Metrics:   NewMetrics(),
		now:       time.Now,
		sleep:     sleepContext,
	}, nil
}

// PageURL appends the listing query for page to baseURL.
func PageURL(baseURL string, page int) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d&view=detailed", baseURL, sep, page)
}

// ScrapePage waits the configured politeness delay, fetches pageURL and
// extracts every album row on it. Rows without a title are skipped; a fetch
// failure is returned as *FetchError.
func (s *Scraper) ScrapePage(ctx context.Context, pageURL string) (*PageResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(pageURL) == "" {
		return nil, fmt.Errorf("%w: page url cannot be empty", ErrInvalidArgument)
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: page url %q: %v", ErrInvalidArgument, pageURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: page url %q must be absolute", ErrInvalidArgument, pageURL)
	}
	if s.cfg.Delay < 0 {
		return nil, fmt.Errorf("%w: delay cannot be negative", ErrInvalidArgument)
	}

	if err := s.sleep(ctx, s.cfg.Delay); err != nil {
		return nil, err
	}

	s.progress("requesting page", slog.String("url", pageURL))
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		s.Metrics.IncError(errorTypeLabel(err))
		s.Metrics.IncPage("failed")
		return nil, err
	}
	s.progress("page parsed", slog.String("url", pageURL))

	result := &PageResult{
		URL:     pageURL,
		Table:   models.NewTable(),
		Skipped: make(map[parser.SkipReason]int),
		Invalid: make(map[string]int),
	}

	rows := doc.Find(parser.RowSelector)
	result.Found = rows.Length()
	s.progress("entries found", slog.String("url", pageURL), slog.Int("entries", result.Found))

	if result.Found == 0 {
		result.Warning = ErrNoEntries
		s.Metrics.IncPage("no_entries")
		slog.Warn("no entries found on page", slog.String("url", pageURL))
		return result, nil
	}

	rows.Each(func(_ int, row *goquery.Selection) {
		ext := parser.ExtractAlbum(row, s.cfg.Origin, s.now())
		if !ext.OK() {
			result.Skipped[ext.Skip]++
			s.Metrics.IncSkipped(string(ext.Skip))
			if ext.Err != nil {
				slog.Debug("row skipped", slog.String("reason", string(ext.Skip)), slog.Any("error", ext.Err))
			}
			return
		}
		for _, field := range ext.Invalid {
			result.Invalid[field]++
		}
		if ext.Err != nil {
			slog.Debug("row has unparseable fields",
				slog.String("title", ext.Album.Title),
				slog.Any("error", ext.Err),
			)
		}
		result.Table.Append(ext.Album)
	})

	if result.Table.Len() == 0 {
		result.Warning = ErrNoValidData
		s.Metrics.IncPage("no_valid_data")
		slog.Warn("no valid album rows on page",
			slog.String("url", pageURL),
			slog.Int("entries", result.Found),
		)
		return result, nil
	}

	s.Metrics.IncPage("ok")
	s.Metrics.AddAlbums(result.Table.Len())

	if s.cfg.Verbose {
		summary := pipeline.Summarize(result.Table)
		slog.Info("page extracted",
			slog.String("url", pageURL),
			slog.Int("rows", summary.Rows),
			slog.Int("metascores", summary.Metascores),
			slog.Int("user_scores", summary.UserScores),
		)
	}
	return result, nil
}

// ScrapeMultiple scrapes baseURL once per page index, in the given order, and
// concatenates the rows into one paged table. The first page error aborts the
// whole run.
func (s *Scraper) ScrapeMultiple(ctx context.Context, baseURL string, pages []int) (*models.Table, error) {
	table := &models.Table{Paged: true}

	for _, page := range pages {
		result, err := s.ScrapePage(ctx, PageURL(baseURL, page))
		if err != nil {
			return nil, fmt.Errorf("scrape page %d: %w", page, err)
		}
		for _, row := range result.Table.Rows {
			row.PageNumber = page
			table.Rows = append(table.Rows, row)
		}
	}

	if s.cfg.Verbose {
		summary := pipeline.Summarize(table)
		slog.Info("pages aggregated",
			slog.Int("pages", len(pages)),
			slog.Int("rows", summary.Rows),
			slog.Int("distinct_album_urls", summary.DistinctURLs),
		)
	}
	return table, nil
}

// fetch issues a single GET for pageURL and parses the body as HTML.
func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := s.collector.Clone()

	var (
		status  int
		body    []byte
		started time.Time
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", s.cfg.Accept)
		r.Headers.Set("Accept-Language", s.cfg.AcceptLanguage)
		started = time.Now()
		s.Metrics.IncRequest("started")
	})

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
		s.Metrics.ObserveDuration(time.Since(started))
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		s.Metrics.IncRequest("failed")
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, &FetchError{URL: pageURL, StatusCode: status, Err: classifyError(err, status)}
	}
	if status != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", status)
		return nil, &FetchError{URL: pageURL, StatusCode: status, Err: classifyError(err, status)}
	}
	s.Metrics.IncRequest("completed")

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html from %s: %w", pageURL, err)
	}
	return doc, nil
}

// progress logs a verbose-only progress message.
func (s *Scraper) progress(msg string, attrs ...any) {
	if !s.cfg.Verbose {
		return
	}
	slog.Info(msg, attrs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
