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
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-scrape-albums/config"
	"github.com/aluiziolira/go-scrape-albums/scraper"
)

func main() {
	defaultCfg := config.DefaultConfig()

	pagesDefault := ""
	if value, ok := config.EnvString("SCRAPER_PAGES"); ok {
		pagesDefault = value
	}
	delayDefault := int(defaultCfg.Delay / time.Millisecond)
	if value, ok, err := config.EnvInt("SCRAPER_DELAY_MS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_DELAY_MS: %v\n", err)
		os.Exit(1)
	} else if ok {
		delayDefault = value
	}
	outputDirDefault := defaultCfg.OutputDir
	if value, ok := config.EnvString("SCRAPER_OUTPUT_DIR"); ok {
		outputDirDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Listing URL to scrape")
	origin := flag.String("origin", defaultCfg.Origin, "Site origin used to resolve relative album links")
	pagesList := flag.String("pages", pagesDefault, "Page indices to scrape, e.g. 0,1,2 or 0-4 (empty scrapes base-url once)")
	delayMs := flag.Int("delay", delayDefault, "Politeness delay before each request (milliseconds)")
	timeout := flag.Duration("timeout", defaultCfg.Timeout, "HTTP request timeout")
	outputDir := flag.String("output-dir", outputDirDefault, "Directory for exported files")
	outputFile := flag.String("output", defaultCfg.OutputFile, "Output file name")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	dedupe := flag.Bool("dedupe", false, "Drop rows whose album URL was already seen")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	pages, err := config.ParsePages(*pagesList)
	if err != nil {
		slog.Error("invalid pages", slog.Any("error", err))
		os.Exit(1)
	}

	cfg := defaultCfg
	cfg.BaseURL = *baseURL
	cfg.Origin = strings.TrimRight(*origin, "/")
	cfg.Pages = pages
	cfg.Delay = time.Duration(*delayMs) * time.Millisecond
	cfg.Timeout = *timeout
	cfg.OutputDir = *outputDir
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.Dedupe = *dedupe
	cfg.Verbose = *verbose
	cfg.MetricsAddr = *metricsAddr
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.String("pages", config.FormatPages(cfg.Pages)),
		slog.Duration("delay", cfg.Delay),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, err := s.Run(ctx)
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err))
		os.Exit(1)
	}

	printSummary(result)
}

func printSummary(result *scraper.RunResult) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Scrape complete")

	summary := result.Summary
	t.AppendRows([]table.Row{
		{"Rows", summary.Rows},
		{"Pages", summary.Pages},
		{"Metascores", summary.Metascores},
		{"User scores", summary.UserScores},
		{"Mean metascore", fmt.Sprintf("%.1f", summary.MeanMetascore)},
		{"Mean user score", fmt.Sprintf("%.2f", summary.MeanUserScore)},
		{"Distinct album URLs", summary.DistinctURLs},
		{"Duplicates dropped", result.Deduped},
		{"Duration", result.EndTime.Sub(result.StartTime).Round(time.Millisecond)},
		{"Output", strings.Join(result.Export.Paths, ", ")},
	})
	t.Render()
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
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
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
