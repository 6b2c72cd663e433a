package filter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dtnitsch/llm-feed-filter/internal/common"
	"github.com/dtnitsch/llm-feed-filter/models"
	"github.com/dtnitsch/llm-feed-filter/pkg/classifier"
	"github.com/dtnitsch/llm-feed-filter/pkg/fetcher"
	pagefilter "github.com/dtnitsch/llm-feed-filter/pkg/filter"
	"github.com/dtnitsch/llm-feed-filter/pkg/page"
	"github.com/dtnitsch/llm-feed-filter/pkg/storage"
	"github.com/urfave/cli/v2"
)

// FilterAction loads a page once, classifies every card on it and writes the
// filtered HTML.
func FilterAction(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"), c.Bool("verbose"))
	startTime := time.Now()

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return cli.Exit("", 2)
	}

	source, raw, err := readSource(c.Context, c.String("page"), c.String("url"))
	if err != nil {
		logger.Error("failed to load page", "error", err)
		return cli.Exit("", 2)
	}

	summary, html, err := Run(c.Context, logger, cfg, raw, classifier.New(cfg))
	if err != nil {
		logger.Error("filter run failed", "source", source, "error", err)
		return cli.Exit("", 2)
	}
	summary.Source = source
	summary.TotalTimeSeconds = time.Since(startTime).Seconds()

	output := c.String("output")
	s := &storage.Storage{}
	if err := s.SaveFile(output, []byte(html)); err != nil {
		logger.Error("failed to write filtered page", "output", output, "error", err)
		return cli.Exit("", 2)
	}
	summary.Output = output

	if err := common.WriteOutput(os.Stdout, summary, c.String("format")); err != nil {
		logger.Error("failed to write summary", "error", err)
		return cli.Exit("", 2)
	}

	if summary.Status == "partial_failure" {
		return cli.Exit("", 1)
	}
	return nil
}

// Run hosts raw on a page loop, runs the watcher until every request has
// resolved and returns the summary and the filtered HTML.
func Run(ctx context.Context, logger *slog.Logger, cfg *models.FilterConfig, raw []byte, c pagefilter.Classifier) (*Summary, string, error) {
	p, err := page.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, "", err
	}
	p.Start()
	defer p.Close()

	f := pagefilter.New(p, c, cfg.Selectors, logger)
	observed, err := f.Watch(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to watch page: %w", err)
	}
	if err := f.Drain(); err != nil {
		return nil, "", fmt.Errorf("failed to drain classifications: %w", err)
	}
	if err := f.Stop(); err != nil {
		return nil, "", err
	}

	stats, err := f.Stats()
	if err != nil {
		return nil, "", err
	}
	logger.Info("Filter finished", "observed", observed, "dispatched", stats.Dispatched, "blocked", stats.Blocked, "passed", stats.Passed)

	var html string
	var renderErr error
	if err := p.Do(func() { html, renderErr = p.HTML() }); err != nil {
		return nil, "", err
	}
	if renderErr != nil {
		return nil, "", fmt.Errorf("failed to render page: %w", renderErr)
	}

	return &Summary{
		Status:    StatusFor(observed, stats),
		Observed:  observed,
		Model:     cfg.Model,
		APIFormat: string(cfg.APIFormat),
		Stats:     stats,
	}, html, nil
}

// readSource returns the page HTML from a file or a URL.
func readSource(ctx context.Context, pagePath, rawURL string) (string, []byte, error) {
	switch {
	case pagePath != "" && rawURL != "":
		return "", nil, fmt.Errorf("cannot use both --page and --url")
	case pagePath != "":
		s := &storage.Storage{}
		data, err := s.ReadFile(pagePath)
		return pagePath, data, err
	case rawURL != "":
		u, err := common.ValidateURL(rawURL)
		if err != nil {
			return "", nil, err
		}
		data, err := fetcher.NewFetcher().GetHtmlBytes(ctx, u)
		return u, data, err
	}
	return "", nil, fmt.Errorf("no page provided (use --page or --url)")
}
