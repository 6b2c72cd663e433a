package watch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dtnitsch/llm-feed-filter/internal/common"
	filtercmd "github.com/dtnitsch/llm-feed-filter/internal/filter"
	"github.com/dtnitsch/llm-feed-filter/models"
	"github.com/dtnitsch/llm-feed-filter/pkg/classifier"
	pagefilter "github.com/dtnitsch/llm-feed-filter/pkg/filter"
	"github.com/dtnitsch/llm-feed-filter/pkg/page"
	"github.com/dtnitsch/llm-feed-filter/pkg/storage"
	"github.com/urfave/cli/v2"
)

// Options names the feed directory, where fragments go and where the
// filtered page is written.
type Options struct {
	FeedDir  string
	AppendTo string
	Output   string
}

// WatchAction keeps a page open, feeds it fragments from a directory and
// filters every card that shows up until interrupted.
func WatchAction(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"), c.Bool("verbose"))
	startTime := time.Now()

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return cli.Exit("", 2)
	}

	pagePath := c.String("page")
	s := &storage.Storage{}
	raw, err := s.ReadFile(pagePath)
	if err != nil {
		logger.Error("failed to load page", "error", err)
		return cli.Exit("", 2)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	opts := Options{
		FeedDir:  c.String("feed-dir"),
		AppendTo: c.String("append-to"),
		Output:   c.String("output"),
	}
	summary, err := Run(ctx, logger, cfg, raw, classifier.New(cfg), opts, nil)
	if err != nil {
		logger.Error("watch run failed", "source", pagePath, "error", err)
		return cli.Exit("", 2)
	}
	summary.Source = pagePath
	summary.TotalTimeSeconds = time.Since(startTime).Seconds()

	if err := common.WriteOutput(os.Stdout, summary, c.String("format")); err != nil {
		logger.Error("failed to write summary", "error", err)
		return cli.Exit("", 2)
	}
	return nil
}

// Run hosts raw on a page loop, filters it and appends fragments from the
// feed directory until ctx is done. Requests are not cancelled with ctx, so
// outstanding classifications still finish before the page is written to
// opts.Output. ready is passed to Feed.Run.
func Run(ctx context.Context, logger *slog.Logger, cfg *models.FilterConfig, raw []byte, c pagefilter.Classifier, opts Options, ready chan<- struct{}) (*filtercmd.Summary, error) {
	p, err := page.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	p.Start()
	defer p.Close()

	f := pagefilter.New(p, c, cfg.Selectors, logger)
	observed, err := f.Watch(context.WithoutCancel(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to watch page: %w", err)
	}

	appendTo := opts.AppendTo
	if appendTo == "" {
		appendTo = cfg.Selectors.Containers
	}
	if err := NewFeed(opts.FeedDir, appendTo, p, logger).Run(ctx, ready); err != nil {
		return nil, fmt.Errorf("feed watcher failed: %w", err)
	}

	logger.Info("Stopping, waiting for outstanding classifications")
	summary, err := finish(f, p, opts.Output)
	if err != nil {
		return nil, err
	}
	summary.Observed = observed
	summary.Status = filtercmd.StatusFor(observed, summary.Stats)
	summary.Model = cfg.Model
	summary.APIFormat = string(cfg.APIFormat)
	return summary, nil
}

// finish stops watching, waits for every verdict and saves the page.
func finish(f *pagefilter.Filter, p *page.Page, output string) (*filtercmd.Summary, error) {
	if err := f.Stop(); err != nil {
		return nil, err
	}
	if err := f.Drain(); err != nil {
		return nil, err
	}
	stats, err := f.Stats()
	if err != nil {
		return nil, err
	}

	var html string
	var renderErr error
	if err := p.Do(func() { html, renderErr = p.HTML() }); err != nil {
		return nil, err
	}
	if renderErr != nil {
		return nil, fmt.Errorf("failed to render page: %w", renderErr)
	}
	s := &storage.Storage{}
	if err := s.SaveFile(output, []byte(html)); err != nil {
		return nil, err
	}
	return &filtercmd.Summary{Output: output, Stats: stats}, nil
}
