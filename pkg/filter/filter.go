// Package filter finds content cards on a page, hides them while they are
// classified, and shows the ones judged compliant.
//
// Scanning and every change to the document happen on the page loop.
// Each classification runs on its own goroutine and hands its verdict back
// to the loop, so one slow or failing request never holds up other cards or
// later scans.
package filter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/llm-feed-filter/models"
	"github.com/dtnitsch/llm-feed-filter/pkg/cards"
	"github.com/dtnitsch/llm-feed-filter/pkg/classifier"
	"github.com/dtnitsch/llm-feed-filter/pkg/page"
	"github.com/google/uuid"
)

// Classifier judges a single title.
type Classifier interface {
	Classify(ctx context.Context, title string) (classifier.Result, error)
}

// Stats counts what happened to the cards seen so far.
type Stats struct {
	Dispatched     int `json:"dispatched" yaml:"dispatched"`
	Blocked        int `json:"blocked" yaml:"blocked"`
	Passed         int `json:"passed" yaml:"passed"`
	Unintelligible int `json:"unintelligible" yaml:"unintelligible"`
	Failed         int `json:"failed" yaml:"failed"`
	Skipped        int `json:"skipped" yaml:"skipped"`
}

// Pending is the number of requests that have not resolved yet.
func (s Stats) Pending() int {
	return s.Dispatched - s.Blocked - s.Passed - s.Unintelligible - s.Failed
}

// Filter runs the scan, classify and resolve cycle for one page.
type Filter struct {
	page       *page.Page
	classifier Classifier
	selectors  models.Selectors
	logger     *slog.Logger

	// loop-only
	observer *page.Observer
	stats    Stats
	idle     []chan struct{}
}

// New returns a Filter for p. A nil logger means slog.Default().
func New(p *page.Page, c Classifier, selectors models.Selectors, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{
		page:       p,
		classifier: c,
		selectors:  selectors,
		logger:     logger,
	}
}

// Scan dispatches one classification for every card that has not been seen
// before and returns how many were dispatched. Loop only.
func (f *Filter) Scan(ctx context.Context) int {
	dispatched := 0
	f.page.Document().Find(f.selectors.Cards).Each(func(_ int, card *goquery.Selection) {
		if !cards.TryMarkProcessed(card) {
			return
		}
		title, ok := cards.Title(card, f.selectors.Titles)
		if !ok {
			f.stats.Skipped++
			return
		}

		// hidden until a verdict says otherwise
		cards.Hide(card)
		f.stats.Dispatched++
		dispatched++
		f.dispatch(ctx, card, title)
	})
	if dispatched > 0 {
		f.logger.Debug("Scan dispatched classifications", "count", dispatched)
	}
	return dispatched
}

func (f *Filter) dispatch(ctx context.Context, card *goquery.Selection, title string) {
	id := uuid.NewString()
	f.logger.Debug("Dispatching classification", "request_id", id, "title", title)

	go func() {
		res, err := f.classifier.Classify(ctx, title)
		if !f.page.Post(func() { f.resolve(card, id, title, res, err) }) {
			f.logger.Debug("Page closed before verdict was applied", "request_id", id, "title", title)
		}
	}()
}

// resolve applies a verdict to card. Only a compliant verdict shows it again.
func (f *Filter) resolve(card *goquery.Selection, id, title string, res classifier.Result, err error) {
	defer f.notifyIdle()

	if err != nil {
		f.stats.Failed++
		attrs := []any{"request_id", id, "title", title, "error", err}
		var statusErr *classifier.StatusError
		if errors.As(err, &statusErr) {
			attrs = append(attrs, "status", statusErr.Code)
		}
		f.logger.Error("Classification failed, card stays hidden", attrs...)
		return
	}

	switch res.Verdict {
	case models.VerdictViolates:
		f.stats.Blocked++
		f.logger.Info("Blocked", "request_id", id, "title", title)
	case models.VerdictCompliant:
		f.stats.Passed++
		cards.Show(card)
	default:
		f.stats.Unintelligible++
		f.logger.Error("Unintelligible answer, card stays hidden", "request_id", id, "title", title, "answer", res.Answer)
	}
}

// Stats returns a snapshot of the counters. Must not be called on the loop.
func (f *Filter) Stats() (Stats, error) {
	var s Stats
	err := f.page.Do(func() { s = f.stats })
	return s, err
}

// Drain waits until every dispatched request has resolved and its verdict
// has been applied, including requests dispatched by scans that run while
// Drain is waiting. Must not be called on the loop.
func (f *Filter) Drain() error {
	for {
		var idle chan struct{}
		err := f.page.Do(func() {
			if f.stats.Pending() > 0 {
				idle = make(chan struct{})
				f.idle = append(f.idle, idle)
			}
		})
		if err != nil {
			return err
		}
		if idle == nil {
			return nil
		}
		select {
		case <-idle:
		case <-f.page.Stopped():
			return page.ErrClosed
		}
	}
}

// notifyIdle wakes Drain callers once nothing is pending. Loop only.
func (f *Filter) notifyIdle() {
	if f.stats.Pending() > 0 {
		return
	}
	for _, ch := range f.idle {
		close(ch)
	}
	f.idle = nil
}
