package filter

import (
	"context"

	"github.com/dtnitsch/llm-feed-filter/pkg/page"
	"golang.org/x/net/html"
)

// Watch selects the root to observe, subscribes to its mutations and runs
// the first scan. It reports false when the page has no known container; in
// that case nothing is observed and the page is left alone.
//
// ctx is handed to every classification request started by this watch.
// Must not be called on the loop.
func (f *Filter) Watch(ctx context.Context) (bool, error) {
	var found bool
	err := f.page.Do(func() {
		root := f.selectRoot()
		if root == nil {
			f.logger.Info("No known container on page, filter inactive")
			return
		}
		found = true
		if f.observer != nil {
			f.observer.Disconnect()
		}
		f.observer = f.page.Observe(root, func(records []page.Record) {
			f.logger.Debug("Mutation batch", "records", len(records))
			f.Scan(ctx)
		})
		f.Scan(ctx)
	})
	return found, err
}

// selectRoot returns the first known container, widened to body when the
// container does not report its own changes reliably.
func (f *Filter) selectRoot() *html.Node {
	doc := f.page.Document()
	container := doc.Find(f.selectors.Containers).First()
	if container.Length() == 0 {
		return nil
	}
	if f.selectors.Widen != "" && container.Is(f.selectors.Widen) {
		body := doc.Find("body").First()
		if body.Length() > 0 {
			f.logger.Debug("Widening observed root to body")
			return body.Get(0)
		}
	}
	return container.Get(0)
}

// Stop disconnects the observer installed by Watch. Must not be called on
// the loop.
func (f *Filter) Stop() error {
	return f.page.Do(func() {
		if f.observer != nil {
			f.observer.Disconnect()
			f.observer = nil
		}
	})
}

// Root returns the node being observed, or nil. Loop only.
func (f *Filter) Root() *html.Node {
	if f.observer == nil {
		return nil
	}
	return f.observer.Root()
}
