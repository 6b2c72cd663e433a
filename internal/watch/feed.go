package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/llm-feed-filter/pkg/page"
	"github.com/dtnitsch/llm-feed-filter/pkg/storage"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a fragment file must stay quiet before it is read.
const DefaultSettle = 300 * time.Millisecond

// Feed appends HTML fragments dropped into a directory to a page. It stands
// in for a page that keeps loading content as the user scrolls.
//
// A file is read once it has gone DefaultSettle without a write, and each
// read appends only what was added to the file since the last one, as one
// mutation batch.
type Feed struct {
	dir      string
	appendTo string
	page     *page.Page
	store    *storage.Storage
	logger   *slog.Logger
	settle   time.Duration

	// content already appended, by path
	injected map[string]string
}

// NewFeed returns a Feed that appends into the first node matching appendTo,
// or into body when nothing matches.
func NewFeed(dir, appendTo string, p *page.Page, logger *slog.Logger) *Feed {
	return &Feed{
		dir:      dir,
		appendTo: appendTo,
		page:     p,
		store:    &storage.Storage{},
		logger:   logger,
		settle:   DefaultSettle,
		injected: make(map[string]string),
	}
}

// Run watches the directory until ctx is done. ready, if not nil, is closed
// once the directory is being watched.
func (fd *Feed) Run(ctx context.Context, ready chan<- struct{}) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(fd.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", fd.dir, err)
	}
	fd.logger.Info("Watching feed directory", "dir", fd.dir)
	if ready != nil {
		close(ready)
	}

	quit := make(chan struct{})
	settled := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		close(quit)
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !storage.IsFragment(event.Name) {
				continue
			}
			path := filepath.Clean(event.Name)
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(fd.settle, func() {
				select {
				case settled <- path:
				case <-quit:
				}
			})
		case path := <-settled:
			delete(timers, path)
			if err := fd.inject(path); err != nil {
				fd.logger.Warn("Failed to append fragment", "file", path, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fd.logger.Warn("File watcher error", "error", err)
		}
	}
}

// inject appends whatever path gained since it was last appended. Empty
// files are left for a later write event. A file whose earlier content
// changed is ignored.
func (fd *Feed) inject(path string) error {
	path = filepath.Clean(path)
	data, err := fd.store.ReadFile(path)
	if err != nil {
		return err
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return nil
	}
	prev := fd.injected[path]
	if !strings.HasPrefix(content, prev) {
		fd.logger.Warn("Fragment was rewritten after it was appended, ignoring", "file", path)
		return nil
	}
	fragment := strings.TrimSpace(content[len(prev):])
	if fragment == "" {
		return nil
	}
	fd.injected[path] = content

	var appendErr error
	if err := fd.page.Do(func() {
		appendErr = fd.page.Append(fd.target(), fragment)
	}); err != nil {
		return err
	}
	if appendErr != nil {
		return appendErr
	}
	fd.logger.Info("Appended fragment", "file", path, "bytes", len(fragment))
	return nil
}

// target runs on the page loop.
func (fd *Feed) target() *goquery.Selection {
	doc := fd.page.Document()
	if fd.appendTo != "" {
		if sel := doc.Find(fd.appendTo).First(); sel.Length() > 0 {
			return sel
		}
	}
	return doc.Find("body").First()
}
