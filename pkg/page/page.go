// Package page hosts an HTML document on a single event-loop goroutine.
//
// All reads and writes of the document happen in tasks run by the loop, one
// at a time and in FIFO order. Other goroutines hand work to the loop with
// Post or Do. Structural changes made through Append and Remove are recorded
// and, once the task that made them returns, delivered as one batch to every
// Observer whose root contains the changed node.
package page

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrClosed is returned when work is handed to a page whose loop has stopped.
var ErrClosed = errors.New("page: loop closed")

// Record describes one structural change below Target.
type Record struct {
	Target  *html.Node
	Added   []*html.Node
	Removed []*html.Node
}

// Page is an HTML document together with the loop that owns it.
type Page struct {
	doc *goquery.Document

	mu      sync.Mutex
	queue   []func()
	closed  bool
	started bool
	wake    chan struct{}
	stopped chan struct{}

	// loop-only
	observers []*Observer
	records   []Record
}

// New wraps doc. The loop is not running until Start is called.
func New(doc *goquery.Document) *Page {
	return &Page{
		doc:     doc,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return New(doc), nil
}

// Start launches the loop goroutine. Calling it more than once is a no-op.
func (p *Page) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	go p.run()
}

// Close stops the loop after the task it is running, drops queued tasks and
// waits for the loop goroutine to exit.
func (p *Page) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if p.started {
			<-p.stopped
		}
		return
	}
	p.closed = true
	started := p.started
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	if started {
		<-p.stopped
	}
}

// Post queues task to run on the loop. It never blocks and may be called from
// inside a task. It reports false when the page is closed and task was dropped.
func (p *Page) Post(task func()) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.queue = append(p.queue, task)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs task on the loop and waits for it, including delivery of the
// mutation records it produced. It must not be called from inside a task.
func (p *Page) Do(task func()) error {
	done := make(chan struct{})
	if !p.Post(func() {
		defer close(done)
		task()
		p.deliver()
	}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-p.stopped:
		return ErrClosed
	}
}

// Stopped is closed once the loop goroutine has exited.
func (p *Page) Stopped() <-chan struct{} {
	return p.stopped
}

func (p *Page) run() {
	defer close(p.stopped)
	for {
		p.mu.Lock()
		if p.closed {
			p.queue = nil
			p.mu.Unlock()
			return
		}
		var task func()
		if len(p.queue) > 0 {
			task = p.queue[0]
			p.queue[0] = nil
			p.queue = p.queue[1:]
		}
		p.mu.Unlock()

		if task == nil {
			<-p.wake
			continue
		}
		task()
		p.deliver()
	}
}

// Document returns the hosted document. Loop only.
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// HTML renders the whole document. Loop only.
func (p *Page) HTML() (string, error) {
	return goquery.OuterHtml(p.doc.Selection)
}

// Append parses fragment and appends its nodes as children of the first node
// in target. Loop only.
func (p *Page) Append(target *goquery.Selection, fragment string) error {
	if target.Length() == 0 {
		return errors.New("page: append target matched no node")
	}
	parent := target.Get(0)
	last := parent.LastChild
	target.First().AppendHtml(fragment)

	first := parent.FirstChild
	if last != nil {
		first = last.NextSibling
	}
	var added []*html.Node
	for n := first; n != nil; n = n.NextSibling {
		added = append(added, n)
	}
	if len(added) > 0 {
		p.records = append(p.records, Record{Target: parent, Added: added})
	}
	return nil
}

// Remove detaches every node in sel from the document. Loop only.
func (p *Page) Remove(sel *goquery.Selection) {
	for _, n := range sel.Nodes {
		if n.Parent == nil {
			continue
		}
		parent := n.Parent
		parent.RemoveChild(n)
		p.records = append(p.records, Record{Target: parent, Removed: []*html.Node{n}})
	}
}
