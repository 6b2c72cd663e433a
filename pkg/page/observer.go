package page

import "golang.org/x/net/html"

// Observer receives batches of records for changes inside its root subtree.
type Observer struct {
	page *Page
	root *html.Node
	fn   func([]Record)
	done bool
}

// Observe registers fn for structural changes at or below root. Loop only.
func (p *Page) Observe(root *html.Node, fn func([]Record)) *Observer {
	o := &Observer{page: p, root: root, fn: fn}
	p.observers = append(p.observers, o)
	return o
}

// Root returns the observed node.
func (o *Observer) Root() *html.Node {
	return o.root
}

// Disconnect stops delivery to o. Loop only.
func (o *Observer) Disconnect() {
	o.done = true
	observers := o.page.observers[:0]
	for _, other := range o.page.observers {
		if other != o {
			observers = append(observers, other)
		}
	}
	o.page.observers = observers
}

// deliver hands the records produced by the last task to interested
// observers. Records produced by the callbacks themselves are delivered in
// the next round.
func (p *Page) deliver() {
	for len(p.records) > 0 {
		records := p.records
		p.records = nil

		observers := append([]*Observer(nil), p.observers...)
		for _, o := range observers {
			if o.done {
				continue
			}
			var batch []Record
			for _, r := range records {
				if contains(o.root, r.Target) {
					batch = append(batch, r)
				}
			}
			if len(batch) > 0 {
				o.fn(batch)
			}
		}
	}
}

// contains reports whether n is root or one of its descendants.
func contains(root, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}
