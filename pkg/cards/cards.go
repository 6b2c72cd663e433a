// Package cards reads and annotates content cards inside a page.
//
// Each function takes a single-node selection. None of them are safe for
// concurrent use; callers run them on the page loop.
package cards

import (
	"bufio"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// CheckedAttr marks a card as seen by the filter.
	CheckedAttr = "data-checked"
	// HiddenAttr is the presentation toggle used to hide a card.
	HiddenAttr = "hidden"
)

// Title returns the title of card, found through the first descendant that
// matches titleSelector. The element's title attribute is preferred over its
// text. ok is false when no such descendant exists or the title is blank,
// as with composite hero cards built from plain sub-cards.
func Title(card *goquery.Selection, titleSelector string) (title string, ok bool) {
	el := card.Find(titleSelector).First()
	if el.Length() == 0 {
		return "", false
	}
	if attr, exists := el.Attr("title"); exists {
		title = normalizeText(attr)
	}
	if title == "" {
		title = normalizeText(el.Text())
	}
	return title, title != ""
}

// TryMarkProcessed flags card as seen and reports whether it was unseen.
// The flag lives on the node, so a node that is removed and re-created by
// the page counts as a new card.
func TryMarkProcessed(card *goquery.Selection) bool {
	if _, seen := card.Attr(CheckedAttr); seen {
		return false
	}
	card.SetAttr(CheckedAttr, "true")
	return true
}

// Processed reports whether card carries the seen flag.
func Processed(card *goquery.Selection) bool {
	_, seen := card.Attr(CheckedAttr)
	return seen
}

// Hide hides card. Hiding a hidden card is a no-op.
func Hide(card *goquery.Selection) {
	card.SetAttr(HiddenAttr, "")
}

// Show makes card visible again.
func Show(card *goquery.Selection) {
	card.RemoveAttr(HiddenAttr)
}

// Hidden reports whether card is hidden.
func Hidden(card *goquery.Selection) bool {
	_, hidden := card.Attr(HiddenAttr)
	return hidden
}

// normalizeText trims each line and joins the non-empty ones with a space.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
