// Package document holds the editable essay text and its derived metrics.
package document

import "strings"

// Document is the single editable text a grading session owns. It is not
// safe for concurrent use on its own; the owning session serializes access.
type Document struct {
	text string
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// SetText replaces the content unconditionally.
func (d *Document) SetText(text string) {
	d.text = text
}

// Text returns the current content.
func (d *Document) Text() string {
	return d.text
}

// Clear empties the document.
func (d *Document) Clear() {
	d.text = ""
}

// WordCount counts maximal non-whitespace runs. It is recomputed on every
// call rather than cached so it can never drift from the text.
func (d *Document) WordCount() int {
	return len(strings.Fields(d.text))
}

// IsBlank reports whether the content is empty or whitespace only. A
// writing-mode placeholder is whitespace and therefore stays blank.
func (d *Document) IsBlank() bool {
	return strings.TrimSpace(d.text) == ""
}
