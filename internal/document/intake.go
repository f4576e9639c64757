package document

import (
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
)

// ErrIntakeDecode indicates an uploaded payload could not be decoded as
// plain text or Markdown. The document is left untouched when it occurs.
var ErrIntakeDecode = errors.New("file could not be decoded as text")

const maxIntakeBytes = 1 << 20

// Intake turns uploaded bytes into essay text. Only UTF-8 plain text and
// Markdown are accepted; embedded HTML in Markdown is stripped before the
// text reaches the document.
type Intake struct {
	sanitizer *bluemonday.Policy
}

// NewIntake constructs a file intake with a strict sanitization policy.
func NewIntake() *Intake {
	return &Intake{sanitizer: bluemonday.StrictPolicy()}
}

// Decode validates and converts an uploaded file into document text.
func (i *Intake) Decode(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrIntakeDecode)
	}
	if len(data) > maxIntakeBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrIntakeDecode, maxIntakeBytes)
	}

	mime := mimetype.Detect(data)
	if !mime.Is("text/plain") && !mime.Is("text/markdown") {
		return "", fmt.Errorf("%w: unsupported type %s", ErrIntakeDecode, mime.String())
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: invalid utf-8", ErrIntakeDecode)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	if isMarkdown(filename, mime) && strings.Contains(text, "<") {
		// Markdown may embed raw HTML; strip the tags and undo the entity
		// escaping the sanitizer applies to the remaining text.
		text = html.UnescapeString(i.sanitizer.Sanitize(text))
	}

	return text, nil
}

func isMarkdown(filename string, mime *mimetype.MIME) bool {
	if mime.Is("text/markdown") {
		return true
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
