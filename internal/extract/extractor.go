package extract

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

// Extractor derives plain text from raw document bytes. An error means the
// document could not be parsed at all; an empty string with a nil error is a
// legitimate outcome (e.g. a scanned PDF with no text layer).
type Extractor interface {
	Extract(data []byte) (string, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(data []byte) (string, error)

func (f ExtractorFunc) Extract(data []byte) (string, error) {
	return f(data)
}

var ErrNotText = errors.New("document is not valid UTF-8 text")

var pdfMagic = []byte("%PDF-")

// Auto dispatches on the document's magic bytes: PDFs go through the PDF
// extractor, everything else is treated as plain UTF-8 text.
type Auto struct {
	pdf   PDF
	plain PlainText
}

func NewAuto() Auto { return Auto{} }

func (a Auto) Extract(data []byte) (string, error) {
	if bytes.HasPrefix(data, pdfMagic) {
		return a.pdf.Extract(data)
	}
	return a.plain.Extract(data)
}

// PlainText passes UTF-8 documents through unchanged.
type PlainText struct{}

func (PlainText) Extract(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrNotText
	}
	return strings.TrimSpace(string(data)), nil
}
