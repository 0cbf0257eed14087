package models

import (
	"bytes"
	"path/filepath"
	"strings"
)

// DocumentKind represents supported statement document formats.
type DocumentKind string

const (
	KindPDF  DocumentKind = "pdf"
	KindDOCX DocumentKind = "docx"
)

// MIME types for the supported inputs and the rendered report.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// Document is a caller-owned statement file. The core never mutates Data.
type Document struct {
	Name string
	Kind DocumentKind
	Data []byte
}

// NewDocument builds a Document, detecting its kind from the name and content.
func NewDocument(name string, data []byte) (Document, error) {
	kind, err := DetectKind(name, data)
	if err != nil {
		return Document{}, err
	}
	return Document{Name: name, Kind: kind, Data: data}, nil
}

// DetectKind identifies the document format by file extension, falling back to
// the leading magic bytes when the extension is missing or unknown.
func DetectKind(name string, data []byte) (DocumentKind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, nil
	case ".docx":
		return KindDOCX, nil
	}

	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return KindPDF, nil
	case bytes.HasPrefix(data, zipMagic):
		// Any zip container is assumed to be a word-processor document;
		// the DOCX reader rejects it later if it is not.
		return KindDOCX, nil
	}
	return "", &KindError{Name: name}
}

// PageSource identifies where a page's text came from.
type PageSource string

const (
	SourceNative PageSource = "native"
	SourceOCR    PageSource = "ocr"
	SourceFailed PageSource = "failed"
)

// PageResult is the outcome of acquiring text for one page (or, for DOCX, one
// paragraph block). Err is set only when Source is SourceFailed.
type PageResult struct {
	Page   int        `json:"page"`
	Source PageSource `json:"source"`
	Text   string     `json:"-"`
	Err    error      `json:"-"`
}

// ExtractedText is the flat text of a whole document plus per-page detail.
type ExtractedText struct {
	Document string
	Kind     DocumentKind
	Text     string
	Pages    []PageResult
}

// OCRPages returns how many pages were recognized by OCR.
func (e *ExtractedText) OCRPages() int {
	n := 0
	for _, p := range e.Pages {
		if p.Source == SourceOCR {
			n++
		}
	}
	return n
}

// Failures returns the pages whose extraction failed.
func (e *ExtractedText) Failures() []PageResult {
	var out []PageResult
	for _, p := range e.Pages {
		if p.Source == SourceFailed {
			out = append(out, p)
		}
	}
	return out
}

// IsEmpty reports whether the document yielded no usable text.
func (e *ExtractedText) IsEmpty() bool {
	return strings.TrimSpace(e.Text) == ""
}

// Preview returns at most n runes of the extracted text.
func (e *ExtractedText) Preview(n int) string {
	r := []rune(e.Text)
	if len(r) <= n {
		return e.Text
	}
	return string(r[:n])
}
