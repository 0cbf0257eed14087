package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentUnreadable means the bytes could not be parsed as the declared kind.
	ErrDocumentUnreadable = errors.New("document unreadable")
	// ErrEmptyExtraction means acquisition and OCR produced no usable text.
	ErrEmptyExtraction = errors.New("no text could be extracted")
	// ErrEmptyGrouping means text was found but no entity could be identified.
	ErrEmptyGrouping = errors.New("no customer or transaction records identified")
	// ErrRender means the report writer rejected the content.
	ErrRender = errors.New("report rendering failed")
	// ErrUnsupportedKind means the document is neither PDF nor DOCX.
	ErrUnsupportedKind = errors.New("unsupported document kind")
)

// KindError reports a document whose format could not be determined.
type KindError struct {
	Name string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: expected .pdf or .docx", e.Name)
}

func (e *KindError) Unwrap() error { return ErrUnsupportedKind }

// PageError is a recoverable failure on a single page. The page contributes
// no text and processing continues.
type PageError struct {
	Page  int
	Stage string // "native" or "ocr"
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d %s extraction: %v", e.Page, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// WarningKind classifies a non-fatal condition surfaced to the user.
type WarningKind string

const (
	WarnUnreadable      WarningKind = "document_unreadable"
	WarnPageFailure     WarningKind = "page_extraction_failure"
	WarnEmptyExtraction WarningKind = "empty_extraction"
	WarnEmptyGrouping   WarningKind = "empty_grouping"
)

// Warning is a user-visible message attached to a batch result.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Document string      `json:"document,omitempty"`
	Page     int         `json:"page,omitempty"`
	Message  string      `json:"message"`
}

func (w Warning) String() string {
	switch {
	case w.Document != "" && w.Page > 0:
		return fmt.Sprintf("%s (page %d): %s", w.Document, w.Page, w.Message)
	case w.Document != "":
		return fmt.Sprintf("%s: %s", w.Document, w.Message)
	default:
		return w.Message
	}
}
