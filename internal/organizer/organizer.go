// Package organizer runs the statement pipeline over a batch of documents:
// text acquisition, line grouping and merging into one Grouping, collecting
// warnings instead of failing the batch.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/metrics"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/parser"
)

// PreviewLength is the default number of characters of raw text kept per
// document for display.
const PreviewLength = 3000

// DocumentExtractor acquires the text of one document.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc models.Document) (*models.ExtractedText, error)
}

// DocumentResult describes what happened to one input document.
type DocumentResult struct {
	Name         string              `json:"name"`
	Kind         models.DocumentKind `json:"kind,omitempty"`
	Pages        []models.PageResult `json:"pages,omitempty"`
	Preview      string              `json:"preview,omitempty"`
	Entities     int                 `json:"entities"`
	Transactions int                 `json:"transactions"`
	Trace        []models.LineTrace  `json:"trace,omitempty"`
	Error        string              `json:"error,omitempty"`

	extracted bool
}

// Result is the merged outcome of a batch.
type Result struct {
	Grouping  *models.Grouping `json:"grouping"`
	Documents []DocumentResult `json:"documents"`
	Warnings  []models.Warning `json:"warnings"`
	Summary   models.Summary   `json:"summary"`
}

func newResult() *Result {
	return &Result{
		Grouping:  models.NewGrouping(),
		Documents: []DocumentResult{},
		Warnings:  []models.Warning{},
	}
}

// Reportable reports whether any document produced text, i.e. whether a
// report should be rendered for the batch.
func (r *Result) Reportable() bool {
	for _, d := range r.Documents {
		if d.extracted {
			return true
		}
	}
	return false
}

func (r *Result) warn(w models.Warning) {
	metrics.Warnings.WithLabelValues(string(w.Kind)).Inc()
	r.Warnings = append(r.Warnings, w)
}

func (r *Result) finish() {
	r.Summary.Documents = len(r.Documents)
	r.Summary.Entities = r.Grouping.Len()
	r.Summary.Transactions = r.Grouping.TransactionCount()
}

// Organizer processes documents one after another.
type Organizer struct {
	ext        DocumentExtractor
	cls        *parser.Classifier
	logger     *slog.Logger
	trace      bool
	previewLen int
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithTrace records the per-line classification of every document.
func WithTrace(enabled bool) Option {
	return func(o *Organizer) { o.trace = enabled }
}

// WithPreviewLength sets how much raw text is kept per document.
func WithPreviewLength(n int) Option {
	return func(o *Organizer) { o.previewLen = n }
}

// New creates an Organizer. A nil logger uses slog.Default().
func New(ext DocumentExtractor, cls *parser.Classifier, logger *slog.Logger, opts ...Option) *Organizer {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Organizer{ext: ext, cls: cls, logger: logger, previewLen: PreviewLength}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs the pipeline over docs in order and merges their groups. An
// entity found in several documents gets the lines of the earlier document
// first. Failures of single documents or pages become warnings. Processing
// stops early only when ctx is done.
func (o *Organizer) Process(ctx context.Context, docs []models.Document) *Result {
	res := newResult()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("batch cancelled", "remaining", len(docs)-len(res.Documents), "error", err)
			break
		}
		res.Documents = append(res.Documents, o.processOne(ctx, doc, res))
	}
	res.finish()
	o.logger.Info("batch processed",
		"documents", res.Summary.Documents,
		"failed", res.Summary.Failed,
		"entities", res.Summary.Entities,
		"transactions", res.Summary.Transactions,
		"ocr_pages", res.Summary.OCRPages,
		"warnings", len(res.Warnings),
	)
	return res
}

func (o *Organizer) processOne(ctx context.Context, doc models.Document, res *Result) DocumentResult {
	dr := DocumentResult{Name: doc.Name, Kind: doc.Kind}
	logger := o.logger.With("document", doc.Name)

	text, err := o.ext.Extract(ctx, doc)
	if err != nil && ctx.Err() != nil {
		dr.Error = err.Error()
		return dr
	}
	if err != nil {
		logger.Error("document unreadable", "error", err)
		metrics.Documents.WithLabelValues(string(doc.Kind), "unreadable").Inc()
		res.Summary.Failed++
		dr.Error = err.Error()
		msg := "the document could not be opened"
		if errors.Is(err, models.ErrUnsupportedKind) {
			msg = "unsupported file type, expected PDF or DOCX"
		}
		res.warn(models.Warning{Kind: models.WarnUnreadable, Document: doc.Name, Message: msg})
		return dr
	}

	dr.Pages = text.Pages
	res.Summary.OCRPages += text.OCRPages()
	for _, p := range text.Failures() {
		res.warn(models.Warning{
			Kind:     models.WarnPageFailure,
			Document: doc.Name,
			Page:     p.Page,
			Message:  fmt.Sprintf("page %d could not be read and was skipped", p.Page),
		})
	}

	if text.IsEmpty() {
		logger.Warn("no text extracted", "pages", len(text.Pages))
		metrics.Documents.WithLabelValues(string(doc.Kind), "empty").Inc()
		res.warn(models.Warning{
			Kind:     models.WarnEmptyExtraction,
			Document: doc.Name,
			Message:  models.ErrEmptyExtraction.Error() + "; check that the statement is legible",
		})
		return dr
	}
	dr.extracted = true
	dr.Preview = text.Preview(o.previewLen)

	g := o.cls.Group(text.Text)
	if o.trace {
		dr.Trace = o.cls.Trace(text.Text)
	}
	dr.Entities = g.Len()
	dr.Transactions = g.TransactionCount()
	if g.Len() == 0 {
		res.warn(models.Warning{
			Kind:     models.WarnEmptyGrouping,
			Document: doc.Name,
			Message:  models.ErrEmptyGrouping.Error() + "; check that the statement text is clear",
		})
	}
	res.Grouping.Merge(g)

	metrics.Documents.WithLabelValues(string(doc.Kind), "ok").Inc()
	logger.Info("document processed",
		"pages", len(text.Pages),
		"ocr_pages", text.OCRPages(),
		"entities", dr.Entities,
		"transactions", dr.Transactions,
	)
	return dr
}
