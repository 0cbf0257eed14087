// Package extractor turns statement documents into flat text. PDF pages are
// read from their embedded text layer and, page by page, fall back to OCR
// when that layer is empty. DOCX documents are read paragraph by paragraph.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/config"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/metrics"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/ocr"
)

// Extractor acquires the text of documents. Each Extract call opens its own
// page source, so one Extractor may serve several goroutines as long as the
// OCR engine allows it.
type Extractor struct {
	cfg    config.OCR
	engine ocr.Engine
	open   Opener
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithOpener replaces the PDF opener.
func WithOpener(open Opener) Option {
	return func(e *Extractor) { e.open = open }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// New creates an Extractor. engine may be nil, in which case pages without a
// text layer are reported as failed.
func New(cfg config.OCR, engine ocr.Engine, opts ...Option) *Extractor {
	e := &Extractor{
		cfg:    cfg,
		engine: engine,
		open:   OpenPDF,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the text of doc. Only an unparseable document, an unknown
// kind or a cancelled context is an error; page-level failures are recorded
// in the result's Pages and contribute no text.
func (e *Extractor) Extract(ctx context.Context, doc models.Document) (*models.ExtractedText, error) {
	var (
		out *models.ExtractedText
		err error
	)
	switch doc.Kind {
	case models.KindPDF:
		out, err = e.extractPDF(ctx, doc)
	case models.KindDOCX:
		out, err = e.extractDOCX(doc)
	default:
		err = &models.KindError{Name: doc.Name}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Name, err)
	}
	return out, nil
}

func (e *Extractor) extractPDF(ctx context.Context, doc models.Document) (*models.ExtractedText, error) {
	src, err := e.open(doc.Data)
	if err != nil {
		if !errors.Is(err, models.ErrDocumentUnreadable) {
			err = fmt.Errorf("%w: %v", models.ErrDocumentUnreadable, err)
		}
		return nil, err
	}
	defer src.Close()

	out := &models.ExtractedText{Document: doc.Name, Kind: models.KindPDF}
	var sb strings.Builder
	for page := 1; page <= src.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := e.acquirePage(ctx, src, page)
		metrics.Pages.WithLabelValues(string(res.Source)).Inc()
		out.Pages = append(out.Pages, res)
		sb.WriteString(res.Text)
		sb.WriteString("\n")
	}
	out.Text = sb.String()
	return out, nil
}

// acquirePage decides the text source for one page: the native layer when it
// has content, otherwise exactly one OCR pass.
func (e *Extractor) acquirePage(ctx context.Context, src PageSource, page int) models.PageResult {
	text, nativeErr := src.NativeText(page)
	if nativeErr != nil {
		e.logger.Warn("native text extraction failed", "page", page, "error", nativeErr)
	}
	if strings.TrimSpace(text) != "" {
		return models.PageResult{Page: page, Source: models.SourceNative, Text: text}
	}

	e.logger.Debug("page has no text layer, running OCR", "page", page)
	text, err := e.recognizePage(ctx, src, page)
	if err != nil {
		e.logger.Warn("OCR failed", "page", page, "error", err)
		return models.PageResult{
			Page:   page,
			Source: models.SourceFailed,
			Err:    &models.PageError{Page: page, Stage: "ocr", Err: err},
		}
	}
	if strings.TrimSpace(text) == "" && nativeErr != nil {
		return models.PageResult{
			Page:   page,
			Source: models.SourceFailed,
			Err:    &models.PageError{Page: page, Stage: "native", Err: nativeErr},
		}
	}
	return models.PageResult{Page: page, Source: models.SourceOCR, Text: text}
}

func (e *Extractor) extractDOCX(doc models.Document) (*models.ExtractedText, error) {
	lines, err := docxLines(doc.Data)
	if err != nil {
		return nil, err
	}
	text := strings.Join(lines, "\n")
	return &models.ExtractedText{
		Document: doc.Name,
		Kind:     models.KindDOCX,
		Text:     text,
		Pages:    []models.PageResult{{Page: 1, Source: models.SourceNative, Text: text}},
	}, nil
}

// NewEngine builds the OCR engine named in cfg.
func NewEngine(ctx context.Context, cfg config.OCR) (ocr.Engine, error) {
	switch cfg.Engine {
	case config.EngineGemini:
		return ocr.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
	case config.EngineTesseract, "":
		return ocr.NewTesseract(), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Engine)
	}
}
