package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/metrics"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/ocr"
)

// ErrNoEngine is returned for pages that need OCR when no engine is configured.
var ErrNoEngine = errors.New("no OCR engine configured")

// recognizePage rasterizes one page at the configured resolution and runs the
// engine over it once, with every configured language loaded.
func (e *Extractor) recognizePage(ctx context.Context, src PageSource, page int) (string, error) {
	if e.engine == nil {
		return "", ErrNoEngine
	}
	start := time.Now()
	defer func() {
		metrics.OCRDuration.WithLabelValues(e.engine.Name()).Observe(time.Since(start).Seconds())
	}()

	img, err := src.Render(page, float64(e.cfg.DPI))
	if err != nil {
		return "", fmt.Errorf("rasterize: %w", err)
	}
	in, err := ocr.NewInput(img,
		ocr.WithPage(page),
		ocr.WithLanguages(e.cfg.Languages...),
		ocr.WithDPI(e.cfg.DPI),
		ocr.WithPageSegMode(e.cfg.PageSegMode),
	)
	if err != nil {
		return "", err
	}
	return e.engine.Recognize(ctx, in)
}
