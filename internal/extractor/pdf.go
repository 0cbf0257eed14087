package extractor

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"unicode"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
)

// PageSource gives page-level access to a PDF. Pages are 1-based.
type PageSource interface {
	NumPage() int
	// NativeText returns the embedded text layer of one page.
	NativeText(page int) (string, error)
	// Render rasterizes one page at the given resolution.
	Render(page int, dpi float64) (image.Image, error)
	Close() error
}

// Opener opens raw PDF bytes as a PageSource.
type Opener func(data []byte) (PageSource, error)

// minQuality is the share of readable runes below which a text layer is
// treated as garbage from an identity-encoded font.
const minQuality = 0.6

// pdfSource reads text rows with ledongthuc/pdf and falls back to MuPDF
// (go-fitz) for text it cannot decode. MuPDF also rasterizes pages for OCR.
// Either reader may be nil when it failed to parse the file.
type pdfSource struct {
	reader *pdf.Reader
	doc    *fitz.Document
}

// OpenPDF is the default Opener. The document is unreadable only when
// neither parser accepts it.
func OpenPDF(data []byte) (PageSource, error) {
	reader, libErr := openWithLibrary(data)
	doc, fitzErr := fitz.NewFromMemory(data)
	if fitzErr != nil {
		doc = nil
	}
	if reader == nil && doc == nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDocumentUnreadable, libErr)
	}

	src := &pdfSource{reader: reader, doc: doc}
	if src.NumPage() == 0 {
		src.Close()
		return nil, fmt.Errorf("%w: PDF has no pages", models.ErrDocumentUnreadable)
	}
	return src, nil
}

// openWithLibrary parses the cross-reference table. The library panics on some
// malformed files.
func openWithLibrary(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("PDF library crashed: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func (s *pdfSource) NumPage() int {
	if s.doc != nil {
		return s.doc.NumPage()
	}
	return s.reader.NumPage()
}

func (s *pdfSource) NativeText(page int) (string, error) {
	text, err := s.textByRow(page)
	var mupdf func() (string, error)
	if s.doc != nil {
		mupdf = func() (string, error) { return s.doc.Text(page - 1) }
	}
	return chooseNativeText(text, err, mupdf)
}

// chooseNativeText picks the text layer of one page. The row text from
// ledongthuc/pdf wins when it is non-empty and readable; otherwise MuPDF's
// text is consulted, if available, and used when it reads better. mupdf is
// nil when MuPDF could not open the file.
func chooseNativeText(rows string, rowsErr error, mupdf func() (string, error)) (string, error) {
	empty := strings.TrimSpace(rows) == ""
	if rowsErr == nil && !empty && textQuality(rows) >= minQuality {
		return rows, nil
	}
	if mupdf == nil {
		return rows, rowsErr
	}

	alt, err := mupdf()
	if err != nil {
		if rowsErr != nil {
			return "", rowsErr
		}
		return rows, nil
	}
	alt = strings.TrimSpace(alt)
	if rowsErr != nil || empty || textQuality(alt) > textQuality(rows) {
		return alt, nil
	}
	return rows, nil
}

func (s *pdfSource) Render(page int, dpi float64) (image.Image, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("page %d: rasterizer unavailable for this file", page)
	}
	img, err := s.doc.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (s *pdfSource) Close() error {
	if s.doc != nil {
		return s.doc.Close()
	}
	return nil
}

// textByRow joins each text row of the page into one line, preserving the
// printed layout as closely as the library allows.
func (s *pdfSource) textByRow(page int) (text string, err error) {
	if s.reader == nil {
		return "", fmt.Errorf("PDF library could not parse this file")
	}
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("PDF library crashed: %v", rec)
		}
	}()

	p := s.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return "", err
	}
	var lines []string
	for _, row := range rows {
		var parts []string
		for _, word := range row.Content {
			parts = append(parts, word.S)
		}
		line := strings.TrimSpace(strings.Join(parts, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// textQuality returns the share of runes that are printable letters, digits,
// punctuation or whitespace. Private-use code points and replacement
// characters are what undecodable fonts produce. Empty text scores 1 so it is
// never mistaken for garbage.
func textQuality(text string) float64 {
	total, readable := 0, 0
	for _, r := range text {
		total++
		switch {
		case r == unicode.ReplacementChar, unicode.Is(unicode.Co, r):
		case unicode.IsSpace(r), unicode.IsPrint(r):
			readable++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(readable) / float64(total)
}
