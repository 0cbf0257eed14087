package extractor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/config"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/ocr"
)

type fakePage struct {
	text      string
	nativeErr error
	renderErr error
}

type fakeSource struct {
	pages    []fakePage
	rendered []int
	closed   bool
}

func (s *fakeSource) NumPage() int { return len(s.pages) }

func (s *fakeSource) NativeText(page int) (string, error) {
	p := s.pages[page-1]
	return p.text, p.nativeErr
}

func (s *fakeSource) Render(page int, dpi float64) (image.Image, error) {
	s.rendered = append(s.rendered, page)
	if err := s.pages[page-1].renderErr; err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeEngine struct {
	text  string
	err   error
	calls []ocr.Input
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Recognize(_ context.Context, in ocr.Input) (string, error) {
	e.calls = append(e.calls, in)
	return e.text, e.err
}

func opener(src *fakeSource) Opener {
	return func([]byte) (PageSource, error) { return src, nil }
}

func pdfDoc() models.Document {
	return models.Document{Name: "statement.pdf", Kind: models.KindPDF, Data: []byte("%PDF-1.7")}
}

func testOCRConfig() config.OCR {
	cfg := config.Default().OCR
	cfg.Languages = []string{"chi_sim", "eng", "msa"}
	return cfg
}

func TestExtractNativePagesSkipOCR(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{text: "Customer Name: ALICE TAN"}, {text: "01/03 DEPOSIT 500.00"}}}
	engine := &fakeEngine{text: "should not be used"}
	ext := New(testOCRConfig(), engine, WithOpener(opener(src)))

	got, err := ext.Extract(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(engine.calls) != 0 {
		t.Errorf("expected no OCR calls, got %d", len(engine.calls))
	}
	if got.Text != "Customer Name: ALICE TAN\n01/03 DEPOSIT 500.00\n" {
		t.Errorf("unexpected text %q", got.Text)
	}
	if !src.closed {
		t.Error("expected page source to be closed")
	}
}

func TestExtractOCRFallbackPerPage(t *testing.T) {
	src := &fakeSource{pages: []fakePage{
		{text: "Customer Name: ALICE TAN\n01/03 DEPOSIT 500.00"},
		{text: "  \n "},
	}}
	engine := &fakeEngine{text: "02/03 ATM WITHDRAWAL 100.00"}
	ext := New(testOCRConfig(), engine, WithOpener(opener(src)))

	got, err := ext.Extract(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(engine.calls) != 1 {
		t.Fatalf("expected exactly one OCR call, got %d", len(engine.calls))
	}
	call := engine.calls[0]
	if call.Page != 2 {
		t.Errorf("expected OCR on page 2, got %d", call.Page)
	}
	if strings.Join(call.Languages, "+") != "chi_sim+eng+msa" {
		t.Errorf("expected all languages in one pass, got %v", call.Languages)
	}
	if call.DPI != 300 {
		t.Errorf("expected DPI 300, got %d", call.DPI)
	}

	native := strings.Index(got.Text, "01/03 DEPOSIT")
	ocred := strings.Index(got.Text, "02/03 ATM WITHDRAWAL")
	if native < 0 || ocred < 0 || ocred < native {
		t.Errorf("expected OCR text after native text, got %q", got.Text)
	}
	if got.Pages[0].Source != models.SourceNative || got.Pages[1].Source != models.SourceOCR {
		t.Errorf("unexpected page sources: %+v", got.Pages)
	}
	if got.OCRPages() != 1 {
		t.Errorf("expected 1 OCR page, got %d", got.OCRPages())
	}
}

func TestExtractPageFailureContinues(t *testing.T) {
	src := &fakeSource{pages: []fakePage{
		{text: "", renderErr: errors.New("broken image stream")},
		{text: "03/03 TRANSFER 20.00"},
	}}
	ext := New(testOCRConfig(), &fakeEngine{}, WithOpener(opener(src)))

	got, err := ext.Extract(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("page failure must not fail the document: %v", err)
	}
	failures := got.Failures()
	if len(failures) != 1 || failures[0].Page != 1 {
		t.Fatalf("expected page 1 to fail, got %+v", failures)
	}
	var pageErr *models.PageError
	if !errors.As(failures[0].Err, &pageErr) || pageErr.Stage != "ocr" {
		t.Errorf("expected an ocr PageError, got %v", failures[0].Err)
	}
	if !strings.Contains(got.Text, "03/03 TRANSFER 20.00") {
		t.Errorf("expected later page text to survive, got %q", got.Text)
	}
}

func TestExtractNativeErrorRecoveredByOCR(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{nativeErr: errors.New("bad content stream")}}}
	engine := &fakeEngine{text: "04/03 CHEQUE 75.00"}
	ext := New(testOCRConfig(), engine, WithOpener(opener(src)))

	got, err := ext.Extract(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Pages[0].Source != models.SourceOCR {
		t.Errorf("expected OCR to recover the page, got %s", got.Pages[0].Source)
	}
}

func TestExtractWithoutEngine(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{text: ""}}}
	ext := New(testOCRConfig(), nil, WithOpener(opener(src)))

	got, err := ext.Extract(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Failures()) != 1 || !errors.Is(got.Failures()[0].Err, ErrNoEngine) {
		t.Errorf("expected ErrNoEngine failure, got %+v", got.Pages)
	}
	if !got.IsEmpty() {
		t.Errorf("expected empty text, got %q", got.Text)
	}
}

func TestExtractUnreadablePDF(t *testing.T) {
	ext := New(testOCRConfig(), &fakeEngine{}, WithOpener(func([]byte) (PageSource, error) {
		return nil, errors.New("xref table not found")
	}))

	_, err := ext.Extract(context.Background(), pdfDoc())
	if !errors.Is(err, models.ErrDocumentUnreadable) {
		t.Fatalf("expected ErrDocumentUnreadable, got %v", err)
	}
	if !strings.Contains(err.Error(), "statement.pdf") {
		t.Errorf("expected document name in error, got %q", err)
	}
}

func TestOpenPDFRejectsGarbage(t *testing.T) {
	_, err := OpenPDF([]byte("this is not a pdf"))
	if !errors.Is(err, models.ErrDocumentUnreadable) {
		t.Fatalf("expected ErrDocumentUnreadable, got %v", err)
	}
}

func TestExtractCancelled(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{text: "x"}}}
	ext := New(testOCRConfig(), nil, WithOpener(opener(src)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ext.Extract(ctx, pdfDoc()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExtractDOCX(t *testing.T) {
	d := docx.New().WithDefaultTheme()
	d.AddParagraph().AddText("Account Name: BOB LEE")
	d.AddParagraph().AddText("01/04 SALARY 3000.00")
	tbl := d.AddTable(1, 2, 0, nil)
	tbl.TableRows[0].TableCells[0].AddParagraph().AddText("02/04 GROCER")
	tbl.TableRows[0].TableCells[1].AddParagraph().AddText("45.10")

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("building fixture: %v", err)
	}

	ext := New(testOCRConfig(), nil)
	got, err := ext.Extract(context.Background(), models.Document{Name: "s.docx", Kind: models.KindDOCX, Data: buf.Bytes()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Account Name: BOB LEE\n01/04 SALARY 3000.00\n02/04 GROCER  45.10"
	if got.Text != want {
		t.Errorf("got %q, want %q", got.Text, want)
	}
}

func TestExtractUnreadableDOCX(t *testing.T) {
	ext := New(testOCRConfig(), nil)
	_, err := ext.Extract(context.Background(), models.Document{Name: "bad.docx", Kind: models.KindDOCX, Data: []byte("PK\x03\x04 truncated")})
	if !errors.Is(err, models.ErrDocumentUnreadable) {
		t.Fatalf("expected ErrDocumentUnreadable, got %v", err)
	}
}

func TestExtractUnknownKind(t *testing.T) {
	ext := New(testOCRConfig(), nil)
	_, err := ext.Extract(context.Background(), models.Document{Name: "notes.txt", Kind: "txt"})
	if !errors.Is(err, models.ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestTextQuality(t *testing.T) {
	tests := []struct {
		name string
		text string
		min  float64
		max  float64
	}{
		{"english", "Opening balance 1,000.00", 1, 1},
		{"chinese", "客户名称：陈大文", 1, 1},
		{"private use garbage", "a", 0, 0.3},
		{"empty", "", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := textQuality(tt.text)
			if q < tt.min || q > tt.max {
				t.Errorf("textQuality(%q) = %v, want in [%v, %v]", tt.text, q, tt.min, tt.max)
			}
		})
	}
}

func TestChooseNativeText(t *testing.T) {
	garbage := "\ue000\ue001\ue002\ue003 1"
	libErr := errors.New("malformed content stream")

	tests := []struct {
		name      string
		rows      string
		rowsErr   error
		mupdf     string
		mupdfErr  error
		noMuPDF   bool
		want      string
		wantErr   bool
		wantCalls int
	}{
		{name: "readable rows", rows: "Customer: Alice", mupdf: "other", want: "Customer: Alice"},
		{name: "empty rows use MuPDF", rows: "", mupdf: "  Customer: Alice\n", want: "Customer: Alice", wantCalls: 1},
		{name: "blank rows use MuPDF", rows: " \n ", mupdf: "ABC SDN BHD", want: "ABC SDN BHD", wantCalls: 1},
		{name: "both empty", rows: "", mupdf: "", want: "", wantCalls: 1},
		{name: "garbage rows use MuPDF", rows: garbage, mupdf: "Transfer 10.00", want: "Transfer 10.00", wantCalls: 1},
		{name: "garbage everywhere keeps rows", rows: garbage, mupdf: garbage + garbage, want: garbage, wantCalls: 1},
		{name: "rows error uses MuPDF", rowsErr: libErr, mupdf: "Transfer 10.00", want: "Transfer 10.00", wantCalls: 1},
		{name: "both fail", rowsErr: libErr, mupdfErr: errors.New("mupdf"), wantErr: true, wantCalls: 1},
		{name: "MuPDF error keeps empty rows", rows: "", mupdfErr: errors.New("mupdf"), want: "", wantCalls: 1},
		{name: "no MuPDF", rows: "", noMuPDF: true, want: ""},
		{name: "no MuPDF with rows error", rowsErr: libErr, noMuPDF: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			var mupdf func() (string, error)
			if !tt.noMuPDF {
				mupdf = func() (string, error) {
					calls++
					return tt.mupdf, tt.mupdfErr
				}
			}

			got, err := chooseNativeText(tt.rows, tt.rowsErr, mupdf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if calls != tt.wantCalls {
				t.Errorf("MuPDF consulted %d times, want %d", calls, tt.wantCalls)
			}
		})
	}
}
