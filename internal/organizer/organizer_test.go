package organizer_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/config"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/organizer"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/parser"
)

// MockExtractor returns canned text per document name.
type MockExtractor struct {
	mu     sync.Mutex
	texts  map[string]*models.ExtractedText
	errs   map[string]error
	called []string
}

func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		texts: make(map[string]*models.ExtractedText),
		errs:  make(map[string]error),
	}
}

func (m *MockExtractor) WithText(name string, lines ...string) *MockExtractor {
	text := strings.Join(lines, "\n") + "\n"
	m.texts[name] = &models.ExtractedText{
		Document: name,
		Kind:     models.KindPDF,
		Text:     text,
		Pages:    []models.PageResult{{Page: 1, Source: models.SourceNative, Text: text}},
	}
	return m
}

func (m *MockExtractor) Extract(_ context.Context, doc models.Document) (*models.ExtractedText, error) {
	m.mu.Lock()
	m.called = append(m.called, doc.Name)
	m.mu.Unlock()
	if err, ok := m.errs[doc.Name]; ok {
		return nil, err
	}
	if t, ok := m.texts[doc.Name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%s: %w", doc.Name, models.ErrDocumentUnreadable)
}

func doc(name string) models.Document {
	return models.Document{Name: name, Kind: models.KindPDF}
}

func warningKinds(ws []models.Warning) []models.WarningKind {
	var out []models.WarningKind
	for _, w := range ws {
		out = append(out, w.Kind)
	}
	return out
}

var _ = Describe("Organizer", func() {
	var (
		ext *MockExtractor
		cls *parser.Classifier
		org *organizer.Organizer
		ctx context.Context
	)

	BeforeEach(func() {
		lex := config.DefaultLexicon()
		lex.ExclusionPhrases = []string{"cash deposit"}
		var err error
		cls, err = parser.New(lex)
		Expect(err).NotTo(HaveOccurred())

		ext = NewMockExtractor()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		org = organizer.New(ext, cls, logger)
		ctx = context.Background()
	})

	It("merges the same entity across documents in document order", func() {
		ext.WithText("jan.pdf", "ABC SDN BHD", "01/01 Transfer 100.00", "02/01 Cheque 20.00").
			WithText("feb.pdf", "ABC SDN BHD", "01/02 Transfer 300.00")

		res := org.Process(ctx, []models.Document{doc("jan.pdf"), doc("feb.pdf")})

		Expect(res.Grouping.Names()).To(Equal([]string{"ABC SDN BHD"}))
		Expect(res.Grouping.Lines("ABC SDN BHD")).To(Equal([]string{
			"01/01 Transfer 100.00",
			"02/01 Cheque 20.00",
			"01/02 Transfer 300.00",
		}))
		Expect(res.Warnings).To(BeEmpty())
		Expect(res.Summary).To(Equal(models.Summary{Documents: 2, Entities: 1, Transactions: 3}))
		Expect(res.Reportable()).To(BeTrue())
	})

	It("does not carry the current entity from one document into the next", func() {
		ext.WithText("a.pdf", "Customer: Alice", "01/01 A 1.00").
			WithText("b.pdf", "01/02 orphan 2.00", "Customer: Bob", "02/02 B 3.00")

		res := org.Process(ctx, []models.Document{doc("a.pdf"), doc("b.pdf")})

		Expect(res.Grouping.Lines("Alice")).To(Equal([]string{"01/01 A 1.00"}))
		Expect(res.Grouping.Lines("Bob")).To(Equal([]string{"02/02 B 3.00"}))
	})

	It("continues after an unreadable document", func() {
		ext.WithText("good.pdf", "Customer: Alice", "01/01 Deposit 5.00")

		res := org.Process(ctx, []models.Document{doc("broken.pdf"), doc("good.pdf")})

		Expect(ext.called).To(Equal([]string{"broken.pdf", "good.pdf"}))
		Expect(res.Grouping.Lines("Alice")).To(Equal([]string{"01/01 Deposit 5.00"}))
		Expect(warningKinds(res.Warnings)).To(Equal([]models.WarningKind{models.WarnUnreadable}))
		Expect(res.Warnings[0].Document).To(Equal("broken.pdf"))
		Expect(res.Summary.Failed).To(Equal(1))
		Expect(res.Documents[0].Error).To(ContainSubstring("document unreadable"))
	})

	It("explains unsupported file types", func() {
		ext.errs["notes.txt"] = &models.KindError{Name: "notes.txt"}

		res := org.Process(ctx, []models.Document{doc("notes.txt")})

		Expect(res.Warnings).To(HaveLen(1))
		Expect(res.Warnings[0].Message).To(ContainSubstring("unsupported"))
		Expect(res.Reportable()).To(BeFalse())
	})

	It("warns about empty extraction and produces no report for that document", func() {
		ext.texts["scan.pdf"] = &models.ExtractedText{
			Document: "scan.pdf",
			Kind:     models.KindPDF,
			Text:     "\n\n",
			Pages:    []models.PageResult{{Page: 1, Source: models.SourceOCR}},
		}

		res := org.Process(ctx, []models.Document{doc("scan.pdf")})

		Expect(warningKinds(res.Warnings)).To(Equal([]models.WarningKind{models.WarnEmptyExtraction}))
		Expect(res.Grouping.Len()).To(Equal(0))
		Expect(res.Summary.OCRPages).To(Equal(1))
		Expect(res.Reportable()).To(BeFalse())
	})

	It("warns separately when text yields no entities", func() {
		ext.WithText("numbers.pdf", "01/01 100.00", "02/01 200.00")

		res := org.Process(ctx, []models.Document{doc("numbers.pdf")})

		Expect(warningKinds(res.Warnings)).To(Equal([]models.WarningKind{models.WarnEmptyGrouping}))
		Expect(res.Reportable()).To(BeTrue())
		Expect(res.Documents[0].Preview).To(ContainSubstring("01/01 100.00"))
	})

	It("reports failed pages as warnings without dropping the document", func() {
		ext.texts["mixed.pdf"] = &models.ExtractedText{
			Document: "mixed.pdf",
			Kind:     models.KindPDF,
			Text:     "Customer: Alice\n01/01 Transfer 9.00\n\n",
			Pages: []models.PageResult{
				{Page: 1, Source: models.SourceNative, Text: "Customer: Alice\n01/01 Transfer 9.00"},
				{Page: 2, Source: models.SourceFailed, Err: &models.PageError{Page: 2, Stage: "ocr", Err: errors.New("boom")}},
			},
		}

		res := org.Process(ctx, []models.Document{doc("mixed.pdf")})

		Expect(warningKinds(res.Warnings)).To(Equal([]models.WarningKind{models.WarnPageFailure}))
		Expect(res.Warnings[0].Page).To(Equal(2))
		Expect(res.Grouping.Lines("Alice")).To(Equal([]string{"01/01 Transfer 9.00"}))
	})

	It("never emits excluded lines", func() {
		ext.WithText("s.pdf", "ABC SDN BHD", "Cash Deposit 500.00", "Transfer 200.00")

		res := org.Process(ctx, []models.Document{doc("s.pdf")})

		Expect(res.Grouping.Lines("ABC SDN BHD")).To(Equal([]string{"Transfer 200.00"}))
	})

	Context("with tracing and a short preview", func() {
		BeforeEach(func() {
			org = organizer.New(ext, cls, nil, organizer.WithTrace(true), organizer.WithPreviewLength(8))
		})

		It("records the classification of each line", func() {
			ext.WithText("t.pdf", "Customer: Alice", "01/01 Transfer 1.00")

			res := org.Process(ctx, []models.Document{doc("t.pdf")})

			Expect(res.Documents[0].Trace).To(HaveLen(2))
			Expect(res.Documents[0].Trace[1].Entity).To(Equal("Alice"))
			Expect(res.Documents[0].Preview).To(Equal("Customer"))
		})
	})

	It("stops when the context is cancelled", func() {
		ext.WithText("a.pdf", "Customer: Alice", "1 a")
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		res := org.Process(cancelled, []models.Document{doc("a.pdf")})

		Expect(ext.called).To(BeEmpty())
		Expect(res.Documents).To(BeEmpty())
	})

	Describe("ProcessBatches", func() {
		It("merges independent batches in batch order", func() {
			ext.WithText("b1.pdf", "ABC SDN BHD", "b1 line 1").
				WithText("b2.pdf", "Customer: Bob", "b2 line 2", "ABC SDN BHD", "b2 line 3").
				WithText("b3.pdf", "ABC SDN BHD", "b3 line 4")

			res, err := organizer.ProcessBatches(ctx, org, [][]models.Document{
				{doc("b1.pdf")},
				{doc("b2.pdf")},
				{doc("b3.pdf")},
			}, 2)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Grouping.Names()).To(Equal([]string{"ABC SDN BHD", "Bob"}))
			Expect(res.Grouping.Lines("ABC SDN BHD")).To(Equal([]string{"b1 line 1", "b2 line 3", "b3 line 4"}))
			Expect(res.Grouping.Lines("Bob")).To(Equal([]string{"b2 line 2"}))
			Expect(res.Summary.Documents).To(Equal(3))
			Expect(res.Documents[1].Name).To(Equal("b2.pdf"))
		})

		It("returns the context error when cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := organizer.ProcessBatches(cancelled, org, [][]models.Document{{doc("x.pdf")}}, 1)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
