package extractor

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/usecase"
	"github.com/kirillkom/document-intake/internal/infrastructure/extractor/pdf/pdftest"
	"github.com/kirillkom/document-intake/internal/infrastructure/repository/yamlfile"
)

type stubExtractor struct {
	text  string
	err   error
	panic bool
	calls int
}

func (s *stubExtractor) ExtractText(context.Context, []byte) (string, error) {
	s.calls++
	if s.panic {
		panic("boom")
	}
	return s.text, s.err
}

func TestRegistryDispatchesPlainText(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"notes.txt", "data.CSV", "meta.json"} {
		res, err := reg.Extract(context.Background(), domain.NewUploadedFile(name, []byte("abstract")))
		if err != nil {
			t.Fatalf("%s: Extract() error = %v", name, err)
		}
		if res.Text != "abstract" || res.NeedsExternalOCR {
			t.Fatalf("%s: unexpected result %+v", name, res)
		}
	}
}

func TestRegistryDispatchesPDF(t *testing.T) {
	doc := pdftest.Build("Abstract of the capstone thesis", "Conclusion and references")

	res, err := NewRegistry().Extract(context.Background(), domain.NewUploadedFile("Thesis.PDF", doc))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.NeedsExternalOCR {
		t.Fatalf("pdf must not be deferred to OCR")
	}
	if !strings.Contains(res.Text, "capstone thesis") || !strings.Contains(res.Text, "Conclusion and references") {
		t.Fatalf("expected both pages in text, got %q", res.Text)
	}
}

func TestRegistrySignalsOCRForImages(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"scan.png", "scan.JPG", "scan.jpeg", "scan.webp"} {
		res, err := reg.Extract(context.Background(), domain.NewUploadedFile(name, []byte{0x89, 0x50}))
		if err != nil {
			t.Fatalf("%s: Extract() error = %v", name, err)
		}
		if !res.NeedsExternalOCR || res.Text != "" {
			t.Fatalf("%s: expected OCR handoff without text, got %+v", name, res)
		}
	}
}

func TestRegistryUnknownExtensionYieldsNoText(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"slides.pptx", "README", "archive.tar.gz"} {
		res, err := reg.Extract(context.Background(), domain.NewUploadedFile(name, []byte("capstone conclusion")))
		if err != nil {
			t.Fatalf("%s: Extract() error = %v", name, err)
		}
		if !reflect.DeepEqual(res, domain.ExtractionResult{}) {
			t.Fatalf("%s: expected empty result, got %+v", name, res)
		}
	}
}

func TestRegistryWrapsParserErrors(t *testing.T) {
	reg := &Registry{byExt: map[string]ContentExtractor{}}
	reg.Register("pdf", &stubExtractor{err: errors.New("xref table broken")})

	_, err := reg.Extract(context.Background(), domain.NewUploadedFile("thesis.pdf", []byte("%PDF")))
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if !strings.Contains(err.Error(), "thesis.pdf") || !strings.Contains(err.Error(), "xref table broken") {
		t.Fatalf("error should name file and cause, got %v", err)
	}
}

func TestRegistryRecoversParserPanics(t *testing.T) {
	reg := &Registry{byExt: map[string]ContentExtractor{}}
	reg.Register(".xlsx", &stubExtractor{panic: true})

	res, err := reg.Extract(context.Background(), domain.NewUploadedFile("grades.xlsx", []byte("PK")))
	if !domain.IsKind(err, domain.ErrExtraction) || !strings.Contains(err.Error(), "parser panic: boom") {
		t.Fatalf("expected recovered panic as ErrExtraction, got %v", err)
	}
	if res.Text != "" {
		t.Fatalf("expected no text, got %q", res.Text)
	}
}

func TestRegistryDerivesMissingExtension(t *testing.T) {
	stub := &stubExtractor{text: "derived"}
	reg := &Registry{byExt: map[string]ContentExtractor{}}
	reg.Register(".TXT", stub)

	res, err := reg.Extract(context.Background(), domain.UploadedFile{Name: "Notes.Txt", Content: []byte("x")})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Text != "derived" || stub.calls != 1 {
		t.Fatalf("unexpected result %+v after %d calls", res, stub.calls)
	}
	if !reg.Supports("txt") || reg.Supports(".pptx") {
		t.Fatalf("unexpected Supports() answers")
	}
}

const pdfThesisRules = `
rules:
  - id: thesis
    required_keywords: [abstract, conclusion]
    forbidden_keywords: [plagiarism]
    allowed_extensions: [pdf]
`

func TestValidateSubmissionOverPDFText(t *testing.T) {
	store, err := yamlfile.Parse(strings.NewReader(pdfThesisRules))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	uc := usecase.NewValidateSubmissionUseCase(store, NewRegistry(), nil)

	cases := []struct {
		name      string
		pages     []string
		pass      bool
		missing   []string
		forbidden []string
	}{
		{
			name:      "all keywords present",
			pages:     []string{"Abstract of the capstone thesis", "Conclusion and references"},
			pass:      true,
			missing:   []string{},
			forbidden: []string{},
		},
		{
			name:      "conclusion missing",
			pages:     []string{"Abstract of the capstone thesis"},
			pass:      false,
			missing:   []string{"conclusion"},
			forbidden: []string{},
		},
		{
			name:      "forbidden phrase on second page",
			pages:     []string{"Abstract and conclusion", "Plagiarism statement"},
			pass:      false,
			missing:   []string{},
			forbidden: []string{"plagiarism"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict, err := uc.Validate(context.Background(), "thesis", []domain.UploadedFile{
				domain.NewUploadedFile("thesis.pdf", pdftest.Build(tc.pages...)),
			})
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if verdict.Pass == nil || *verdict.Pass != tc.pass {
				t.Fatalf("expected pass=%v, got %+v", tc.pass, verdict)
			}
			if !reflect.DeepEqual(verdict.MissingKeywords, tc.missing) {
				t.Fatalf("missing = %v, want %v", verdict.MissingKeywords, tc.missing)
			}
			if !reflect.DeepEqual(verdict.FoundForbiddenKeywords, tc.forbidden) {
				t.Fatalf("forbidden = %v, want %v", verdict.FoundForbiddenKeywords, tc.forbidden)
			}
			if !reflect.DeepEqual(verdict.ProcessedFiles, []string{"thesis.pdf"}) {
				t.Fatalf("processed = %v", verdict.ProcessedFiles)
			}
			if verdict.WordCount == 0 || verdict.ExtractedLength == 0 {
				t.Fatalf("expected counted pdf text, got %+v", verdict)
			}
		})
	}
}
