package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
)

// buildDOCX creates a minimal .docx archive in memory.
func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`,
	}
	if documentXML != "" {
		parts["word/document.xml"] = documentXML
	}
	for name, body := range parts {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

func requireErrorContains(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil || !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error containing %q, got %v", want, err)
	}
}

const twoParagraphs = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Capstone Abstract</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">The study </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>concludes</w:t></w:r><w:r><w:tab/><w:t>here.</w:t></w:r></w:p>
</w:body>
</w:document>`

func TestExtractTextJoinsRunsAndParagraphs(t *testing.T) {
	text, err := NewExtractor().ExtractText(context.Background(), buildDOCX(t, twoParagraphs))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if text != "Capstone Abstract\n\nThe study concludes\there.\n\n" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractTextMissingDocumentPart(t *testing.T) {
	_, err := NewExtractor().ExtractText(context.Background(), buildDOCX(t, ""))
	requireErrorContains(t, err, "word/document.xml not found")
}

func TestExtractTextRejectsNonArchive(t *testing.T) {
	_, err := NewExtractor().ExtractText(context.Background(), []byte("plain text pretending to be docx"))
	requireErrorContains(t, err, "open docx archive")
}

func TestExtractTextRejectsDeepNesting(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for i := 0; i < 300; i++ {
		b.WriteString("<w:p>")
	}
	b.WriteString("<w:r><w:t>deep</w:t></w:r>")
	for i := 0; i < 300; i++ {
		b.WriteString("</w:p>")
	}
	b.WriteString("</w:body></w:document>")

	_, err := NewExtractor().ExtractText(context.Background(), buildDOCX(t, b.String()))
	requireErrorContains(t, err, "nesting depth")
}

func TestExtractTextRejectsMalformedXML(t *testing.T) {
	_, err := NewExtractor().ExtractText(context.Background(), buildDOCX(t, `<w:document><w:body><w:p>`))
	requireErrorContains(t, err, "parse word/document.xml")
}
