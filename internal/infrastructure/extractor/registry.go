// Package extractor dispatches uploaded files to a format-specific text extractor
// by extension.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/infrastructure/extractor/docx"
	"github.com/kirillkom/document-intake/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/document-intake/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/document-intake/internal/infrastructure/extractor/xlsx"
)

// ContentExtractor turns raw file bytes into plain text.
type ContentExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// Registry implements ports.TextExtractor.
//
// Unknown extensions yield no text and no error. Word counts and keyword checks
// downstream depend on this, so it is kept as an explicit policy rather than an
// accident of the switch.
type Registry struct {
	byExt map[string]ContentExtractor
}

// NewRegistry returns a registry with the built-in formats registered.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]ContentExtractor)}

	text := plaintext.NewExtractor()
	r.Register(".txt", text)
	r.Register(".csv", text)
	r.Register(".json", text)
	r.Register(".pdf", pdf.NewExtractor())
	r.Register(".docx", docx.NewExtractor())
	r.Register(".xlsx", xlsx.NewExtractor())
	return r
}

// Register binds ext (with or without the leading dot) to an extractor.
func (r *Registry) Register(ext string, ex ContentExtractor) {
	r.byExt["."+domain.NormalizeExtension(ext)] = ex
}

// Supports reports whether ext has a registered extractor.
func (r *Registry) Supports(ext string) bool {
	_, ok := r.byExt["."+domain.NormalizeExtension(ext)]
	return ok
}

func (r *Registry) Extract(ctx context.Context, file domain.UploadedFile) (result domain.ExtractionResult, err error) {
	ext := strings.ToLower(file.Extension)
	if ext == "" {
		ext = domain.ExtensionOf(file.Name)
	}

	if domain.RequiresOCR(ext) {
		return domain.ExtractionResult{NeedsExternalOCR: true}, nil
	}

	ex, ok := r.byExt[ext]
	if !ok {
		slog.Debug("extractor_unknown_extension", "file", file.Name, "extension", ext)
		return domain.ExtractionResult{}, nil
	}

	defer func() {
		if p := recover(); p != nil {
			result = domain.ExtractionResult{}
			err = domain.WrapError(domain.ErrExtraction, "extract "+file.Name, fmt.Errorf("parser panic: %v", p))
		}
	}()

	text, err := ex.ExtractText(ctx, file.Content)
	if err != nil {
		return domain.ExtractionResult{}, domain.WrapError(domain.ErrExtraction, "extract "+file.Name, err)
	}
	return domain.ExtractionResult{Text: text}, nil
}
