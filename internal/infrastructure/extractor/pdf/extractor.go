// Package pdf extracts linear text from PDF uploads.
//
// pdfcpu reads the cross-reference table first so that truncated or non-PDF
// payloads are rejected with a structural error; ledongthuc/pdf then walks the
// content streams for text.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

type Extractor struct {
	conf *model.Configuration
}

func NewExtractor() *Extractor {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Extractor{conf: conf}
}

func (e *Extractor) ExtractText(_ context.Context, data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty pdf payload")
	}
	if err := e.preflight(data); err != nil {
		return "", err
	}

	// ledongthuc/pdf panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("read pdf text: parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(raw), nil
}

func (e *Extractor) preflight(data []byte) error {
	if _, err := api.ReadContext(bytes.NewReader(data), e.conf); err != nil {
		return fmt.Errorf("read pdf structure: %w", err)
	}
	return nil
}
