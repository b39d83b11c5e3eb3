package ports

import (
	"context"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// RuleStore is the read-only configuration store holding document type rules and
// the generic key/value settings table.
type RuleStore interface {
	FetchRule(ctx context.Context, docTypeID string) (domain.RuleRecord, error)
	FetchSetting(ctx context.Context, key string) (value string, found bool, err error)
}

// TextExtractor turns one uploaded file into text or an OCR handoff.
type TextExtractor interface {
	Extract(ctx context.Context, file domain.UploadedFile) (domain.ExtractionResult, error)
}

// VerdictPublisher announces finished validations to downstream systems.
type VerdictPublisher interface {
	PublishVerdict(ctx context.Context, event domain.VerdictEvent) error
}
