package ports

import (
	"context"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// SubmissionValidator is the inbound contract for validating one submission batch.
// A returned error means the validator could not run; business failures come back
// as a verdict with Pass=false.
type SubmissionValidator interface {
	Validate(ctx context.Context, docTypeID string, files []domain.UploadedFile) (*domain.ValidationVerdict, error)
}
