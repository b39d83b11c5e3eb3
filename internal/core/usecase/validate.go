package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

// corpusSeparator follows every file's text in the combined corpus.
const corpusSeparator = "\n\n"

type ValidateSubmissionUseCase struct {
	rules     *RuleLoader
	extractor ports.TextExtractor
	events    ports.VerdictPublisher
	now       func() time.Time
}

func NewValidateSubmissionUseCase(
	store ports.RuleStore,
	extractor ports.TextExtractor,
	events ports.VerdictPublisher,
) *ValidateSubmissionUseCase {
	return &ValidateSubmissionUseCase{
		rules:     NewRuleLoader(store),
		extractor: extractor,
		events:    events,
		now:       time.Now,
	}
}

func (uc *ValidateSubmissionUseCase) Validate(
	ctx context.Context,
	docTypeID string,
	files []domain.UploadedFile,
) (*domain.ValidationVerdict, error) {
	docTypeID = strings.TrimSpace(docTypeID)
	if docTypeID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate submission", errors.New("doc_type_id is required"))
	}
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate submission", errors.New("at least one file is required"))
	}
	if uc.extractor == nil {
		return nil, domain.WrapError(domain.ErrMisconfigured, "validate submission", errors.New("text extractor is not configured"))
	}

	rule, err := uc.rules.Load(ctx, docTypeID)
	if err != nil {
		return nil, fmt.Errorf("load rule: %w", err)
	}

	verdict := uc.run(ctx, rule, files)

	slog.Info("submission_validated",
		"doc_type_id", rule.ID,
		"outcome", string(verdict.Outcome()),
		"files", len(files),
		"processed_files", len(verdict.ProcessedFiles),
		"word_count", verdict.WordCount,
		"error", verdict.Error,
	)
	uc.publish(ctx, rule.ID, verdict)
	return verdict, nil
}

// run walks the batch in input order and stops at the first file-level failure.
func (uc *ValidateSubmissionUseCase) run(
	ctx context.Context,
	rule domain.DocumentTypeRule,
	files []domain.UploadedFile,
) *domain.ValidationVerdict {
	processed := make([]string, 0, len(files))
	var corpus strings.Builder
	var totalBytes int64

	for _, file := range files {
		if file.Extension == "" {
			file.Extension = domain.ExtensionOf(file.Name)
		}

		if domain.RequiresOCR(file.Extension) {
			return domain.DeferredVerdict(processed)
		}
		if msg, ok := checkExtension(rule, file); !ok {
			return domain.FailedVerdict(msg, processed)
		}

		result, err := uc.extractor.Extract(ctx, file)
		if err != nil {
			slog.Warn("extraction_failed",
				"doc_type_id", rule.ID,
				"file", file.Name,
				"extension", file.Extension,
				"error", err,
			)
			return domain.FailedVerdict(
				fmt.Sprintf("Failed to extract text from %s: %s", file.Name, extractionCause(err)),
				processed,
			)
		}
		if result.NeedsExternalOCR {
			return domain.DeferredVerdict(processed)
		}

		corpus.WriteString(result.Text)
		corpus.WriteString(corpusSeparator)
		totalBytes += file.SizeBytes
		processed = append(processed, file.Name)
	}

	if msg, ok := checkAggregateSize(rule, totalBytes); !ok {
		return domain.FailedVerdict(msg, processed)
	}

	return Evaluate(rule, corpus.String(), processed)
}

func (uc *ValidateSubmissionUseCase) publish(ctx context.Context, docTypeID string, verdict *domain.ValidationVerdict) {
	if uc.events == nil {
		return
	}
	event := domain.VerdictEvent{
		ID:             uuid.NewString(),
		DocTypeID:      docTypeID,
		Outcome:        verdict.Outcome(),
		FileNames:      verdict.ProcessedFiles,
		WordCount:      verdict.WordCount,
		NeedsServerOCR: verdict.NeedsServerOCR,
		Error:          verdict.Error,
		ValidatedAt:    uc.now().UTC(),
	}
	if err := uc.events.PublishVerdict(ctx, event); err != nil {
		slog.Warn("verdict_publish_failed", "doc_type_id", docTypeID, "event_id", event.ID, "error", err)
	}
}

// extractionCause strips the ErrExtraction wrapper text so the message reads as
// the parser's own complaint.
func extractionCause(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, domain.ErrExtraction.Error()+": "); idx >= 0 {
		return msg[idx+len(domain.ErrExtraction.Error())+2:]
	}
	return msg
}
