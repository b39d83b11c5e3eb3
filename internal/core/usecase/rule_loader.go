package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

// RuleLoader composes a document type rule from two store reads: the rule row
// itself and the min_word_count_<id> setting. The word floor lives in the settings
// table so it can be tuned without touching the rule schema.
type RuleLoader struct {
	store ports.RuleStore
}

func NewRuleLoader(store ports.RuleStore) *RuleLoader {
	return &RuleLoader{store: store}
}

func (l *RuleLoader) Load(ctx context.Context, docTypeID string) (domain.DocumentTypeRule, error) {
	if l.store == nil {
		return domain.DocumentTypeRule{}, domain.WrapError(domain.ErrMisconfigured, "load rule", errors.New("rule store is not configured"))
	}

	rec, err := l.store.FetchRule(ctx, docTypeID)
	if err != nil {
		return domain.DocumentTypeRule{}, fmt.Errorf("fetch rule %q: %w", docTypeID, err)
	}

	minWords, err := l.loadMinWordCount(ctx, docTypeID)
	if err != nil {
		return domain.DocumentTypeRule{}, err
	}

	rule, err := domain.NewDocumentTypeRule(rec, minWords)
	if err != nil {
		return domain.DocumentTypeRule{}, err
	}
	return rule, nil
}

func (l *RuleLoader) loadMinWordCount(ctx context.Context, docTypeID string) (int, error) {
	key := domain.MinWordCountSettingKey(docTypeID)
	raw, found, err := l.store.FetchSetting(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("fetch setting %q: %w", key, err)
	}
	if !found {
		return 0, nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.WrapError(domain.ErrInvalidRule, "parse "+key, fmt.Errorf("value %q is not a non-negative integer", raw))
	}
	return n, nil
}
