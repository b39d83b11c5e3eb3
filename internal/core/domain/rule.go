package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MinWordCountSettingPrefix is the settings-store key prefix for per-type word floors.
const MinWordCountSettingPrefix = "min_word_count_"

// MinWordCountSettingKey derives the settings key holding the word floor for a document type.
func MinWordCountSettingKey(docTypeID string) string {
	return MinWordCountSettingPrefix + docTypeID
}

// RuleRecord is a document type row as read from a configuration store, before validation.
type RuleRecord struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name,omitempty" yaml:"name"`
	RequiredKeywords   []string `json:"required_keywords,omitempty" yaml:"required_keywords"`
	ForbiddenKeywords  []string `json:"forbidden_keywords,omitempty" yaml:"forbidden_keywords"`
	AllowedExtensions  []string `json:"allowed_extensions,omitempty" yaml:"allowed_extensions"`
	MaxAggregateSizeMB float64  `json:"max_total_size_mb,omitempty" yaml:"max_total_size_mb"`
}

// DocumentTypeRule is the validated rule set applied to one submission.
type DocumentTypeRule struct {
	ID                 string
	Name               string
	RequiredKeywords   []string
	ForbiddenKeywords  []string
	AllowedExtensions  []string
	MaxAggregateSizeMB float64
	MinWordCount       int
}

// NewDocumentTypeRule validates a raw record and composes it with the word floor
// read from the settings store.
func NewDocumentTypeRule(rec RuleRecord, minWordCount int) (DocumentTypeRule, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return DocumentTypeRule{}, WrapError(ErrInvalidRule, "build rule", errors.New("empty document type id"))
	}
	if math.IsNaN(rec.MaxAggregateSizeMB) || math.IsInf(rec.MaxAggregateSizeMB, 0) || rec.MaxAggregateSizeMB < 0 {
		return DocumentTypeRule{}, WrapError(ErrInvalidRule, "build rule",
			fmt.Errorf("document type %s: max total size %v is not a non-negative number", id, rec.MaxAggregateSizeMB))
	}
	if minWordCount < 0 {
		return DocumentTypeRule{}, WrapError(ErrInvalidRule, "build rule",
			fmt.Errorf("document type %s: min word count %d is negative", id, minWordCount))
	}

	return DocumentTypeRule{
		ID:                 id,
		Name:               strings.TrimSpace(rec.Name),
		RequiredKeywords:   cleanKeywords(rec.RequiredKeywords),
		ForbiddenKeywords:  cleanKeywords(rec.ForbiddenKeywords),
		AllowedExtensions:  normalizeExtensions(rec.AllowedExtensions),
		MaxAggregateSizeMB: rec.MaxAggregateSizeMB,
		MinWordCount:       minWordCount,
	}, nil
}

// AllowsExtension reports whether ext (with or without the leading dot) passes the allow-list.
// An empty allow-list accepts everything.
func (r DocumentTypeRule) AllowsExtension(ext string) bool {
	if len(r.AllowedExtensions) == 0 {
		return true
	}
	want := NormalizeExtension(ext)
	for _, allowed := range r.AllowedExtensions {
		if allowed == want {
			return true
		}
	}
	return false
}

// NormalizeExtension trims, lower-cases and strips one leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	return strings.TrimPrefix(ext, ".")
}

// blank keywords would match every corpus
func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		out = append(out, kw)
	}
	return out
}

func normalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, ext := range in {
		ext = NormalizeExtension(ext)
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
