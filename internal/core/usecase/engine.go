package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// CountWords splits text on runs of whitespace. Empty pieces at either end count,
// so "a b\n\n" is three words; text that is blank after trimming is zero.
func CountWords(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return len(whitespaceRuns.Split(text, -1))
}

// UTF16Length counts text in UTF-16 code units, so a character outside the
// Basic Multilingual Plane counts as two.
func UTF16Length(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}

// Evaluate runs the word-count floor and keyword checks over the combined corpus.
// The word floor short-circuits: when it fails, keyword lists are left nil.
func Evaluate(rule domain.DocumentTypeRule, corpus string, processed []string) *domain.ValidationVerdict {
	wordCount := CountWords(corpus)
	extractedLength := UTF16Length(corpus)

	if rule.MinWordCount > 0 && wordCount < rule.MinWordCount {
		verdict := domain.FailedVerdict(
			fmt.Sprintf("Word count %d is below the required minimum of %d", wordCount, rule.MinWordCount),
			processed,
		)
		verdict.WordCount = wordCount
		verdict.MinWordCount = rule.MinWordCount
		verdict.ExtractedLength = extractedLength
		return verdict
	}

	lowered := strings.ToLower(corpus)
	verdict := &domain.ValidationVerdict{
		MissingKeywords:        absentKeywords(lowered, rule.RequiredKeywords),
		FoundForbiddenKeywords: presentKeywords(lowered, rule.ForbiddenKeywords),
		WordCount:              wordCount,
		MinWordCount:           rule.MinWordCount,
		ExtractedLength:        extractedLength,
		ProcessedFiles:         append([]string{}, processed...),
	}
	verdict.Decide()
	return verdict
}

func absentKeywords(lowered string, keywords []string) []string {
	out := []string{}
	for _, kw := range keywords {
		if !strings.Contains(lowered, strings.ToLower(kw)) {
			out = append(out, kw)
		}
	}
	return out
}

func presentKeywords(lowered string, keywords []string) []string {
	out := []string{}
	for _, kw := range keywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			out = append(out, kw)
		}
	}
	return out
}
