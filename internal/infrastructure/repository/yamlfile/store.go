// Package yamlfile serves rules and settings from a YAML document:
//
//	rules:
//	  - id: thesis
//	    required_keywords: [abstract, conclusion]
//	    allowed_extensions: [pdf, docx]
//	    max_total_size_mb: 10
//	settings:
//	  min_word_count_thesis: "250"
package yamlfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

type document struct {
	Rules    []domain.RuleRecord `yaml:"rules"`
	Settings map[string]string   `yaml:"settings"`
}

// Store is read-only; the document is parsed once at construction.
type Store struct {
	rules    map[string]domain.RuleRecord
	settings map[string]string
}

func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	store, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return store, nil
}

func Parse(r io.Reader) (*Store, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, domain.WrapError(domain.ErrMisconfigured, "parse rules yaml", err)
	}

	store := &Store{
		rules:    make(map[string]domain.RuleRecord, len(doc.Rules)),
		settings: make(map[string]string, len(doc.Settings)),
	}
	for i, rec := range doc.Rules {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			return nil, domain.WrapError(domain.ErrMisconfigured, "parse rules yaml", fmt.Errorf("rule #%d has no id", i+1))
		}
		if _, dup := store.rules[id]; dup {
			return nil, domain.WrapError(domain.ErrMisconfigured, "parse rules yaml", fmt.Errorf("duplicate rule id %q", id))
		}
		rec.ID = id
		store.rules[id] = rec
	}
	for k, v := range doc.Settings {
		store.settings[k] = v
	}
	return store, nil
}

func (s *Store) FetchRule(_ context.Context, docTypeID string) (domain.RuleRecord, error) {
	rec, ok := s.rules[docTypeID]
	if !ok {
		return domain.RuleRecord{}, domain.WrapError(domain.ErrRuleNotFound, "fetch rule", fmt.Errorf("document type %q", docTypeID))
	}
	return rec, nil
}

func (s *Store) FetchSetting(_ context.Context, key string) (string, bool, error) {
	v, ok := s.settings[key]
	return v, ok, nil
}

// Rules returns every configured rule ordered by id.
func (s *Store) Rules() []domain.RuleRecord {
	out := make([]domain.RuleRecord, 0, len(s.rules))
	for _, rec := range s.rules {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Settings() map[string]string {
	out := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out
}
