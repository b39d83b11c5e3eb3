package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrRuleNotFound  = errors.New("document type rule not found")
	ErrInvalidRule   = errors.New("invalid document type rule")
	ErrMisconfigured = errors.New("server misconfigured")
	ErrTemporary     = errors.New("temporary failure")
	ErrExtraction    = errors.New("text extraction failed")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
