// Package unconfigured stands in for the rule store when the server was started
// without one, so requests fail as a configuration fault instead of at startup.
package unconfigured

import (
	"context"
	"errors"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

var errNoStore = errors.New("no rule store configured")

type Store struct{}

func (Store) FetchRule(context.Context, string) (domain.RuleRecord, error) {
	return domain.RuleRecord{}, domain.WrapError(domain.ErrMisconfigured, "fetch rule", errNoStore)
}

func (Store) FetchSetting(context.Context, string) (string, bool, error) {
	return "", false, domain.WrapError(domain.ErrMisconfigured, "fetch setting", errNoStore)
}
