// Package resilience puts the rule store and the verdict bus behind circuit
// breakers and folds their failures into the domain's error kinds.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// Guard keeps one breaker per operation name, created on first use.
type Guard struct {
	cfg BreakerConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewGuard(cfg BreakerConfig) *Guard {
	return &Guard{
		cfg:      cfg.withDefaults(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Do runs fn once under the breaker for op. A nil or disabled guard calls fn
// directly. Errors come back through Unavailable, so a dependency fault or an
// open circuit surfaces as domain.ErrTemporary.
func Do[T any](ctx context.Context, g *Guard, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	if err := ctx.Err(); err != nil {
		return out, err
	}
	op = strings.TrimSpace(op)
	if op == "" {
		op = "unknown"
	}

	if g == nil || !g.cfg.Enabled {
		v, err := fn(ctx)
		if err != nil {
			return out, Unavailable(op, err)
		}
		return v, nil
	}

	_, err := g.breaker(op).Execute(func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		out = v
		return nil, nil
	})
	if err != nil {
		var zero T
		return zero, Unavailable(op, err)
	}
	return out, nil
}

// Run is Do for operations without a result.
func Run(ctx context.Context, g *Guard, op string, fn func(context.Context) error) error {
	_, err := Do(ctx, g, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Unavailable passes through errors that already carry a domain kind or come
// from the caller's context, and marks everything else temporary under op.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if hasDomainKind(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.WrapError(domain.ErrTemporary, op, err)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// tripsBreaker reports whether err says the dependency is unhealthy. A missing
// or malformed rule is an answer from a working store, and a caller that went
// away says nothing about the dependency.
func tripsBreaker(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case domain.IsKind(err, domain.ErrRuleNotFound),
		domain.IsKind(err, domain.ErrInvalidRule),
		domain.IsKind(err, domain.ErrInvalidInput):
		return false
	}
	return true
}

func hasDomainKind(err error) bool {
	for _, kind := range []error{
		domain.ErrInvalidInput,
		domain.ErrRuleNotFound,
		domain.ErrInvalidRule,
		domain.ErrMisconfigured,
		domain.ErrTemporary,
		domain.ErrExtraction,
	} {
		if domain.IsKind(err, kind) {
			return true
		}
	}
	return false
}

func (g *Guard) breaker(op string) *gobreaker.CircuitBreaker[any] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[op]; ok {
		return cb
	}
	cfg := g.cfg
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        op,
		MaxRequests: cfg.HalfOpenCalls,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= cfg.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return !tripsBreaker(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	g.breakers[op] = cb
	return cb
}
