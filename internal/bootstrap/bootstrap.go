package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/document-intake/internal/config"
	"github.com/kirillkom/document-intake/internal/core/ports"
	"github.com/kirillkom/document-intake/internal/core/usecase"
	"github.com/kirillkom/document-intake/internal/infrastructure/extractor"
	"github.com/kirillkom/document-intake/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-intake/internal/infrastructure/repository/sqlstore"
	"github.com/kirillkom/document-intake/internal/infrastructure/repository/unconfigured"
	"github.com/kirillkom/document-intake/internal/infrastructure/repository/yamlfile"
	"github.com/kirillkom/document-intake/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Rules      ports.RuleStore
	Publisher  ports.VerdictPublisher
	ValidateUC ports.SubmissionValidator

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	rules, closeRules, err := NewRuleStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Rules = rules
	app.onClose(closeRules)

	if cfg.NATSURL != "" {
		publisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubjectPrefix, nats.Options{
			Breaker: resilience.NewGuard(resilience.DefaultBreakerConfig()),
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init verdict publisher: %w", err)
		}
		app.Publisher = publisher
		app.onClose(publisher.Close)
	} else {
		slog.Info("verdict_events_disabled", "reason", "NATS_URL is empty")
	}

	app.ValidateUC = usecase.NewValidateSubmissionUseCase(app.Rules, extractor.NewRegistry(), app.Publisher)
	return app, nil
}

// NewRuleStore opens the rule backend selected by cfg. With nothing configured it
// returns a store that fails every lookup as a configuration fault.
func NewRuleStore(ctx context.Context, cfg config.Config) (ports.RuleStore, func(), error) {
	switch cfg.RuleStore {
	case config.RuleStoreAuto, config.RuleStoreSQL, config.RuleStoreYAML, "":
	default:
		return nil, nil, fmt.Errorf("unknown RULE_STORE %q", cfg.RuleStore)
	}

	switch cfg.ResolvedRuleStore() {
	case config.RuleStoreYAML:
		if cfg.RulesFile == "" {
			break
		}
		store, err := yamlfile.Load(cfg.RulesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load rules file: %w", err)
		}
		slog.Info("rule_store_ready", "backend", "yaml", "rules", len(store.Rules()))
		return store, nil, nil

	case config.RuleStoreSQL:
		if cfg.RuleStoreDSN == "" {
			break
		}
		db, err := sqlstore.OpenDB(cfg.RuleStoreDriver, cfg.RuleStoreDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open rule store: %w", err)
		}
		breaker := resilience.DefaultBreakerConfig()
		breaker.Enabled = cfg.RuleStoreBreakerEnabled
		breaker.OpenTimeout = cfg.RuleStoreBreakerOpenWindow
		store := sqlstore.New(db, cfg.RuleStoreDriver, resilience.NewGuard(breaker))
		if cfg.RuleStoreEnsureSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = db.Close()
				return nil, nil, fmt.Errorf("ensure rule store schema: %w", err)
			}
		}
		slog.Info("rule_store_ready", "backend", "sql", "driver", cfg.RuleStoreDriver)
		return store, func() { _ = db.Close() }, nil
	}

	slog.Warn("rule_store_unconfigured", "rule_store", cfg.RuleStore)
	return unconfigured.Store{}, nil, nil
}

func (a *App) onClose(fn func()) {
	if fn != nil {
		a.closeFns = append(a.closeFns, fn)
	}
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}
