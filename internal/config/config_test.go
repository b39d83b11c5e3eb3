package config

import (
	"testing"
	"time"
)

func clearRuleStoreEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RULE_STORE", "RULE_STORE_DRIVER", "RULE_STORE_DSN", "RULES_FILE",
		"RULE_STORE_BREAKER_ENABLED", "RULE_STORE_BREAKER_OPEN_SECONDS",
		"MAX_UPLOAD_BYTES", "API_RATE_LIMIT_RPS", "NATS_URL", "NATS_SUBJECT_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearRuleStoreEnv(t)

	cfg := Load()
	if cfg.RuleStore != RuleStoreAuto {
		t.Fatalf("expected rule store auto, got %q", cfg.RuleStore)
	}
	if !cfg.RuleStoreBreakerEnabled {
		t.Fatalf("expected breaker enabled by default")
	}
	if cfg.RuleStoreBreakerOpenWindow != 30*time.Second {
		t.Fatalf("expected 30s open window, got %s", cfg.RuleStoreBreakerOpenWindow)
	}
	if cfg.MaxUploadBytes != 50<<20 {
		t.Fatalf("expected 50MiB upload cap, got %d", cfg.MaxUploadBytes)
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("expected 20 rps, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.NATSURL != "" || cfg.NATSSubjectPrefix != "intake" {
		t.Fatalf("expected nats disabled with prefix intake, got %q %q", cfg.NATSURL, cfg.NATSSubjectPrefix)
	}
	if got := cfg.ResolvedRuleStore(); got != "" {
		t.Fatalf("expected no rule store without dsn or file, got %q", got)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	clearRuleStoreEnv(t)
	t.Setenv("RULE_STORE", "SQL")
	t.Setenv("RULE_STORE_DRIVER", "sqlite")
	t.Setenv("RULE_STORE_DSN", "file:rules.db")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("RULE_STORE_BREAKER_OPEN_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.ResolvedRuleStore() != RuleStoreSQL {
		t.Fatalf("expected sql store, got %q", cfg.ResolvedRuleStore())
	}
	if cfg.RuleStoreDriver != "sqlite" || cfg.RuleStoreDSN != "file:rules.db" {
		t.Fatalf("unexpected driver/dsn: %q %q", cfg.RuleStoreDriver, cfg.RuleStoreDSN)
	}
	if cfg.MaxUploadBytes != 1<<20 {
		t.Fatalf("expected 1MiB cap, got %d", cfg.MaxUploadBytes)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected 2.5 rps, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.RuleStoreBreakerOpenWindow != 30*time.Second {
		t.Fatalf("malformed value should fall back to 30s, got %s", cfg.RuleStoreBreakerOpenWindow)
	}
}

func TestResolvedRuleStorePrefersRulesFile(t *testing.T) {
	cfg := Config{RuleStore: RuleStoreAuto, RulesFile: "rules.yaml", RuleStoreDSN: "postgres://x"}
	if got := cfg.ResolvedRuleStore(); got != RuleStoreYAML {
		t.Fatalf("expected yaml, got %q", got)
	}
	cfg = Config{RuleStore: "mongo"}
	if got := cfg.ResolvedRuleStore(); got != "" {
		t.Fatalf("unknown store must resolve to none, got %q", got)
	}
}
