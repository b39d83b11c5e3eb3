package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RuleStoreAuto = "auto"
	RuleStoreSQL  = "sql"
	RuleStoreYAML = "yaml"
)

type Config struct {
	APIPort  string
	LogLevel string

	// RuleStore selects the rule backend: sql, yaml, or auto (yaml when
	// RulesFile is set, sql when RuleStoreDSN is set, otherwise none).
	RuleStore             string
	RuleStoreDriver       string
	RuleStoreDSN          string
	RulesFile             string
	RuleStoreEnsureSchema bool

	RuleStoreBreakerEnabled    bool
	RuleStoreBreakerOpenWindow time.Duration

	MaxUploadBytes       int64
	MultipartMemoryBytes int64

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int

	NATSURL           string
	NATSSubjectPrefix string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		RuleStore:             strings.ToLower(mustEnv("RULE_STORE", RuleStoreAuto)),
		RuleStoreDriver:       mustEnv("RULE_STORE_DRIVER", "pgx"),
		RuleStoreDSN:          mustEnv("RULE_STORE_DSN", ""),
		RulesFile:             mustEnv("RULES_FILE", ""),
		RuleStoreEnsureSchema: mustEnvBool("RULE_STORE_ENSURE_SCHEMA", true),

		RuleStoreBreakerEnabled:    mustEnvBool("RULE_STORE_BREAKER_ENABLED", true),
		RuleStoreBreakerOpenWindow: time.Duration(mustEnvInt("RULE_STORE_BREAKER_OPEN_SECONDS", 30)) * time.Second,

		MaxUploadBytes:       mustEnvInt64("MAX_UPLOAD_BYTES", 50<<20),
		MultipartMemoryBytes: mustEnvInt64("MULTIPART_MEMORY_BYTES", 32<<20),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 32),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),

		NATSURL:           mustEnv("NATS_URL", ""),
		NATSSubjectPrefix: mustEnv("NATS_SUBJECT_PREFIX", "intake"),
	}
}

// ResolvedRuleStore reports the backend Load's settings select, or "" when none.
func (c Config) ResolvedRuleStore() string {
	switch c.RuleStore {
	case RuleStoreSQL, RuleStoreYAML:
		return c.RuleStore
	case RuleStoreAuto, "":
		if strings.TrimSpace(c.RulesFile) != "" {
			return RuleStoreYAML
		}
		if strings.TrimSpace(c.RuleStoreDSN) != "" {
			return RuleStoreSQL
		}
	}
	return ""
}

func mustEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
