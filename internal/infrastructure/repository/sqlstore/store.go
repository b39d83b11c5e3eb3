// Package sqlstore reads document-type rules and settings from a SQL database.
// Postgres (pgx) is the production backend; SQLite (modernc) serves local runs
// and tests.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/infrastructure/resilience"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

type Store struct {
	db     *sql.DB
	driver string
	guard  *resilience.Guard
}

// New wraps an open database. guard may be nil, in which case reads run without
// a circuit breaker.
func New(db *sql.DB, driver string, guard *resilience.Guard) *Store {
	return &Store{db: db, driver: normalizeDriver(driver), guard: guard}
}

func OpenDB(driver, dsn string) (*sql.DB, error) {
	driver = normalizeDriver(driver)
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported rule store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	if driver == DriverSQLite {
		// An in-memory database lives and dies with its connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if s.driver == DriverPostgres {
		// Serialize bootstrap DDL across replicas starting together.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101501)); err != nil {
			return fmt.Errorf("acquire schema lock: %w", err)
		}
	}

	statements := []string{`
CREATE TABLE IF NOT EXISTS document_type_rules (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	required_keywords TEXT NOT NULL DEFAULT '[]',
	forbidden_keywords TEXT NOT NULL DEFAULT '[]',
	allowed_extensions TEXT NOT NULL DEFAULT '[]',
	max_total_size_mb DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema ddl: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *Store) FetchRule(ctx context.Context, docTypeID string) (domain.RuleRecord, error) {
	return resilience.Do(ctx, s.guard, "rules.fetch_rule", func(ctx context.Context) (domain.RuleRecord, error) {
		return s.fetchRule(ctx, docTypeID)
	})
}

func (s *Store) fetchRule(ctx context.Context, docTypeID string) (domain.RuleRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
SELECT id, name, required_keywords, forbidden_keywords, allowed_extensions, max_total_size_mb
FROM document_type_rules
WHERE id = $1
`), docTypeID)

	var (
		rec                          domain.RuleRecord
		required, forbidden, allowed string
	)
	err := row.Scan(&rec.ID, &rec.Name, &required, &forbidden, &allowed, &rec.MaxAggregateSizeMB)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RuleRecord{}, domain.WrapError(domain.ErrRuleNotFound, "fetch rule", fmt.Errorf("document type %q", docTypeID))
		}
		return domain.RuleRecord{}, fmt.Errorf("scan rule: %w", err)
	}

	if err := decodeList(required, &rec.RequiredKeywords); err != nil {
		return domain.RuleRecord{}, domain.WrapError(domain.ErrInvalidRule, "decode required_keywords", err)
	}
	if err := decodeList(forbidden, &rec.ForbiddenKeywords); err != nil {
		return domain.RuleRecord{}, domain.WrapError(domain.ErrInvalidRule, "decode forbidden_keywords", err)
	}
	if err := decodeList(allowed, &rec.AllowedExtensions); err != nil {
		return domain.RuleRecord{}, domain.WrapError(domain.ErrInvalidRule, "decode allowed_extensions", err)
	}
	return rec, nil
}

func (s *Store) FetchSetting(ctx context.Context, key string) (string, bool, error) {
	type setting struct {
		value string
		found bool
	}
	got, err := resilience.Do(ctx, s.guard, "rules.fetch_setting", func(ctx context.Context) (setting, error) {
		var value string
		err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM settings WHERE key = $1`), key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return setting{}, nil
		}
		if err != nil {
			return setting{}, fmt.Errorf("scan setting: %w", err)
		}
		return setting{value: value, found: true}, nil
	})
	if err != nil {
		return "", false, err
	}
	return got.value, got.found, nil
}

// UpsertRule stores rec, replacing any rule with the same id.
func (s *Store) UpsertRule(ctx context.Context, rec domain.RuleRecord) error {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return domain.WrapError(domain.ErrInvalidInput, "upsert rule", errors.New("rule id is empty"))
	}
	required, err := encodeList(rec.RequiredKeywords)
	if err != nil {
		return fmt.Errorf("encode required_keywords: %w", err)
	}
	forbidden, err := encodeList(rec.ForbiddenKeywords)
	if err != nil {
		return fmt.Errorf("encode forbidden_keywords: %w", err)
	}
	allowed, err := encodeList(rec.AllowedExtensions)
	if err != nil {
		return fmt.Errorf("encode allowed_extensions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO document_type_rules (id, name, required_keywords, forbidden_keywords, allowed_extensions, max_total_size_mb, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
	name = excluded.name,
	required_keywords = excluded.required_keywords,
	forbidden_keywords = excluded.forbidden_keywords,
	allowed_extensions = excluded.allowed_extensions,
	max_total_size_mb = excluded.max_total_size_mb,
	updated_at = excluded.updated_at
`), id, rec.Name, required, forbidden, allowed, rec.MaxAggregateSizeMB, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert rule: %w", err)
	}
	return nil
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO settings (key, value, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`), key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put setting: %w", err)
	}
	return nil
}

// SetMinWordCount stores the word floor for docTypeID under its settings key.
func (s *Store) SetMinWordCount(ctx context.Context, docTypeID string, n int) error {
	return s.PutSetting(ctx, domain.MinWordCountSettingKey(docTypeID), strconv.Itoa(n))
}

// rebind rewrites $N placeholders to ? for SQLite.
func (s *Store) rebind(query string) string {
	if s.driver != DriverSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "pgx", "postgres", "postgresql":
		return DriverPostgres
	case "sqlite", "sqlite3":
		return DriverSQLite
	default:
		return strings.ToLower(strings.TrimSpace(driver))
	}
}

func decodeList(raw string, out *[]string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		*out = nil
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
