package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/infrastructure/resilience"
)

const (
	DefaultSubjectPrefix = "intake"

	subjectValidated   = "validated"
	subjectOCRRequired = "ocr_required"
)

// Publisher emits one message per verdict. Deferred verdicts go to
// <prefix>.ocr_required so the OCR service can pick the submission up.
type Publisher struct {
	conn    *nats.Conn
	prefix  string
	breaker *resilience.Guard
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	Breaker              *resilience.Guard
}

func New(url, subjectPrefix string) (*Publisher, error) {
	return NewWithOptions(url, subjectPrefix, Options{})
}

func NewWithOptions(url, subjectPrefix string, options Options) (*Publisher, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("document-intake"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{
		conn:    conn,
		prefix:  normalizePrefix(subjectPrefix),
		breaker: options.Breaker,
	}, nil
}

func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.FlushTimeout(5 * time.Second); err != nil {
		slog.Warn("nats_flush_on_close_failed", "error", err)
	}
	p.conn.Close()
}

// PublishVerdict hands the event to the client's outbound buffer in a single
// attempt; while disconnected the client buffers it for replay. Failures come
// back as domain.ErrTemporary for the caller to log.
func (p *Publisher) PublishVerdict(ctx context.Context, event domain.VerdictEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal verdict event: %w", err)
	}
	msg := nats.NewMsg(SubjectFor(p.prefix, event.Outcome))
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, event.ID)

	return resilience.Run(ctx, p.breaker, "verdicts.publish", func(context.Context) error {
		if err := p.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("nats publish %s: %w", msg.Subject, err)
		}
		return nil
	})
}

// SubjectFor maps a verdict outcome to its subject under prefix.
func SubjectFor(prefix string, outcome domain.Outcome) string {
	prefix = normalizePrefix(prefix)
	if outcome == domain.OutcomeDeferred {
		return prefix + "." + subjectOCRRequired
	}
	return prefix + "." + subjectValidated
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return DefaultSubjectPrefix
	}
	return prefix
}
