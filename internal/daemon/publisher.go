package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/mdincl/internal/config"
	"git.home.luguber.info/inful/mdincl/internal/logfields"
	"git.home.luguber.info/inful/mdincl/internal/retry"
	"git.home.luguber.info/inful/mdincl/internal/store"
	"git.home.luguber.info/inful/mdincl/internal/verify"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultSubject receives scan events when the configuration names none.
const DefaultSubject = "mdincl.scans"

// JetStream caps message size at 1 MiB by default; problem listings are
// truncated to stay well below it.
const maxEventProblems = 100

// ScanEvent is the message published after each finished scan.
type ScanEvent struct {
	ScanID     string    `json:"scan_id"`
	Root       string    `json:"root"`
	Cause      string    `json:"cause"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Files      int       `json:"files"`
	Refs       int       `json:"refs"`
	Broken     int       `json:"broken"`
	// Problems holds rendered problem lines, truncated to maxEventProblems.
	Problems  []string  `json:"problems,omitempty"`
	Truncated bool      `json:"truncated,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewScanEvent renders a finished scan and its problems into an event,
// truncating long problem lists.
func NewScanEvent(scan store.Scan, problems []verify.Problem) ScanEvent {
	event := ScanEvent{
		ScanID:     scan.ID,
		Root:       scan.Root,
		Cause:      scan.Cause,
		StartedAt:  scan.StartedAt,
		FinishedAt: scan.FinishedAt,
		Files:      scan.Files,
		Refs:       scan.Refs,
		Broken:     scan.Broken,
	}
	for i, p := range problems {
		if i == maxEventProblems {
			event.Truncated = true
			break
		}
		event.Problems = append(event.Problems, p.String())
	}
	return event
}

// Publisher emits one JetStream message per finished scan.
type Publisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	policy  retry.Policy
}

// NewPublisher connects to NATS and ensures the configured stream exists.
func NewPublisher(cfg *config.NATSConfig) (*Publisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nats configuration is required")
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &Publisher{conn: conn, js: js, subject: cfg.Subject, policy: retry.DefaultPolicy()}
	if p.subject == "" {
		p.subject = DefaultSubject
	}
	if cfg.Stream != "" {
		if err := p.ensureStream(cfg.Stream); err != nil {
			conn.Close()
			return nil, err
		}
	}

	slog.Info("NATS publisher initialized", slog.String("url", cfg.URL), logfields.Subject(p.subject))
	return p, nil
}

// ensureStream binds to an existing stream or creates one covering the
// subject.
func (p *Publisher) ensureStream(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := p.js.Stream(ctx, name); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     name,
		Subjects: []string{p.subject},
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", name, err)
	}
	slog.Info("Created JetStream stream", slog.String("stream", name), logfields.Subject(p.subject))
	return nil
}

// PublishScan publishes one scan event, retrying transient failures with
// backoff.
func (p *Publisher) PublishScan(ctx context.Context, event ScanEvent) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal scan event: %w", err)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if _, lastErr = p.js.Publish(ctx, p.subject, data); lastErr == nil {
			slog.Debug("Published scan event",
				logfields.ScanID(event.ScanID),
				logfields.Subject(p.subject),
				logfields.Broken(event.Broken))
			return nil
		}
		if attempt == p.policy.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.policy.Delay(attempt + 1)):
		}
	}
	return fmt.Errorf("publish scan event: %w", lastErr)
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
