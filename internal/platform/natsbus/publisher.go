package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/phrazzld/scry-decks/internal/config"
	"github.com/phrazzld/scry-decks/internal/events"
)

// ErrNoURL is returned by Connect when no server URL is configured.
var ErrNoURL = errors.New("nats url is not configured")

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher publishes every handled event, JSON-encoded, on one subject.
type Publisher struct {
	conn    Conn
	subject string
	logger  *slog.Logger
}

var _ events.EventHandler = (*Publisher)(nil)

// NewPublisher creates a Publisher over an existing connection.
func NewPublisher(conn Conn, subject string, logger *slog.Logger) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("nats connection cannot be nil")
	}
	if subject == "" {
		return nil, errors.New("nats subject cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With(slog.String("component", "nats_publisher")),
	}, nil
}

// HandleEvent publishes event. Publishing is asynchronous in the NATS
// client, so a nil error only means the message was buffered.
func (p *Publisher) HandleEvent(ctx context.Context, event *events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Warn("failed to publish event",
			slog.String("subject", p.subject),
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	p.logger.Debug("published event",
		slog.String("subject", p.subject),
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))
	return nil
}

// Connect dials the NATS server named in cfg. The returned connection
// should be drained on shutdown.
func Connect(cfg config.NATSConfig, name string) (*nats.Conn, error) {
	if cfg.URL == "" {
		return nil, ErrNoURL
	}

	opts := []nats.Option{
		nats.Name(name),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.URL, err)
	}
	return conn, nil
}
