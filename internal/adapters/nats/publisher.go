package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/ports"
)

// FixStream holds marker fixes until a consumer has processed them.
const FixStream = "MARKER_FIXES"

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher implements ports.EventPublisher. Fixes go through JetStream;
// frames are fire-and-forget core NATS messages.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureFixStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureFixStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:       FixStream,
		Subjects:   []string{FixWildcard},
		Retention:  nats.WorkQueuePolicy,
		MaxAge:     1 * time.Hour,
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishFix publishes a fix on its marker subject. Re-publishing the same
// marker and timestamp inside the duplicate window is dropped by the server.
func (p *Publisher) PublishFix(ctx context.Context, fix *domain.Fix) error {
	data, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(FixSubject(fix.MarkerID), data,
		nats.Context(ctx),
		nats.MsgId(fix.MarkerID+"@"+fix.Time.UTC().Format(time.RFC3339Nano)),
	)
	return err
}

// PublishFrame publishes an animation frame on its marker subject.
func (p *Publisher) PublishFrame(ctx context.Context, frame *domain.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return p.conn.Publish(FrameSubject(frame.MarkerID), data)
}

// Conn returns the underlying connection.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
