package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/ports"
)

var _ ports.EventSubscriber = (*Subscriber)(nil)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber connects to NATS. durable names the JetStream consumer so
// several instances of a service share one work queue.
func NewSubscriber(url, durable string) (*Subscriber, error) {
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
	if durable == "" {
		durable = "fix-processor"
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeFixes delivers every marker fix to handler. Fixes that cannot be
// decoded or are rejected as invalid are terminated; other handler errors
// are redelivered up to three times.
func (s *Subscriber) SubscribeFixes(ctx context.Context, handler func(ctx context.Context, fix *domain.Fix) error) error {
	sub, err := s.js.QueueSubscribe(FixWildcard, s.durable, func(msg *nats.Msg) {
		var fix domain.Fix
		if err := json.Unmarshal(msg.Data, &fix); err != nil {
			slog.Warn("drop undecodable fix", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &fix); err != nil {
			if errors.Is(err, domain.ErrInvalidLocation) || errors.Is(err, domain.ErrInvalidFix) {
				slog.Warn("drop invalid fix", "marker_id", fix.MarkerID, "error", err)
				_ = msg.Term()
				return
			}
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
