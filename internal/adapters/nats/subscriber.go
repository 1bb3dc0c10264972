package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber with a durable JetStream consumer.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber connects to NATS. Replicas sharing a durable name split the
// event stream between them.
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
	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}
	if durable == "" {
		durable = "mapbuffer-layer-events"
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeLayerEvents delivers every layer event to handler. Undecodable
// messages are terminated; handler errors are redelivered up to three times.
func (s *Subscriber) SubscribeLayerEvents(ctx context.Context, handler func(ctx context.Context, event *domain.LayerEvent) error) error {
	sub, err := s.js.Subscribe(LayerFilter(""), func(msg *nats.Msg) {
		var event domain.LayerEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("dropping malformed layer event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &event); err != nil {
			slog.Warn("layer event handler failed", "type", event.Type, "layer", event.LayerID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
		nats.DeliverNew(),
	)
	if err != nil {
		return fmt.Errorf("subscribe layer events: %w", err)
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
