package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
)

const (
	// StreamName is the JetStream stream holding layer events.
	StreamName = "MAPBUFFER_LAYERS"
	// SubjectRoot prefixes every layer event subject.
	SubjectRoot = "mapbuffer.layers"
)

// LayerSubject returns the subject a layer event is published on:
// mapbuffer.layers.<layer>.<event type>.
func LayerSubject(layerID string, t domain.LayerEventType) string {
	return SubjectRoot + "." + subjectToken(layerID) + "." + string(t)
}

// LayerFilter returns a subscription filter for one layer, or for all
// layers when layerID is empty.
func LayerFilter(layerID string) string {
	if layerID == "" {
		return SubjectRoot + ".>"
	}
	return SubjectRoot + "." + subjectToken(layerID) + ".>"
}

// subjectToken makes an arbitrary layer ID safe to use as one subject token.
func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS, enables JetStream and ensures the layer stream exists.
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
	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectRoot + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishLayerEvent publishes the JSON-encoded event on its layer subject.
func (p *Publisher) PublishLayerEvent(ctx context.Context, event *domain.LayerEvent) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode layer event: %w", err)
	}
	if _, err := p.js.Publish(LayerSubject(event.LayerID, event.Type), data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("mapbuffer"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
