package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
)

// SubjectSellerCreated carries domain.SellerEvent payloads.
const SubjectSellerCreated = "sellers.created"

// Connect opens a NATS connection that keeps retrying in the background.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// EnsureStream creates the seller event stream or updates it in place.
func EnsureStream(js nats.JetStreamContext, name string) error {
	cfg := &nats.StreamConfig{
		Name:      name,
		Subjects:  []string{"sellers.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", name, err)
		}
	}
	return nil
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher enables JetStream on conn and makes sure the stream exists.
func NewPublisher(conn *nats.Conn, stream string) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := EnsureStream(js, stream); err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

// PublishSellerCreated publishes the event, deduplicated by seller ID.
func (p *Publisher) PublishSellerCreated(ctx context.Context, event *domain.SellerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectSellerCreated, data,
		nats.Context(ctx),
		nats.MsgId(event.Seller.ID),
	)
	return err
}

// Conn returns the underlying connection, e.g. for the WebSocket relay.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// IsConnected reports the connection state for readiness checks.
func (p *Publisher) IsConnected() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
