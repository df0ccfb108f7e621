package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "elmali.orders."

// NATSBus implements Bus on a NATS connection, one subject per event type
// under elmali.orders.>.
type NATSBus struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSBus connects to NATS and returns a bus.
func NewNATSBus(url string, logger *slog.Logger) (*NATSBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("elmali-order-core"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSBus{conn: conn, logger: logger}, nil
}

// Publish emits the event on its type subject.
func (b *NATSBus) Publish(_ context.Context, ev OrderEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return b.conn.Publish(subjectPrefix+string(ev.Type), payload)
}

// Subscribe delivers every order event to h.
func (b *NATSBus) Subscribe(h Handler) (func(), error) {
	sub, err := b.conn.Subscribe(subjectPrefix+">", func(msg *nats.Msg) {
		var ev OrderEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Error("events: dropping undecodable message",
				"subject", msg.Subject,
				"error", err,
			)
			return
		}
		h(context.Background(), ev)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe: %w", err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Close drains the connection so in-flight notifications finish.
func (b *NATSBus) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn("events: nats drain failed", "error", err)
	}
}
