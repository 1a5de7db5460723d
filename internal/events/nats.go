package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// natsQueueGroup load-balances deliveries across API replicas so each event
// is handled once.
const natsQueueGroup = "ticket-notifications"

// natsDispatcher publishes events as JSON on "<prefix>.<type>" subjects and
// feeds messages from those subjects to locally registered handlers.
type natsDispatcher struct {
	*registry
	conn   *nats.Conn
	prefix string

	mu   sync.Mutex
	subs map[EventType]*nats.Subscription
}

// wireEvent is Event as carried on the bus, with the payload left encoded
// until a handler asks for it.
type wireEvent struct {
	Event
	Payload json.RawMessage `json:"payload"`
}

// NewNATSDispatcher connects to url and returns a dispatcher bound to it.
func NewNATSDispatcher(url, prefix string, logger *zap.Logger) (Dispatcher, error) {
	conn, err := nats.Connect(url, nats.Name("facility-tickets"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &natsDispatcher{
		registry: newRegistry(logger),
		conn:     conn,
		prefix:   prefix,
		subs:     make(map[EventType]*nats.Subscription),
	}, nil
}

func (d *natsDispatcher) subject(eventType EventType) string {
	return d.prefix + "." + string(eventType)
}

func (d *natsDispatcher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.Debug("publishing event",
		zap.String("subject", d.subject(event.Type)),
		zap.String("event_id", event.ID),
	)
	return d.conn.Publish(d.subject(event.Type), payload)
}

// Subscribe registers handler and opens one queue subscription per event
// type on first use.
func (d *natsDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.subscribe(eventType, handler)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subs[eventType]; ok {
		return
	}
	sub, err := d.conn.QueueSubscribe(d.subject(eventType), natsQueueGroup, d.onMessage)
	if err != nil {
		d.logger.Error("nats subscribe failed", zap.String("event_type", string(eventType)), zap.Error(err))
		return
	}
	d.subs[eventType] = sub
}

func (d *natsDispatcher) onMessage(msg *nats.Msg) {
	event, err := decodeWireEvent(msg.Data)
	if err != nil {
		d.logger.Warn("dropping malformed event", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}
	d.dispatch(context.Background(), event)
}

func decodeWireEvent(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return Event{}, err
	}
	event := wire.Event
	event.Payload = wire.Payload
	return event, nil
}

// Close drains subscriptions so in-flight messages finish, then closes the
// connection.
func (d *natsDispatcher) Close() error {
	return d.conn.Drain()
}
