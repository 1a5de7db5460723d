package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrDispatcherClosed is returned when publishing after Close.
var ErrDispatcherClosed = errors.New("event dispatcher closed")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
	Close() error
}

// registry fans an event out to local handlers. Handler errors are logged
// and never stop the remaining handlers.
type registry struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
}

func newRegistry(logger *zap.Logger) *registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &registry{listeners: make(map[EventType][]EventHandler), logger: logger}
}

func (r *registry) subscribe(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[eventType] = append(r.listeners[eventType], handler)
}

func (r *registry) dispatch(ctx context.Context, event Event) {
	r.mu.RLock()
	handlers := append([]EventHandler{}, r.listeners[event.Type]...)
	r.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			r.logger.Warn("event handler failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.Error(err),
			)
		}
	}
}

// inMemoryDispatcher invokes handlers on the publishing goroutine.
type inMemoryDispatcher struct {
	*registry
}

// NewInMemoryDispatcher creates a synchronous dispatcher.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	return &inMemoryDispatcher{registry: newRegistry(logger)}
}

// Publish synchronously invokes handlers for the given event.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.dispatch(ctx, event)
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.subscribe(eventType, handler)
}

func (d *inMemoryDispatcher) Close() error { return nil }

// asyncDispatcher queues events and lets a fixed pool of workers deliver
// them, so slow handlers such as email delivery never hold up a request.
type asyncDispatcher struct {
	*registry
	queue chan queued

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type queued struct {
	ctx   context.Context
	event Event
}

// NewAsyncDispatcher starts workers goroutines draining a queue of size buffer.
func NewAsyncDispatcher(logger *zap.Logger, workers, buffer int) Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	d := &asyncDispatcher{
		registry: newRegistry(logger),
		queue:    make(chan queued, buffer),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

func (d *asyncDispatcher) run() {
	defer d.wg.Done()
	for item := range d.queue {
		d.dispatch(item.ctx, item.event)
	}
}

// Publish enqueues the event. Delivery outlives the request, so the
// caller's cancellation is detached while its values are kept.
func (d *asyncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- queued{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *asyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.subscribe(eventType, handler)
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *asyncDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}
