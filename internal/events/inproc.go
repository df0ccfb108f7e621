package events

import (
	"context"
	"sync"
)

// InProcBus is a goroutine-backed Bus for single-binary deployments and
// tests, used when no NATS URL is configured.
type InProcBus struct {
	mu       sync.Mutex
	handlers map[int]Handler
	nextID   int
	wg       sync.WaitGroup
	closed   bool
}

// NewInProcBus creates an in-process event bus.
func NewInProcBus() *InProcBus {
	return &InProcBus{handlers: make(map[int]Handler)}
}

// Publish fans the event out to every subscriber on its own goroutine so
// dispatch never blocks the response path of the caller.
func (b *InProcBus) Publish(_ context.Context, ev OrderEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	for _, h := range b.handlers {
		h := h
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			h(context.Background(), ev)
		}()
	}
	return nil
}

// Subscribe registers h and returns an unsubscribe function.
func (b *InProcBus) Subscribe(h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}, nil
}

// Close waits for in-flight deliveries to finish.
func (b *InProcBus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}
