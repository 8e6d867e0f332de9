package memory

import (
	"context"
	"sync"

	"github.com/aescanero/predictd/pkg/domain"
	"github.com/aescanero/predictd/pkg/ports"
)

// InMemoryEventBus implements EventBus using in-process handlers
type InMemoryEventBus struct {
	subscribers map[string]map[uint64]ports.EventHandler
	nextID      uint64
	closed      bool
	mu          sync.RWMutex
	wg          sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string]map[uint64]ports.EventHandler),
	}
}

// Publish delivers an event to every subscriber of a topic.
// Handlers run on their own goroutines so a slow subscriber never blocks a prediction.
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil
	}

	for _, handler := range e.subscribers[topic] {
		e.wg.Add(1)
		go func(h ports.EventHandler) {
			defer e.wg.Done()
			_ = h(context.WithoutCancel(ctx), event)
		}(handler)
	}

	return nil
}

// Subscribe registers handler until ctx is cancelled
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.subscribers[topic] == nil {
		e.subscribers[topic] = make(map[uint64]ports.EventHandler)
	}
	id := e.nextID
	e.nextID++
	e.subscribers[topic][id] = handler

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		<-ctx.Done()
		e.unsubscribe(topic, id)
	}()

	return nil
}

// Subscribers returns the number of active subscriptions on a topic
func (e *InMemoryEventBus) Subscribers(topic string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.subscribers[topic])
}

// Close stops delivering events and drops all subscriptions.
// It does not wait for subscriptions whose context is still live.
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.subscribers = make(map[string]map[uint64]ports.EventHandler)
	return nil
}

// Wait blocks until in-flight deliveries and cancelled subscriptions have finished
func (e *InMemoryEventBus) Wait() {
	e.wg.Wait()
}

func (e *InMemoryEventBus) unsubscribe(topic string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.subscribers[topic], id)
	if len(e.subscribers[topic]) == 0 {
		delete(e.subscribers, topic)
	}
}
