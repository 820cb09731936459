package messaging

import (
	"context"
	"sync"
)

// Memory is an in-process Messaging. Publish hands the message to every
// subscribed group of the destination; within a group one consumer receives it.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[string]chan *message
	closed bool
	done   chan struct{}
}

// NewMemory creates an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{
		subs: make(map[string]map[string]chan *message),
		done: make(chan struct{}),
	}
}

// Close stops accepting publishes and releases publishers blocked on a full
// subscriber.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish implements Publisher. Messages to a destination with no subscriber
// are dropped, as with core NATS.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) error {
	if destination == "" {
		return ErrDestinationRequired
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]chan *message, 0, len(m.subs[destination]))
	for _, ch := range m.subs[destination] {
		targets = append(targets, ch)
	}
	m.mu.RUnlock()

	// send without the lock so a stalled consumer cannot block Close or subscribe
	for _, ch := range targets {
		select {
		case ch <- &message{source: destination, key: msg.Key, body: msg.Body, headers: msg.Headers}:
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		}
	}
	return nil
}

func (m *Memory) subscribe(source, group string) chan *message {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.subs[source] == nil {
		m.subs[source] = make(map[string]chan *message)
	}
	ch, ok := m.subs[source][group]
	if !ok {
		ch = make(chan *message, 64)
		m.subs[source][group] = ch
	}
	return ch
}

// Consume implements Consumer.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	ch := m.subscribe(source, co.group)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-ch:
					_ = callHandler(ctx, DriverMemory, handler, msg)
				}
			}
		}()
	}

	wg.Wait()
	return ctx.Err()
}
