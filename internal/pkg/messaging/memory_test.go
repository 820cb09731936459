package messaging

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_PublishConsume(t *testing.T) {
	// Arrange
	broker := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- broker.Consume(ctx, "vault.events", func(_ context.Context, msg Message) error {
			got <- msg
			return nil
		}, WithGroup("notification"))
	}()

	// wait for the subscription to exist
	deadline := time.Now().Add(time.Second)
	for {
		broker.mu.RLock()
		n := len(broker.subs["vault.events"])
		broker.mu.RUnlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Act
	err := broker.Publish(ctx, "vault.events", OutgoingMessage{
		Key:     []byte("acc-1"),
		Body:    []byte(`{"x":1}`),
		Headers: map[string]string{"event": "disclosure"},
	})

	// Assert
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	select {
	case msg := <-got:
		if string(msg.Body()) != `{"x":1}` || msg.Header("event") != "disclosure" || msg.Source() != "vault.events" {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("message not delivered")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMemory_HandlerPanicDoesNotKillConsumer(t *testing.T) {
	// Arrange
	broker := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.subscribe("s", "")
	calls := make(chan struct{}, 2)
	go func() {
		_ = broker.Consume(ctx, "s", func(context.Context, Message) error {
			calls <- struct{}{}
			panic("bad handler")
		})
	}()

	// Act
	ch <- &message{source: "s"}
	ch <- &message{source: "s"}

	// Assert
	for range 2 {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatalf("consumer stopped after panic")
		}
	}
}

func TestMemory_Validation(t *testing.T) {
	broker := NewMemory()

	if err := broker.Publish(context.Background(), "", OutgoingMessage{}); !errors.Is(err, ErrDestinationRequired) {
		t.Fatalf("expected ErrDestinationRequired, got %v", err)
	}
	if err := broker.Consume(context.Background(), "s", nil); !errors.Is(err, ErrHandlerRequired) {
		t.Fatalf("expected ErrHandlerRequired, got %v", err)
	}

	_ = broker.Close()
	if err := broker.Publish(context.Background(), "s", OutgoingMessage{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestMemory_StalledConsumerDoesNotBlockBroker(t *testing.T) {
	// Arrange
	broker := NewMemory()
	ctx := context.Background()
	ch := broker.subscribe("vault.events", "slow")
	for range cap(ch) {
		if err := broker.Publish(ctx, "vault.events", OutgoingMessage{Body: []byte("x")}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	blocked := make(chan error, 1)
	go func() {
		blocked <- broker.Publish(ctx, "vault.events", OutgoingMessage{Body: []byte("overflow")})
	}()
	time.Sleep(20 * time.Millisecond)

	// Act
	subscribed := make(chan struct{})
	go func() {
		broker.subscribe("other.events", "g")
		close(subscribed)
	}()
	select {
	case <-subscribed:
	case <-time.After(time.Second):
		t.Fatal("subscribe blocked behind a stalled publish")
	}

	closed := make(chan error, 1)
	go func() { closed <- broker.Close() }()

	// Assert
	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close blocked behind a stalled publish")
	}
	select {
	case err := <-blocked:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked publish was not released by Close")
	}
}
