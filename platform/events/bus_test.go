package events

import (
	"context"
	"errors"
	"testing"
)

type testEvent struct {
	BaseEvent
	Value string
}

func (testEvent) EventName() string { return "test.event" }

func TestPublishSync_DeliversToAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var got []string
	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, event Event) error {
		got = append(got, event.(testEvent).Value)
		return nil
	}))
	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, event Event) error {
		got = append(got, event.(testEvent).Value)
		return nil
	}))

	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), Value: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
}

func TestPublishSync_CollectsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)
	boom := errors.New("handler failed")

	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return nil }))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return boom }))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined handler error, got %v", err)
	}
}

func TestPublishSync_NoSubscribersIsNoOp(t *testing.T) {
	bus := NewInMemoryBus(nil)
	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
