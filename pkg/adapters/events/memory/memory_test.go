package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aescanero/predictd/pkg/domain"
)

func TestInMemoryEventBus_PublishSubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewInMemoryEventBus()
	ctx, cancel := context.WithCancel(context.Background())

	received := make(chan domain.Event, 2)
	require.NoError(t, bus.Subscribe(ctx, "predictions", func(ctx context.Context, event domain.Event) error {
		received <- event
		return nil
	}))
	assert.Equal(t, 1, bus.Subscribers("predictions"))

	require.NoError(t, bus.Publish(context.Background(), "predictions", domain.Event{ID: "e1", Type: domain.EventTypePredictionCompleted}))
	require.NoError(t, bus.Publish(context.Background(), "other", domain.Event{ID: "e2"}))

	select {
	case event := <-received:
		assert.Equal(t, "e1", event.ID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	bus.Wait()
	assert.Equal(t, 0, bus.Subscribers("predictions"))
	assert.Empty(t, received)
}

func TestInMemoryEventBus_Close(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewInMemoryEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		bus.Wait()
	}()

	called := make(chan struct{}, 1)
	require.NoError(t, bus.Subscribe(ctx, "predictions", func(ctx context.Context, event domain.Event) error {
		called <- struct{}{}
		return nil
	}))

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Publish(context.Background(), "predictions", domain.Event{ID: "late"}))

	assert.Equal(t, 0, bus.Subscribers("predictions"))
	assert.Empty(t, called)
}
