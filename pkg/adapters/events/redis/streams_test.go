package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/predictd/pkg/domain"
)

func newTestBus(t *testing.T) (*StreamsEventBus, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus := NewStreamsEventBus(client, 100, zap.NewNop())
	bus.block = 50 * time.Millisecond
	return bus, mr
}

func TestStreamsEventBus_Publish(t *testing.T) {
	bus, mr := newTestBus(t)

	err := bus.Publish(context.Background(), "predictions", domain.Event{
		ID:         "e1",
		Type:       domain.EventTypePredictionCompleted,
		Prediction: []float64{13.2},
	})
	require.NoError(t, err)

	entries, err := mr.Stream("predictd:events:predictions")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data", entries[0].Values[0])
	assert.Contains(t, entries[0].Values[1], `"id":"e1"`)
}

func TestStreamsEventBus_SubscribeSeesOnlyNewEvents(t *testing.T) {
	bus, _ := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Publish(ctx, "predictions", domain.Event{ID: "before"}))

	received := make(chan domain.Event, 4)
	require.NoError(t, bus.Subscribe(ctx, "predictions", func(ctx context.Context, event domain.Event) error {
		received <- event
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, "predictions", domain.Event{ID: "after-1"}))
	require.NoError(t, bus.Publish(ctx, "predictions", domain.Event{ID: "after-2"}))

	var ids []string
	for len(ids) < 2 {
		select {
		case event := <-received:
			ids = append(ids, event.ID)
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out, got %v", ids)
		}
	}
	assert.Equal(t, []string{"after-1", "after-2"}, ids)
}

func TestStreamsEventBus_EverySubscriberReceives(t *testing.T) {
	bus, _ := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := make(chan domain.Event, 1)
	second := make(chan domain.Event, 1)
	require.NoError(t, bus.Subscribe(ctx, "predictions", func(ctx context.Context, event domain.Event) error {
		first <- event
		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx, "predictions", func(ctx context.Context, event domain.Event) error {
		second <- event
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, "predictions", domain.Event{ID: "shared"}))

	for _, ch := range []chan domain.Event{first, second} {
		select {
		case event := <-ch:
			assert.Equal(t, "shared", event.ID)
		case <-time.After(3 * time.Second):
			t.Fatal("event not delivered to every subscriber")
		}
	}
}
