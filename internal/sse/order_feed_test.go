package sse

import (
	"context"
	"testing"
	"time"

	"qrmenu/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderFeed_DeliversToSubscribers(t *testing.T) {
	feed := NewOrderFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1 := feed.Subscribe(ctx, "rest-1")
	ch2 := feed.Subscribe(ctx, "rest-1")
	other := feed.Subscribe(ctx, "rest-2")

	order := &models.Order{ID: "order-1", RestaurantID: "rest-1"}
	feed.NotifyOrder(order)

	select {
	case got := <-ch1:
		assert.Equal(t, "order-1", got.ID)
	case <-time.After(time.Second):
		t.Fatal("first subscriber did not receive the order")
	}

	select {
	case got := <-ch2:
		assert.Equal(t, "order-1", got.ID)
	case <-time.After(time.Second):
		t.Fatal("second subscriber did not receive the order")
	}

	select {
	case <-other:
		t.Fatal("subscriber of another restaurant received the order")
	default:
	}
}

func TestOrderFeed_UnsubscribeOnContextDone(t *testing.T) {
	feed := NewOrderFeed()
	ctx, cancel := context.WithCancel(context.Background())

	ch := feed.Subscribe(ctx, "rest-1")
	cancel()

	// The channel is closed once the cleanup goroutine runs.
	require.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	// Broadcasting after unsubscribe must not panic.
	feed.NotifyOrder(&models.Order{ID: "order-1", RestaurantID: "rest-1"})
}

func TestOrderFeed_SlowClientDoesNotBlock(t *testing.T) {
	feed := NewOrderFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed.Subscribe(ctx, "rest-1") // never drained

	done := make(chan struct{})
	go func() {
		// More events than the channel buffer holds.
		for i := 0; i < 50; i++ {
			feed.NotifyOrder(&models.Order{ID: "order", RestaurantID: "rest-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}
