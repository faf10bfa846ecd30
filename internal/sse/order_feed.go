package sse

import (
	"context"
	"sync"

	"qrmenu/internal/models"
)

// OrderFeed manages SSE subscriptions and broadcasts live order events to
// restaurant dashboards.
type OrderFeed struct {
	mu      sync.RWMutex
	clients map[string][]chan *models.Order // keyed by restaurant ID
}

func NewOrderFeed() *OrderFeed {
	return &OrderFeed{
		clients: make(map[string][]chan *models.Order),
	}
}

// Subscribe adds a dashboard client for one restaurant's orders. The client
// is removed and its channel closed when ctx is done.
func (f *OrderFeed) Subscribe(ctx context.Context, restaurantID string) chan *models.Order {
	clientChan := make(chan *models.Order, 10)

	f.mu.Lock()
	f.clients[restaurantID] = append(f.clients[restaurantID], clientChan)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.remove(restaurantID, clientChan)
	}()

	return clientChan
}

// NotifyOrder broadcasts an order event to the restaurant's subscribers.
func (f *OrderFeed) NotifyOrder(order *models.Order) {
	f.mu.RLock()
	clients := f.clients[order.RestaurantID]
	f.mu.RUnlock()

	for _, clientChan := range clients {
		// Non-blocking send so one slow dashboard cannot stall the rest.
		select {
		case clientChan <- order:
		default:
		}
	}
}

func (f *OrderFeed) remove(restaurantID string, clientChan chan *models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()

	clients := f.clients[restaurantID]
	for i, ch := range clients {
		if ch == clientChan {
			f.clients[restaurantID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(f.clients[restaurantID]) == 0 {
		delete(f.clients, restaurantID)
	}
}
