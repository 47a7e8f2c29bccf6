// Package sse fans newly recorded orders out to organizers watching an
// event's orders page.
package sse

import (
	"context"
	"sync"

	"ms-eventhub/internal/models"
)

const clientBuffer = 10

// OrderStream keeps one buffered channel per connected client, keyed by
// event id.
type OrderStream struct {
	mu      sync.RWMutex
	clients map[string]map[chan models.OrderItem]struct{}
}

func NewOrderStream() *OrderStream {
	return &OrderStream{clients: make(map[string]map[chan models.OrderItem]struct{})}
}

// Subscribe registers a client until ctx is done; the channel is closed then.
func (s *OrderStream) Subscribe(ctx context.Context, eventID string) <-chan models.OrderItem {
	ch := make(chan models.OrderItem, clientBuffer)

	s.mu.Lock()
	if s.clients[eventID] == nil {
		s.clients[eventID] = make(map[chan models.OrderItem]struct{})
	}
	s.clients[eventID][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.remove(eventID, ch)
	}()
	return ch
}

// Publish never blocks. A client whose buffer is full misses the item.
func (s *OrderStream) Publish(item models.OrderItem) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.clients[item.EventID] {
		select {
		case ch <- item:
		default:
		}
	}
}

func (s *OrderStream) ClientCount(eventID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[eventID])
}

func (s *OrderStream) remove(eventID string, ch chan models.OrderItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[eventID][ch]; !ok {
		return
	}
	delete(s.clients[eventID], ch)
	close(ch)
	if len(s.clients[eventID]) == 0 {
		delete(s.clients, eventID)
	}
}
