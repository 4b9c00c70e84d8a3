package port

import (
	"context"
	"sync"
)

// Hub fans watch updates out to every connected task pane.
type Hub struct {
	sync.RWMutex

	// Registered clients.
	clients map[*Client]bool

	// Outbound updates for all clients.
	broadcast chan []byte

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Broadcast hands an update to run for delivery. Clients that cannot keep
// up are dropped there.
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

func (h *Hub) ClientCount() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.clients)
}

func (h *Hub) run(ctx context.Context) {
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case client := <-h.register:
			func() {
				h.Lock()
				defer h.Unlock()
				h.clients[client] = true
			}()
		case client := <-h.unregister:
			func() {
				h.Lock()
				defer h.Unlock()
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					close(client.send)
				}
			}()
		case message := <-h.broadcast:
			func() {
				h.Lock()
				defer h.Unlock()
				for client := range h.clients {
					select {
					case client.send <- message:
					default:
						close(client.send)
						delete(h.clients, client)
					}
				}
			}()
		}
	}
}
