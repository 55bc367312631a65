package websocket

import (
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type delivery struct {
	userID uuid.UUID
	data   []byte
}

// Hub tracks the open connections of each user and fans notifications out to
// them. All map mutation happens on the Run goroutine.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	publish    chan *delivery
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	logger     *log.Logger
	mu         sync.RWMutex
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan *delivery, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for _, set := range h.clients {
				for client := range set {
					client.Close()
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				set, ok := h.clients[client.userID]
				if !ok {
					set = make(map[*Client]bool)
					h.clients[client.userID] = set
				}
				set[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.userID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					client.Close()
				}
				if len(set) == 0 {
					delete(h.clients, client.userID)
				}
			}
			h.mu.Unlock()

		case d := <-h.publish:
			h.mu.RLock()
			for client := range h.clients[d.userID] {
				if !client.enqueue(d.data) {
					h.logger.Warn("dropping notification for slow client", "user", d.userID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop closes every connection and blocks until Run has returned.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister is safe to call after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Notify queues an event for every connection of userID. It satisfies
// service.Notifier.
func (h *Hub) Notify(userID uuid.UUID, event string, payload any) {
	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		h.logger.Error("ERROR [websocket.Notify] failed to build message", "event", event, "err", err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("ERROR [websocket.Notify] failed to marshal message", "event", event, "err", err)
		return
	}

	select {
	case h.publish <- &delivery{userID: userID, data: data}:
	case <-h.done:
	default:
		h.logger.Warn("notification queue full, dropping event", "event", event, "user", userID)
	}
}

// ConnectedCount returns the number of open connections for userID.
func (h *Hub) ConnectedCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
