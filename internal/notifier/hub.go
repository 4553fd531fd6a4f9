package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"PriceOracle/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeWait = 5 * time.Second

// Event is one message pushed to progress subscribers.
type Event struct {
	Type      string  `json:"type"` // "progress" or "result"
	RunID     string  `json:"run_id"`
	Symbol    string  `json:"symbol"`
	Epoch     int     `json:"epoch,omitempty"`
	Epochs    int     `json:"epochs,omitempty"`
	Percent   int     `json:"percent,omitempty"`
	Loss      float64 `json:"loss,omitempty"`
	Predicted float64 `json:"predicted,omitempty"`
}

// Hub fans progress events out to websocket subscribers.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	lock      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 256),
	}
}

// Run delivers queued events until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.lock.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.lock.Unlock()
			return
		case message := <-h.broadcast:
			h.lock.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					client.Close()
					delete(h.clients, client)
				}
			}
			h.lock.Unlock()
		}
	}
}

// Publish queues an event. Events are dropped when the queue is full.
func (h *Hub) Publish(evt Event) {
	msg, err := json.Marshal(evt)
	if err != nil {
		log.Warn().Err(err).Msg("marshal hub event")
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Warn().Str("run_id", evt.RunID).Msg("progress hub queue full, dropping event")
	}
}

// Progress publishes p and never asks training to stop.
func (h *Hub) Progress(p model.Progress) bool {
	h.Publish(Event{
		Type:    "progress",
		RunID:   p.RunID,
		Symbol:  p.Symbol,
		Epoch:   p.Epoch,
		Epochs:  p.Epochs,
		Percent: p.Percent,
		Loss:    p.Loss,
	})
	return true
}

// Result publishes the final price of a run.
func (h *Hub) Result(f *model.Forecast) {
	h.Publish(Event{Type: "result", RunID: f.RunID, Symbol: f.Symbol, Predicted: f.Predicted})
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	h.lock.Lock()
	h.clients[conn] = true
	h.lock.Unlock()

	// Drain client frames so close and ping frames are handled.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				h.lock.Lock()
				if h.clients[conn] {
					conn.Close()
					delete(h.clients, conn)
				}
				h.lock.Unlock()
				return
			}
		}
	}()
}
