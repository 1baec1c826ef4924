// Package realtime streams alerts to connected dashboards over websockets.
package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fuelsync-backend/internal/metrics"
	"fuelsync-backend/internal/models"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	// origins are enforced by the CORS layer and the token check
	CheckOrigin: func(r *http.Request) bool { return true },
}

type message struct {
	tenantID string
	alert    models.Alert
}

// Hub fans alerts out to the websocket clients of the alert's tenant.
type Hub struct {
	clients    map[*websocket.Conn]string
	clientsMux sync.Mutex
	broadcast  chan message
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]string),
		broadcast: make(chan message, 64),
	}
}

// Run delivers queued alerts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case m := <-h.broadcast:
			h.deliver(m)
		}
	}
}

// Broadcast queues an alert; it never blocks the caller.
func (h *Hub) Broadcast(tenantID string, alert models.Alert) {
	select {
	case h.broadcast <- message{tenantID: tenantID, alert: alert}:
	default:
		log.Warnf("[Realtime] broadcast queue full, dropping alert %s", alert.ID)
	}
}

func (h *Hub) deliver(m message) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for client, tenantID := range h.clients {
		if tenantID != m.tenantID {
			continue
		}
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteJSON(m.alert); err != nil {
			client.Close()
			delete(h.clients, client)
			metrics.RealtimeClients.Dec()
		}
	}
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, tenantID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Realtime] WebSocket upgrade error: %v", err)
		return
	}

	h.clientsMux.Lock()
	h.clients[conn] = tenantID
	h.clientsMux.Unlock()
	metrics.RealtimeClients.Inc()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		metrics.RealtimeClients.Dec()
	}
	conn.Close()
}

func (h *Hub) closeAll() {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
		metrics.RealtimeClients.Dec()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	return len(h.clients)
}
