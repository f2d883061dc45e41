package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PanelKit/backend/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Event is a change notification pushed to connected hosts.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Event types pushed by the hub.
const (
	EventMessage       = "message"
	EventNavigation    = "navigation"
	EventConfigApplied = "config_applied"
	EventStateCleared  = "state_cleared"
)

// Hub fans change notifications out to every connected client. The core
// stays synchronous; only this boundary pushes.
type Hub struct {
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Event
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[string]*client),
	}
}

// WithMetrics adds metrics tracking to the hub.
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// Broadcast queues an event for every connected client. A client whose
// buffer is full is dropped rather than allowed to stall the rest.
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	event := Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}

	h.mu.RLock()
	stalled := make([]*client, 0)
	for _, c := range h.clients {
		select {
		case c.send <- event:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.logger.Warn("Dropping stalled client", zap.String("client_id", c.id))
		h.remove(c)
	}

	if h.metrics != nil {
		h.metrics.WSEvents.WithLabelValues(eventType).Inc()
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleConnection upgrades the request and serves the client until it
// disconnects.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Event, 64),
	}
	h.add(cl)
	defer h.remove(cl)

	conn.WriteJSON(Event{
		Type:      "connected",
		Payload:   gin.H{"client_id": cl.id},
		Timestamp: time.Now().UnixMilli(),
	})

	go cl.writePump()

	// Reads only detect disconnects and answer pings; all data flows
	// through the HTTP API.
	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg["type"] == "ping" {
			select {
			case cl.send <- Event{Type: "pong", Timestamp: time.Now().UnixMilli()}:
			default:
			}
		}
	}
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}
	h.logger.Debug("Client connected", zap.String("client_id", cl.id))
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	_, present := h.clients[cl.id]
	if present {
		delete(h.clients, cl.id)
		close(cl.send)
	}
	h.mu.Unlock()

	if !present {
		return
	}
	cl.conn.Close()
	if h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
	h.logger.Debug("Client disconnected", zap.String("client_id", cl.id))
}

func (cl *client) writePump() {
	for event := range cl.send {
		if err := cl.conn.WriteJSON(event); err != nil {
			return
		}
	}
}
