package websocket

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/twokeyapp/lahja/domain/entities"
	"github.com/twokeyapp/lahja/usecase"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients are authenticated with a bearer token before the
		// upgrade; origin is not restricted.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active practice connections. Each connection is
// an independent practice channel: the client picks a phrase, streams audio
// chunks and receives the scored result over the same socket.
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	mu sync.RWMutex

	curriculum *entities.Curriculum
	analysis   *usecase.AnalysisService

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(curriculum *entities.Curriculum, analysis *usecase.AnalysisService, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		curriculum: curriculum,
		analysis:   analysis,
		logger:     logger,
	}
}

// Run starts the hub's main loop. It exits on Stop after dropping every
// remaining client.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Practice client connected",
				zap.String("connectionID", client.id),
				zap.String("clientID", client.clientID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Info("Practice client disconnected", zap.String("connectionID", client.id))

		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Info("Practice hub stopped")
			return
		}
	}
}

// Stop terminates the hub loop and disconnects all practice clients. Safe to
// call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected practice clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades an authenticated HTTP request to a practice connection.
func Serve(hub *Hub, c echo.Context, clientID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("Failed to upgrade connection", zap.Error(err))
		return err
	}

	client := &Client{
		id:       uuid.NewString(),
		clientID: clientID,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 16),
		logger:   logger,
	}

	hub.register <- client

	go client.writePump()
	go client.readPump()

	return nil
}
