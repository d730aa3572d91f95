package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"quizgen-backend/internal/config"
	"quizgen-backend/internal/models"
)

// UpdatesChannel is the Redis pub/sub channel session events travel on.
const UpdatesChannel = "quiz_updates"

// writeWait bounds a single write to a client.
const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub pushes session events to every connected client. With a Redis client
// events are published to UpdatesChannel and delivered from the subscription;
// without one they are broadcast directly.
type Hub struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]*sync.Mutex
	redisClient *redis.Client
	snapshot    func() models.SessionView
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]*sync.Mutex),
		redisClient: redisClient,
	}
}

// SetSnapshot registers the source of the greeting sent to new clients.
func (h *Hub) SetSnapshot(fn func() models.SessionView) {
	h.snapshot = fn
}

// Run consumes the Redis subscription until ctx is done. It returns
// immediately when the hub has no Redis client.
func (h *Hub) Run(ctx context.Context) {
	if h.redisClient == nil {
		return
	}

	pubsub := h.redisClient.Subscribe(ctx, UpdatesChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *Hub) Publish(ctx context.Context, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		config.WithContext(ctx).WithError(err).Errorf("failed to encode %s event", msg.Type)
		return
	}

	if h.redisClient == nil {
		h.broadcast(data)
		return
	}
	if err := h.redisClient.Publish(ctx, UpdatesChannel, string(data)).Err(); err != nil {
		config.WithContext(ctx).WithError(err).Warn("Redis publish failed, broadcasting locally")
		h.broadcast(data)
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	writeMu := h.registerConnection(conn)

	if h.snapshot != nil {
		data, _ := json.Marshal(models.WSMessage{Type: models.EventSnapshot, Payload: h.snapshot()})
		if err := writeMessage(conn, writeMu, data); err != nil {
			log.WithError(err).Debug("snapshot write failed")
			h.unregisterConnection(conn)
			return
		}
	}

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) registerConnection(conn *websocket.Conn) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()

	writeMu := &sync.Mutex{}
	h.connections[conn] = writeMu
	config.Logger.Debugf("WebSocket connected (total: %d)", len(h.connections))
	return writeMu
}

func (h *Hub) unregisterConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	if _, ok := h.connections[conn]; !ok {
		return
	}
	delete(h.connections, conn)
	config.Logger.Debugf("WebSocket disconnected (total: %d)", len(h.connections))
}

// broadcast writes data to every client outside the hub lock. A client whose
// write fails or times out is dropped.
func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.connections))
	for conn, writeMu := range h.connections {
		targets[conn] = writeMu
	}
	h.mu.RUnlock()

	for conn, writeMu := range targets {
		if err := writeMessage(conn, writeMu, data); err != nil {
			config.Logger.WithError(err).Debug("dropping WebSocket client after failed write")
			h.unregisterConnection(conn)
		}
	}
}

func writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, data []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
