package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fellas-token/backend/internal/auth"
	"github.com/fellas-token/backend/internal/config"
	"github.com/fellas-token/backend/internal/events"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WSHub pushes collection events to every authenticated socket.
type WSHub struct {
	cfg         *config.Config
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.Mutex
	connections map[uuid.UUID][]*websocket.Conn
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:         cfg,
		subscriber:  subscriber,
		log:         log,
		connections: make(map[uuid.UUID][]*websocket.Conn),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.StreamCollection, h.broadcast)
}

func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	// websocket.Conn does not allow concurrent writers.
	h.mu.Lock()
	defer h.mu.Unlock()

	for sid, conns := range h.connections {
		for _, conn := range conns {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debug("ws write failed", zap.String("session", sid.String()), zap.Error(err))
			}
		}
	}
}

// Clients returns the number of open sockets.
func (h *WSHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, conns := range h.connections {
		n += len(conns)
	}
	return n
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.cfg.JWTSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	sid := claims.SessionID

	h.mu.Lock()
	h.connections[sid] = append(h.connections[sid], conn)
	h.mu.Unlock()
	h.log.Debug("ws connected", zap.String("operator", claims.Operator), zap.String("session", sid.String()))

	defer func() {
		h.mu.Lock()
		conns := h.connections[sid]
		for i, c := range conns {
			if c == conn {
				h.connections[sid] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.connections[sid]) == 0 {
			delete(h.connections, sid)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
