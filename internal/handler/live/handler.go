package live

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/visionthread/backend/internal/middleware"
	"github.com/zhouzirui/visionthread/backend/internal/service/events"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Handler WebSocket时间线推送处理器
type Handler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(hub *events.Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/live", h.handleLive)
}

type outgoingMessage struct {
	Type      string       `json:"type"`
	SessionID string       `json:"sessionId,omitempty"`
	Data      events.Event `json:"data"`
	Timestamp int64        `json:"timestamp"`
}

// handleLive 将会话的章节事件实时推送给客户端
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	eventCh, cancel := h.hub.Subscribe(sessionID)
	defer cancel()

	log.Printf("[ws] live timeline connected for session=%s", sessionID)

	// 读协程只负责感知客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			log.Printf("[ws] live timeline closed for session=%s", sessionID)
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event := <-eventCh:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			message := outgoingMessage{
				Type:      string(event.Type),
				SessionID: sessionID,
				Data:      event,
				Timestamp: time.Now().UnixMilli(),
			}
			if err := conn.WriteJSON(message); err != nil {
				log.Printf("[ws] failed to push event for session=%s: %v", sessionID, err)
				return
			}
		}
	}
}
