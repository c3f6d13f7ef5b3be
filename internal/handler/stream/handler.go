package stream

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/visionthread/backend/internal/middleware"
	"github.com/zhouzirui/visionthread/backend/internal/service/events"
	"github.com/zhouzirui/visionthread/backend/pkg/utils"
)

// Handler streams chapter events for the caller's session over Server-Sent
// Events, so the timeline can update without polling.
type Handler struct {
	hub *events.Hub
}

// New creates a new stream handler.
func New(hub *events.Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes 注册SSE相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := middleware.SessionID(r.Context())
	utils.SetupSSEHeaders(w)

	eventCh, cancel := h.hub.Subscribe(sessionID)
	defer cancel()

	log.Printf("[sse] opening chapter stream for session=%s", sessionID)
	utils.SendSSEChunk(w, flusher, map[string]any{
		"event":   "status",
		"message": "stream established",
	})

	ctx := r.Context()
	ticker := time.NewTicker(8 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing chapter stream for session=%s", sessionID)
			return
		case t := <-ticker.C:
			utils.SendSSEChunk(w, flusher, map[string]any{
				"event": "heartbeat",
				"time":  t.UTC().Format(time.RFC3339),
			})
		case event := <-eventCh:
			utils.SendSSEChunk(w, flusher, event)
		}
	}
}
