package style

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/visionthread/backend/internal/model/style"
)

// Handler 叙事风格的HTTP处理器
type Handler struct {
	styles style.Store
}

// New 创建风格处理器
func New(styles style.Store) *Handler {
	return &Handler{styles: styles}
}

// RegisterRoutes 注册风格相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/styles", h.handleListStyles)
}

// handleListStyles 列出所有内置叙事风格
func (h *Handler) handleListStyles(w http.ResponseWriter, r *http.Request) {
	styles := h.styles.List()
	h.respondJSON(w, http.StatusOK, styles)
}

// respondJSON 发送JSON响应
func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
