package story

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/visionthread/backend/internal/middleware"
	"github.com/zhouzirui/visionthread/backend/internal/service/generator"
	storyService "github.com/zhouzirui/visionthread/backend/internal/service/story"
	"github.com/zhouzirui/visionthread/backend/pkg/utils"
)

// Handler 故事章节的HTTP处理器
type Handler struct {
	storySvc *storyService.Service
}

// New 创建章节处理器
func New(storySvc *storyService.Service) *Handler {
	return &Handler{storySvc: storySvc}
}

// RegisterRoutes 注册章节相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chapters", h.handleListChapters)
	r.Post("/analyze-image", h.handleAnalyzeImage)
	r.Post("/chapters", h.handleCreateFromURL)
	r.Delete("/chapters", h.handleResetStory)
	r.Get("/export", h.handleExportStory)
}

// handleListChapters 返回当前会话的全部章节
func (h *Handler) handleListChapters(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	chapters := h.storySvc.ListChapters(r.Context(), sessionID)
	utils.RespondJSON(w, http.StatusOK, chapters)
}

// handleAnalyzeImage 接收 multipart 上传的图片并生成新章节
func (h *Handler) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())

	// 给 multipart 封装留出余量，超限由服务层校验统一报错
	r.Body = http.MaxBytesReader(w, r.Body, h.storySvc.MaxImageBytes()+1<<20)

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Unable to read image file")
		return
	}

	img := generator.Image{Data: data, MIMEType: header.Header.Get("Content-Type")}
	chapter, err := h.storySvc.CreateChapterFromImage(r.Context(), sessionID, img, "", r.FormValue("style"))
	if err != nil {
		respondServiceError(w, "Failed to analyze image", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, chapter)
}

// handleCreateFromURL 基于图片 URL 或内联 base64 数据创建章节
func (h *Handler) handleCreateFromURL(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())

	var payload struct {
		ImageURL    string `json:"imageUrl"`
		Base64Image string `json:"base64Image"`
		Style       string `json:"style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	parsed, err := url.Parse(payload.ImageURL)
	if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	chapter, err := h.storySvc.CreateChapterFromURL(r.Context(), sessionID, payload.ImageURL, payload.Base64Image, payload.Style)
	if err != nil {
		respondServiceError(w, "Failed to create chapter", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, chapter)
}

// handleResetStory 清空当前会话的所有章节
func (h *Handler) handleResetStory(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	h.storySvc.ResetStory(r.Context(), sessionID)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "All chapters deleted successfully"})
}

// handleExportStory 以附件形式导出故事 JSON 文档
func (h *Handler) handleExportStory(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	export := h.storySvc.ExportStory(r.Context(), sessionID)

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="visual-story-%d.json"`, time.Now().UnixMilli()))
	utils.RespondJSON(w, http.StatusOK, export)
}

// respondServiceError 将服务层错误映射为对应的HTTP状态码
func respondServiceError(w http.ResponseWriter, message string, err error) {
	var validation *storyService.ValidationError
	switch {
	case errors.As(err, &validation):
		utils.RespondError(w, http.StatusBadRequest, validation.Reason)
	case errors.Is(err, storyService.ErrGeneratorUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, storyService.ErrGeneratorUnavailable.Error())
	default:
		utils.RespondErrorDetails(w, http.StatusInternalServerError, message, err.Error())
	}
}
