package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/visionthread/backend/internal/handler/live"
	"github.com/zhouzirui/visionthread/backend/internal/handler/story"
	"github.com/zhouzirui/visionthread/backend/internal/handler/stream"
	styleHandler "github.com/zhouzirui/visionthread/backend/internal/handler/style"
	middlewarePkg "github.com/zhouzirui/visionthread/backend/internal/middleware"
	styleModel "github.com/zhouzirui/visionthread/backend/internal/model/style"
	"github.com/zhouzirui/visionthread/backend/internal/service/events"
	storyService "github.com/zhouzirui/visionthread/backend/internal/service/story"
	"github.com/zhouzirui/visionthread/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(styles styleModel.Store, storySvc *storyService.Service, hub *events.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	start := time.Now()

	// Health check endpoints for the hosting platform
	r.Get("/health", healthHandler(start, ""))
	r.Get("/api/health", healthHandler(start, "VisionThread API is running"))

	storyH := story.New(storySvc)
	styleH := styleHandler.New(styles)
	streamH := stream.New(hub)
	liveH := live.New(hub)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.Session)

		storyH.RegisterRoutes(api)
		styleH.RegisterRoutes(api)
		streamH.RegisterRoutes(api)
		liveH.RegisterRoutes(api)
	})

	return r
}

// healthHandler reports liveness plus process uptime.
func healthHandler(start time.Time, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"status":    "healthy",
			"uptime":    time.Since(start).Seconds(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if message != "" {
			payload["message"] = message
		}
		utils.RespondJSON(w, http.StatusOK, payload)
	}
}
