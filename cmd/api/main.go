package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/visionthread/backend/internal/config"
	"github.com/zhouzirui/visionthread/backend/internal/handler"
	"github.com/zhouzirui/visionthread/backend/internal/model/story"
	"github.com/zhouzirui/visionthread/backend/internal/model/style"
	"github.com/zhouzirui/visionthread/backend/internal/service/events"
	"github.com/zhouzirui/visionthread/backend/internal/service/generator"
	storyService "github.com/zhouzirui/visionthread/backend/internal/service/story"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize session store and background expiry sweep
	store := story.NewStore()
	store.StartSweeper(ctx, cfg.Story.SweepInterval, cfg.Story.SessionTimeout)

	styleStore := style.NewMemoryStore(style.Seed())
	hub := events.NewHub()

	gen, err := newGenerator(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize narrative generator: %v", err)
	}

	storySvc := storyService.NewService(store, styleStore, gen, hub, cfg.Story.MaxImageBytes)
	router := handler.NewRouter(styleStore, storySvc, hub)

	startServer(ctx, cfg.Server, router)
}

// newGenerator selects the one provider adapter the deployment runs with. A
// deployment without credentials still serves reads; analyze operations
// respond 503 until credentials are configured.
func newGenerator(ctx context.Context, cfg config.AIConfig) (generator.Generator, error) {
	provider, err := cfg.ResolveProvider()
	if err != nil {
		return nil, err
	}

	switch provider {
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, err
		}
		log.Println("narrative generator initialized with Ark")
		return generator.NewArk(chatModel), nil
	case config.ProviderGemini:
		gen, err := generator.NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Println("narrative generator initialized with Gemini")
		return gen, nil
	case config.ProviderOpenAI:
		gen, err := generator.NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		log.Println("narrative generator initialized with OpenAI")
		return gen, nil
	default:
		log.Println("生成服务凭证未配置，跳过叙事生成功能初始化")
		return nil, nil
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("VisionThread backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
