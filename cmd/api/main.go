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

	"github.com/zhouzirui/threebody-chat/internal/config"
	"github.com/zhouzirui/threebody-chat/internal/handler"
	"github.com/zhouzirui/threebody-chat/internal/model/persona"
	"github.com/zhouzirui/threebody-chat/internal/service/ai"
	"github.com/zhouzirui/threebody-chat/internal/service/chat"
	"github.com/zhouzirui/threebody-chat/internal/service/credential"
	"github.com/zhouzirui/threebody-chat/internal/service/orbit"
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

	credentials, err := credential.Load(cfg.Credential.Path)
	if err != nil {
		// A broken file should not keep the UI from starting; the user can
		// save a new key from the page.
		log.Printf("warning: %v", err)
		log.Println("continuing without a stored API key")
		credentials = credential.NewFileStore(cfg.Credential.Path)
	}
	if !credentials.Present() {
		log.Println("no Claude API key configured, enter one in the web page")
	}

	client := ai.NewClient(cfg.AI.BaseURL)
	chatService := chat.NewService(credentials, client)

	router := handler.NewRouter(handler.Dependencies{
		Personas:       persona.NewCatalog(),
		Chat:           chatService,
		Credentials:    credentials,
		Animator:       orbit.NewAnimator(cfg.Orbit.FPS),
		StarCount:      cfg.Orbit.StarCount,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Three-Body Conversations listening on %s", addr)
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
