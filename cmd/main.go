package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/Alkira-Consulting/skylight-web/internal/auth"
	"github.com/Alkira-Consulting/skylight-web/internal/config"
	"github.com/Alkira-Consulting/skylight-web/internal/controller"
	httpserver "github.com/Alkira-Consulting/skylight-web/internal/http"
	"github.com/Alkira-Consulting/skylight-web/internal/repository"
	"github.com/Alkira-Consulting/skylight-web/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	authClient, err := auth.NewClient(cfg)
	if err != nil {
		log.Fatalf("build auth client: %v", err)
	}

	engines := repository.NewFactory(cfg)
	sessions := service.NewSessionService(authClient, cfg)

	dashboard, err := service.NewDashboardService(sessions, engines, cfg)
	if err != nil {
		log.Fatalf("build dashboard service: %v", err)
	}

	var refresher *service.Refresher
	if cfg.RefreshEnabled {
		refresher = service.NewRefresher(dashboard, sessions, cfg.RefreshInterval)
	}

	ctrl := controller.NewDashboardController(sessions, dashboard, refresher)
	server := httpserver.NewServer(cfg, ctrl)

	go func() {
		<-ctx.Done()
		if refresher != nil {
			refresher.Shutdown()
		}
		if err := server.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("starting server on %s", cfg.HTTPPort)
	if err := server.Listen(cfg.HTTPPort); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
