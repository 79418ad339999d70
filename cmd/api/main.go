// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/govinda610/chacha-website/internal/config"
	"github.com/govinda610/chacha-website/internal/domain/cart"
	"github.com/govinda610/chacha-website/internal/domain/session"
	"github.com/govinda610/chacha-website/internal/infrastructure/database/redis"
	"github.com/govinda610/chacha-website/internal/interfaces/http"
	"github.com/govinda610/chacha-website/internal/pkg/logger"
	"github.com/govinda610/chacha-website/internal/remote"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	appLog.Infof("Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		appLog.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	if err := redisClient.Health(); err != nil {
		appLog.Fatalf("Redis health check failed: %v", err)
	}

	// Remote service client behind the circuit breaker
	client := remote.NewClient(cfg, logger.WithComponent(appLog, "remote"))
	catalog := remote.NewCatalogClient(client)

	// Guest cart persistence and the guest-to-account merge engine
	guest := cart.NewRedisGuestPersistence(redisClient.GetClient(), cfg)
	syncer := cart.NewSyncEngine(guest, logger.WithComponent(appLog, "cart_sync"))

	// Session manager owns all live carts and checkout attempts
	sessions := session.NewManager(cfg, client, guest, catalog, syncer, logger.WithComponent(appLog, "session"))
	defer sessions.Close()

	// Create and start HTTP server
	server := http.NewServer(cfg, sessions, client, redisClient, appLog)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			appLog.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down gracefully")

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		appLog.Errorf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	appLog.Info("Server shutdown completed")
}
