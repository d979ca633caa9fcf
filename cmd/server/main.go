package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Network1945/backend/internal/auth"
	"github.com/Network1945/backend/internal/broadcast"
	"github.com/Network1945/backend/internal/config"
	"github.com/Network1945/backend/internal/coordination"
	"github.com/Network1945/backend/internal/database"
	"github.com/Network1945/backend/internal/logging"
	"github.com/Network1945/backend/internal/redis"
	"github.com/Network1945/backend/internal/server"
	"github.com/Network1945/backend/internal/ws"
)

const heartbeatInterval = 15 * time.Second

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to create Redis client", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, broadcaster *broadcast.Broadcaster, relay *redis.PubSubRelay, cancelBackground context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		cancelBackground()
		broadcaster.Stop()
		if err := relay.Close(); err != nil {
			slog.Error("Relay close error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	err = database.RunMigrations(ctx, pool)
	cancel()
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	store := redis.NewPresenceStore(redisClient)
	relay := redis.NewPubSubRelay(redisClient)
	broadcaster := broadcast.NewBroadcaster(relay)

	authSvc := auth.NewService(cfg.JWTSecret, clock)

	gateway := ws.NewGateway(store, broadcaster, authSvc, clock, ws.Config{
		TickInterval:   cfg.PresenceTickInterval,
		SendToAll:      cfg.PresenceSendToAll,
		AllowAnonymous: cfg.AllowAnonymous,
		MaxConnections: cfg.MaxWSConnections,
		MaxPerIP:       cfg.MaxWSPerIP,
		DialRate:       cfg.WSDialRate,
		DialBurst:      cfg.WSDialBurst,
	})

	userRepo := database.NewUserRepo(pool)
	roomRepo := database.NewRoomRepo(pool)

	registry := coordination.NewInstanceRegistry(redisClient.Underlying(), uuid.NewString(), heartbeatInterval, clock)
	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	go registry.Start(backgroundCtx)

	srv := server.NewServer(cfg, userRepo, roomRepo, authSvc, gateway, redisClient, pool, registry)

	done := runGracefulShutdown(srv, broadcaster, relay, cancelBackground)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
