package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	ledgerauth "github.com/eaglebank/ledger-service/internal/auth"
	"github.com/eaglebank/ledger-service/internal/command"
	"github.com/eaglebank/ledger-service/internal/config"
	"github.com/eaglebank/ledger-service/internal/handler"
	"github.com/eaglebank/ledger-service/internal/query"
	"github.com/eaglebank/ledger-service/internal/repository"
	"github.com/eaglebank/ledger-service/internal/tools"
	"github.com/eaglebank/ledger-service/shared/events"
	"github.com/eaglebank/ledger-service/shared/middleware"
	redisClient "github.com/eaglebank/ledger-service/shared/redis"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Ledger service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Redis is optional: without it there is no view cache and no event stream.
	var (
		redis     *redisClient.Client
		publisher command.EventPublisher
	)
	if cfg.RedisAddr != "" {
		redis, err = redisClient.NewClient(ctx, redisClient.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer redis.Close()
		publisher = events.NewPublisher(redis.Client)
	}

	var redisConn *goredis.Client
	if redis != nil {
		redisConn = redis.Client
	}
	readRepo := repository.NewAccountReadRepository(store, redisConn, cfg.ViewCacheTTL)

	// Command + Query services
	commandSvc := command.NewLedgerCommandService(store, readRepo, publisher, command.Options{
		DefaultSortCode: cfg.DefaultSortCode,
		Currency:        cfg.Currency,
	})
	querySvc := query.NewLedgerQueryService(readRepo, store)
	toolRouter := tools.NewRouter(commandSvc, querySvc, cfg.Currency)

	if redis != nil {
		hostname, _ := os.Hostname()
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:     "ledger-projector",
			Consumer:  "ledger-" + hostname,
			Stream:    events.LedgerEventsStream,
			Handler:   query.NewAccountViewProjector(readRepo).HandleLedgerEvent,
			ClaimIdle: 30 * time.Second,
		})
		go func() {
			if err := subscriber.Start(ctx); err != nil {
				slog.Error("Projector subscriber stopped", "error", err)
			}
		}()
	}

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	var (
		auth        []gin.HandlerFunc
		authHandler *handler.AuthHandler
	)
	if cfg.JWTSecret != "" {
		auth = append(auth, middleware.AuthMiddleware([]byte(cfg.JWTSecret)))
		clients, err := ledgerauth.ParseClients(cfg.APIClients)
		if err != nil {
			return fmt.Errorf("API_CLIENTS: %w", err)
		}
		if len(clients) > 0 {
			authHandler = handler.NewAuthHandler(ledgerauth.NewTokenService([]byte(cfg.JWTSecret), clients, cfg.TokenTTL))
		}
	} else {
		slog.Warn("JWT_SECRET not set, serving without caller authentication")
	}
	handler.RegisterRoutes(router, handler.NewLedgerHandler(commandSvc, querySvc), handler.NewToolHandler(toolRouter), authHandler, auth...)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Ledger service starting", "port", cfg.Port, "store", cfg.Store, "redis", cfg.RedisAddr != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return repository.NewMemoryStore(), nil
	case config.StorePostgres:
		pg, err := repository.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown LEDGER_STORE %q", cfg.Store)
	}
}
