package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aurios-ai/aurios/ai"
	"github.com/aurios-ai/aurios/api"
	"github.com/aurios-ai/aurios/auth"
	"github.com/aurios-ai/aurios/internal/config"
	"github.com/aurios-ai/aurios/internal/slogging"
	"github.com/aurios-ai/aurios/internal/telemetry"
	"github.com/aurios-ai/aurios/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server exited: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := slogging.Initialize(slogging.Config{
		Level:            cfg.GetLogLevel(),
		IsDev:            cfg.Logging.IsDev,
		LogDir:           cfg.Logging.LogDir,
		MaxAgeDays:       cfg.Logging.MaxAgeDays,
		MaxSizeMB:        cfg.Logging.MaxSizeMB,
		MaxBackups:       cfg.Logging.MaxBackups,
		AlsoLogToConsole: cfg.Logging.AlsoLogToConsole,
	}); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	logger := slogging.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("telemetry shutdown: %v", err)
		}
	}()

	db, err := gorm.Open(postgres.Open(cfg.Database.Postgres.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	if err := api.AutoMigrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Database.Redis.Addr(),
		Password: cfg.Database.Redis.Password,
		DB:       cfg.Database.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close: %v", err)
		}
	}()

	authService := auth.NewService(cfg.Auth.JWT.Secret, cfg.GetJWTDuration(), redisClient)

	conversations := api.NewConversationStore(db)
	agents := api.NewAgentStore(db)

	var responder ws.AIResponder
	var streamer *ai.Streamer
	if cfg.AI.APIKey != "" {
		llm, err := ai.NewClient(cfg.AI)
		if err != nil {
			return fmt.Errorf("build AI client: %w", err)
		}
		streamer = ai.NewStreamer(cfg.AI, llm, conversations, agents)
		responder = streamer
	} else {
		logger.Warn("no AI API key configured, assistant responses disabled")
	}

	registry := ws.NewRegistry(ws.Config{
		MaxConnectionsPerUser:   cfg.WebSocket.MaxConnectionsPerUser,
		MaxConnectionsPerTenant: cfg.WebSocket.MaxConnectionsPerTenant,
		MessageRateLimit:        cfg.WebSocket.MessageRateLimit,
		SweepInterval:           cfg.WebSocket.SweepInterval,
		IdleTimeout:             cfg.WebSocket.IdleTimeout,
	}, conversations, responder)
	if streamer != nil {
		streamer.Bind(registry)
	}

	server := api.NewServer(db, authService, registry)

	if !cfg.Logging.IsDev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	server.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		registry.RunSweeper(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
