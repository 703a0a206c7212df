package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/examcore/exam-service/internal/config"
	"github.com/examcore/exam-service/internal/events"
	"github.com/examcore/exam-service/internal/handlers"
	"github.com/examcore/exam-service/internal/mail"
	"github.com/examcore/exam-service/internal/repositories/postgres"
	"github.com/examcore/exam-service/internal/services"
	"github.com/examcore/exam-service/internal/validator"
	"github.com/examcore/exam-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting exam service", "environment", cfg.Environment, "port", cfg.Port)

	db, err := pkg.InitDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, running without cache", "error", err)
		} else {
			logger.Info("redis cache enabled")
		}
	}

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err := repoManager.Initialize(); err != nil {
		logger.Error("failed to initialize repositories", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaPublisher(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.Error("failed to connect to kafka", "brokers", cfg.KafkaBrokers, "error", err)
			os.Exit(1)
		}
		logger.Info("kafka event publisher enabled", "brokers", cfg.KafkaBrokers)
	} else {
		publisher = events.NewGoChannelPublisher(logger)
	}

	var mailer mail.Mailer
	if cfg.MailEnabled() {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
	} else {
		mailer = mail.NewNoopMailer(logger)
	}

	serviceManager := services.NewDefaultServiceManager(
		repoManager.GetRepository(),
		logger,
		validator.New(),
		publisher,
		mailer,
		services.AuthConfig{
			JWTSecret: cfg.JWTSecret,
			TokenTTL:  cfg.TokenTTL,
			DevMode:   !cfg.IsProduction(),
		},
	)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handlers.SetupMiddleware(router, logger)

	handlerManager := handlers.NewHandlerManager(serviceManager)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("service shutdown failed", "error", err)
	}
	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("repository shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("shutdown complete")
}
