package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JoseMiracle/MIMI/internal/auth"
	"github.com/JoseMiracle/MIMI/internal/config"
	"github.com/JoseMiracle/MIMI/internal/domain"
	"github.com/JoseMiracle/MIMI/internal/handler"
	"github.com/JoseMiracle/MIMI/internal/hub"
	"github.com/JoseMiracle/MIMI/internal/repository"
	"github.com/JoseMiracle/MIMI/internal/router"
	"github.com/JoseMiracle/MIMI/pkg/database"
	"github.com/JoseMiracle/MIMI/pkg/jwt"
	"github.com/JoseMiracle/MIMI/pkg/log"
	"github.com/JoseMiracle/MIMI/pkg/pubsub"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()
	logger.Info().Int("port", cfg.Server.Port).Msg("starting mimi server")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.RoomModel{},
		&domain.RoomMemberModel{},
		&domain.ConversationModel{},
		&domain.MessageModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	users := repository.NewGormUserRepository(db)
	rooms := repository.NewGormRoomRepository(db)
	messages := repository.NewGormMessageRepository(db)

	tokens := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.AccessTokenTTL, cfg.Auth.Issuer)
	authenticator := auth.NewTokenAuthenticator(tokens, users)
	gate := auth.NewGate(rooms)

	registry := hub.NewRegistry()

	var dispatcher hub.Dispatcher
	switch cfg.Broker.Mode {
	case "redis":
		bus, err := pubsub.NewRedisPubSub(cfg.Broker.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer bus.Close()
		dispatcher = hub.NewRedisDispatcher(registry, bus)
		logger.Info().Str("address", cfg.Broker.Redis.Address).Msg("fan-out via redis")
	default:
		dispatcher = hub.NewLocalDispatcher(registry)
		logger.Info().Msg("fan-out in process")
	}
	defer dispatcher.Close()

	messageRouter := router.New(messages, dispatcher)

	wsHandler := handler.NewWSHandler(registry, dispatcher, messageRouter, authenticator, gate, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(messages, authenticator, gate)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(log.GinMiddleware(logger), gin.Recovery())
	wsHandler.RegisterRoutes(engine)
	httpHandler.RegisterRoutes(engine)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     engine,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("stopped")
}
