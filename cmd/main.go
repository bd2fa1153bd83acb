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

	"github.com/JLSed/ShoeFreak-Admin/internal/audit"
	"github.com/JLSed/ShoeFreak-Admin/internal/config"
	"github.com/JLSed/ShoeFreak-Admin/internal/gate"
	"github.com/JLSed/ShoeFreak-Admin/internal/handler"
	"github.com/JLSed/ShoeFreak-Admin/internal/identity"
	"github.com/JLSed/ShoeFreak-Admin/internal/pubsub"
	"github.com/JLSed/ShoeFreak-Admin/internal/repository"
	"github.com/JLSed/ShoeFreak-Admin/pkg/database"
	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	l := log.L()
	l.Info().Int("port", cfg.Server.Port).Msg("starting admin console")

	// Event bus (push transport)
	bus, err := pubsub.NewRedisBus(cfg.Redis)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer bus.Close()

	// Audit sink
	var recorder audit.Recorder = audit.NewLogRecorder()
	if cfg.Audit.Enabled {
		kafkaRec, err := audit.NewKafkaRecorder(cfg.Audit)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to create kafka audit recorder")
		}
		defer kafkaRec.Close()
		recorder = audit.Fanout{recorder, kafkaRec}
	}

	// Role store (SQL) and message store (SQL or Cassandra)
	db, err := database.New(&cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &repository.AccountModel{}, &repository.MessageModel{}); err != nil {
		l.Fatal().Err(err).Msg("failed to migrate database")
	}
	roles := repository.NewGormRoleStore(db)

	var messages repository.MessageStore
	switch cfg.Messages.Driver {
	case "cassandra":
		cassandra, err := repository.NewCassandraMessageStore(cfg.Cassandra)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to connect to cassandra")
		}
		defer cassandra.Close()
		messages = cassandra
	default:
		messages = repository.NewGormMessageStore(db)
	}
	// Inserts echo through the live feed.
	messages = repository.NewEchoingMessageStore(messages, bus)

	// Identity, resolver, gate
	if cfg.Auth.Secret == "" {
		l.Fatal().Msg("auth.secret is required")
	}
	provider := identity.NewJWTProvider(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.RevocationTTL)
	resolver := gate.NewResolver(provider, roles,
		gate.WithTimeout(cfg.Gate.ResolveTimeout),
		gate.WithAuditRecorder(recorder),
	)
	// One gate per client credential: last-route-wins is per caller.
	accessGate := gate.NewRegistry(resolver, []gate.Option{
		gate.WithRedirects(cfg.Gate.LoginRoute, cfg.Gate.HomeRoute),
		gate.WithRecorder(recorder),
	})

	// HTTP surface
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(log.GinMiddleware(l))

	sessionMW := handler.NewSessionMiddleware(resolver)
	httpHandler := handler.NewHTTPHandler(accessGate, messages, recorder)
	httpHandler.RegisterRoutes(engine, sessionMW)

	wsHandler := handler.NewWSHandler(messages, bus, cfg.WebSocket, cfg.Messages)
	wsHandler.RegisterRoutes(engine, sessionMW)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("stopped")
}
