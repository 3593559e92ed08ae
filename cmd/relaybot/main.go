// Command relaybot runs the support relay: a Telegram bot that forwards
// user messages into a single operator channel and routes the operators'
// replies back, plus a small HTTP server for liveness probes and
// Prometheus metrics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-support-relay/internal/config"
	"github.com/tbourn/go-support-relay/internal/domain"
	httpapi "github.com/tbourn/go-support-relay/internal/http"
	"github.com/tbourn/go-support-relay/internal/metrics"
	"github.com/tbourn/go-support-relay/internal/observability"
	"github.com/tbourn/go-support-relay/internal/relay"
	"github.com/tbourn/go-support-relay/internal/repo"
	"github.com/tbourn/go-support-relay/internal/services"
	"github.com/tbourn/go-support-relay/internal/sweeper"
	"github.com/tbourn/go-support-relay/internal/sysutil"
	"github.com/tbourn/go-support-relay/internal/telegram"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// userRepoShim adapts the repository free functions to the interfaces the
// services expect. This keeps services decoupled from the concrete repo
// package while reusing existing functions.
type userRepoShim struct{}

func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, userID int64) (*domain.User, error) {
	return repo.GetUser(ctx, db, userID)
}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, userID int64, firstName, username, displayID string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, userID, firstName, username, displayID)
}

func (userRepoShim) UpdateUserProfile(ctx context.Context, db *gorm.DB, userID int64, firstName, username string) error {
	return repo.UpdateUserProfile(ctx, db, userID, firstName, username)
}

func (userRepoShim) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUsers(ctx, db)
}

func (userRepoShim) ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	return repo.ListUsers(ctx, db)
}

type ticketRepoShim struct{}

func (ticketRepoShim) CreateTicket(ctx context.Context, db *gorm.DB, operatorMessageID int, userID int64, userName, displayID, question string) (*domain.Ticket, error) {
	return repo.CreateTicket(ctx, db, operatorMessageID, userID, userName, displayID, question)
}

func (ticketRepoShim) GetTicketByOperatorMessageID(ctx context.Context, db *gorm.DB, operatorMessageID int) (*domain.Ticket, error) {
	return repo.GetTicketByOperatorMessageID(ctx, db, operatorMessageID)
}

func (ticketRepoShim) MarkTicketSolved(ctx context.Context, db *gorm.DB, operatorMessageID int, answer, responder string) error {
	return repo.MarkTicketSolved(ctx, db, operatorMessageID, answer, responder)
}

type trackingRepoShim struct{}

func (trackingRepoShim) UpsertReplyTracking(ctx context.Context, db *gorm.DB, operatorReplyMessageID int, userChatID int64, relayedMessageID int, responder, userName string) error {
	return repo.UpsertReplyTracking(ctx, db, operatorReplyMessageID, userChatID, relayedMessageID, responder, userName)
}

func (trackingRepoShim) GetReplyTracking(ctx context.Context, db *gorm.DB, operatorReplyMessageID int) (*domain.ReplyTracking, error) {
	return repo.GetReplyTracking(ctx, db, operatorReplyMessageID)
}

func main() {
	// Local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("open database failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("db tracing disabled")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	msgs := relay.CatalogFor(cfg.Lang)
	identity := services.NewIdentityService(db, userRepoShim{})

	// The dispatcher and the transport both need the bot client, and the
	// services need the transport; build the client first, fill in the
	// service fields, then start polling.
	disp := &telegram.Dispatcher{
		Identity:       identity,
		OperatorChatID: cfg.OperatorChatID,
		Msgs:           msgs,
		Log:            log.With().Str("component", "dispatch").Logger(),
	}
	b, err := telegram.New(cfg.BotToken, disp)
	if err != nil {
		log.Fatal().Err(err).Msg("bot init failed")
	}
	transport := telegram.NewTransport(b)

	disp.Relay = &services.RelayService{
		DB:             db,
		Tickets:        ticketRepoShim{},
		Tracking:       trackingRepoShim{},
		Identity:       identity,
		Transport:      transport,
		OperatorChatID: cfg.OperatorChatID,
		Msgs:           msgs,
		Log:            log.With().Str("component", "relay").Logger(),
	}
	disp.Broadcast = &services.BroadcastService{
		DB:             db,
		Users:          userRepoShim{},
		Transport:      transport,
		OperatorChatID: cfg.OperatorChatID,
		Msgs:           msgs,
		Log:            log.With().Str("component", "broadcast").Logger(),
	}

	if err := disp.RegisterCommands(ctx, b); err != nil {
		log.Warn().Err(err).Msg("command menu registration failed")
	}

	sw := sweeper.New(db, cfg.SweepInterval, cfg.RetentionMaxAge, cfg.TrackingMaxAge,
		log.With().Str("component", "sweeper").Logger())
	go sw.Run(ctx)

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, cfg)
	srv := httpapi.NewServer(engine, cfg)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("health server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server failed")
		}
	}()

	log.Info().
		Str("version", version).
		Int64("operator_chat_id", cfg.OperatorChatID).
		Str("lang", cfg.Lang).
		Msg("relay bot started")

	// Blocks until the context is canceled by a signal.
	b.Start(ctx)

	log.Info().Msg("shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("health server shutdown failed")
	}
	if err := shutdownOTel(shCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
