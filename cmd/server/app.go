package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/phrazzld/scry-decks/internal/config"
	"github.com/phrazzld/scry-decks/internal/domain/srs"
	"github.com/phrazzld/scry-decks/internal/events"
	"github.com/phrazzld/scry-decks/internal/platform/natsbus"
	"github.com/phrazzld/scry-decks/internal/platform/postgres"
	"github.com/phrazzld/scry-decks/internal/platform/sqlite"
	"github.com/phrazzld/scry-decks/internal/service"
	"github.com/phrazzld/scry-decks/internal/service/auth"
	"github.com/phrazzld/scry-decks/internal/service/session"
	"github.com/phrazzld/scry-decks/internal/store"
)

// application holds the shared dependencies of the server and releases
// them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore  store.UserStore
	deckStore  store.DeckStore
	cardStore  store.CardStore
	eventStore store.ReviewEventStore

	jwtService     auth.JWTService
	srsService     srs.Service
	userService    service.UserService
	deckService    service.DeckService
	cardService    service.CardService
	sessionService session.Service

	eventEmitter *events.InMemoryEventEmitter
	natsConn     *nats.Conn
}

// newApplication wires stores, services and the event pipeline for the
// configured database driver.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := app.setupStores(); err != nil {
		return nil, err
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	params, err := srs.NewParams(srs.ParamsConfig{
		K:            cfg.SRS.K,
		EaseFloor:    cfg.SRS.EaseFloor,
		StartingEase: cfg.SRS.StartingEase,
		MaxInterval:  cfg.SRS.MaxInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid review engine settings: %w", err)
	}
	app.srsService, err = srs.NewServiceWithParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	if err := app.setupEventPublishing(); err != nil {
		return nil, err
	}

	app.userService, err = service.NewUserService(
		app.userStore, db, auth.NewBcryptVerifier(), cfg.Auth.BCryptCost, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.deckService, err = service.NewDeckService(db, app.deckStore, app.cardStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create deck service: %w", err)
	}

	app.cardService, err = service.NewCardService(
		db, app.cardStore, app.deckStore, app.eventStore, app.srsService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create card service: %w", err)
	}

	app.sessionService, err = session.NewService(
		db, app.deckStore, app.cardStore, app.eventStore, app.srsService,
		session.Config{
			TTL:     time.Duration(cfg.Session.TTLMinutes) * time.Minute,
			Emitter: app.eventEmitter,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// setupStores picks the store implementations matching the database driver.
func (app *application) setupStores() error {
	switch app.config.Database.Driver {
	case "postgres":
		app.userStore = postgres.NewPostgresUserStore(app.db)
		app.deckStore = postgres.NewPostgresDeckStore(app.db)
		app.cardStore = postgres.NewPostgresCardStore(app.db, app.logger)
		app.eventStore = postgres.NewPostgresReviewEventStore(app.db)
	case "sqlite":
		app.userStore = sqlite.NewUserStore(app.db)
		app.deckStore = sqlite.NewDeckStore(app.db)
		app.cardStore = sqlite.NewCardStore(app.db, app.logger)
		app.eventStore = sqlite.NewReviewEventStore(app.db)
	default:
		return fmt.Errorf("unsupported database driver: %q", app.config.Database.Driver)
	}
	return nil
}

// setupEventPublishing forwards review events to NATS when a server URL is
// configured.
func (app *application) setupEventPublishing() error {
	if app.config.NATS.URL == "" {
		app.logger.Info("review event publishing disabled")
		return nil
	}

	conn, err := natsbus.Connect(app.config.NATS, "scry-decks")
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	publisher, err := natsbus.NewPublisher(conn, app.config.NATS.Subject, app.logger)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create review event publisher: %w", err)
	}

	app.natsConn = conn
	app.eventEmitter.RegisterHandler(publisher)
	app.logger.Info("publishing review events", slog.String("subject", app.config.NATS.Subject))
	return nil
}

// Run serves HTTP until ctx is cancelled, then releases resources.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the NATS connection and the database.
func (app *application) cleanup() {
	if app.natsConn != nil {
		if err := app.natsConn.Drain(); err != nil {
			app.logger.Error("error draining NATS connection", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		closeDatabase(app.db, app.logger)
	}
	app.logger.Info("application shutdown completed")
}
