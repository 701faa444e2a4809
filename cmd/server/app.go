package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/scry-review/internal/api"
	"github.com/phrazzld/scry-review/internal/config"
	"github.com/phrazzld/scry-review/internal/domain/srs"
	"github.com/phrazzld/scry-review/internal/events"
	"github.com/phrazzld/scry-review/internal/platform/postgres"
	"github.com/phrazzld/scry-review/internal/platform/redis"
	"github.com/phrazzld/scry-review/internal/platform/sqlite"
	"github.com/phrazzld/scry-review/internal/service/review_queue"
	"github.com/phrazzld/scry-review/internal/service/review_session"
	"github.com/phrazzld/scry-review/internal/service/review_stats"
	"github.com/phrazzld/scry-review/internal/store"
)

// application holds the wired dependencies of the server.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	db      *sql.DB
	redis   *goredis.Client
	store   store.ReviewStore
	manager *review_session.Manager
	janitor *review_session.Janitor
	router  http.Handler
}

// newApplication opens storage and builds the services and router.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}

	if err := app.openStore(ctx); err != nil {
		return nil, err
	}

	params, err := cfg.SRSParams()
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("invalid SRS parameters: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	if cfg.Events.RedisAddr != "" {
		rdb, err := redis.Dial(ctx, cfg.Events.RedisAddr)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redis = rdb
		emitter.RegisterHandler(redis.NewPublisher(rdb, cfg.Events.RedisChannel, logger))
		logger.Info("publishing review events to redis", slog.String("channel", cfg.Events.RedisChannel))
	}

	loc := cfg.Location()
	selector := review_queue.NewSelector(app.store, logger,
		review_queue.WithLocation(loc),
		review_queue.WithMaxCardsCeiling(cfg.Review.MaxCardsCeiling))

	app.manager = review_session.NewManager(
		selector,
		app.store,
		srs.NewServiceWithParams(params),
		review_session.NewSessionStore(),
		logger,
		review_session.WithEmitter(emitter),
		review_session.WithPrioritizeOverdue(cfg.Review.PrioritizeOverdue),
	)
	app.janitor = review_session.NewJanitor(app.manager,
		cfg.Review.CleanupInterval, cfg.Review.SessionRetentionHours, logger)

	aggregator := review_stats.NewAggregator(app.store, logger,
		review_stats.WithLocation(loc),
		review_stats.WithThresholds(cfg.StatsThresholds()))

	app.router = api.NewRouter(logger,
		api.NewSessionHandler(app.manager, logger),
		api.NewReviewHandler(selector, aggregator, cfg.Review.DefaultMaxCards, cfg.Review.PrioritizeOverdue, logger))

	return app, nil
}

// openStore connects to the configured backend and, for postgres, applies
// migrations when auto-migrate is on.
func (app *application) openStore(ctx context.Context) error {
	cfg := app.config.Database

	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return err
		}
		app.db = db
		app.store = sqlite.NewReviewStore(db, app.logger)

	case "postgres":
		db, err := postgres.Open(ctx, cfg.URL, cfg.MaxOpenConns)
		if err != nil {
			return err
		}
		app.db = db
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, db, "up", app.logger); err != nil {
				_ = db.Close()
				return fmt.Errorf("failed to apply migrations: %w", err)
			}
		}
		app.store = postgres.NewReviewStore(db, app.logger)

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	app.logger.Info("database connection established", slog.String("driver", cfg.Driver))
	return nil
}

// cleanup releases external resources. It is safe to call more than once.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("failed to close redis client", slog.String("error", err.Error()))
		}
		app.redis = nil
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
		app.db = nil
	}
}

// runMigration applies a goose command against the postgres database.
func runMigration(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations are only supported for postgres, driver is %q", cfg.Database.Driver)
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, 1)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return postgres.Migrate(ctx, db, command, logger)
}
