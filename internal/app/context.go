package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"claimwork/internal/config"
	"claimwork/internal/db"
	"claimwork/internal/engine"
	"claimwork/internal/github"
	"claimwork/internal/logging"
	"claimwork/internal/migrate"
	"claimwork/internal/review"
)

// App bundles everything a command needs: the migrated database, the engine
// with its GitHub and review collaborators, and the review dispatcher to drain
// on shutdown.
type App struct {
	DB      *sql.DB
	Engine  engine.Engine
	Reviews *review.Dispatcher
	Config  *config.Config
}

// Open opens and migrates the workspace database and wires the engine from
// cfg. GitHub is left unset when github.skip is true or no token is configured.
func Open(ctx context.Context, workspace string, cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.MigrateContext(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a, err := Wire(conn, cfg, logging.With("component", "engine"))
	if err != nil {
		conn.Close()
		return nil, err
	}
	return a, nil
}

// Wire builds the engine over an already-migrated connection.
func Wire(conn *sql.DB, cfg *config.Config, log *slog.Logger) (*App, error) {
	e := engine.New(conn, engine.OptionsFromConfig(cfg))
	if log != nil {
		e.Log = log
	}
	if !cfg.GitHub.Skip && cfg.GitHub.Token != "" {
		gh, err := github.NewFromConfig(cfg.GitHub)
		if err != nil {
			return nil, fmt.Errorf("github client: %w", err)
		}
		e.GitHub = gh
	} else if !cfg.GitHub.Skip {
		logging.Warn("github token not configured; branches will not be created")
	}
	dispatcher, err := review.FromConfig(cfg.Review, logging.With("component", "review"))
	if err != nil {
		return nil, err
	}
	e.Reviews = dispatcher
	if cfg.InsecureWebhooks() {
		logging.Warn("github.webhook_secret is empty; webhook signatures are not verified")
	}
	return &App{DB: conn, Engine: e, Reviews: dispatcher, Config: cfg}, nil
}

// Close waits for in-flight review dispatches and closes the database.
func (a *App) Close() error {
	if a.Reviews != nil {
		a.Reviews.Wait()
	}
	return a.DB.Close()
}
