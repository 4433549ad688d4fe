package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"claimwork/internal/config"
	"claimwork/internal/engine/auth"
	"claimwork/internal/events"
	"claimwork/internal/logging"
	"claimwork/internal/repo"
	"claimwork/internal/review"
)

// Provisioner is the slice of the source-control host the lifecycle needs.
type Provisioner interface {
	CreateBranch(ctx context.Context, owner, repo, branch, base string) error
	CreateWebhookSubscription(ctx context.Context, owner, repo, url, secret string) (int64, error)
}

// ReviewTrigger starts a review without waiting for it.
type ReviewTrigger interface {
	Trigger(ctx context.Context, job review.Job)
}

// Options are fixed at construction time.
type Options struct {
	// WebhookSecret verifies inbound deliveries. Empty skips verification.
	WebhookSecret string
	// WebhookURL is where repository webhooks are pointed on registration.
	WebhookURL string
	// DefaultBranch is used when a project does not name its own base branch.
	DefaultBranch string
	// DefaultOwner qualifies bare repository names passed to LinkRepository.
	DefaultOwner string
	// SkipBranchCreation leaves remote branches to the contributor.
	SkipBranchCreation bool
	// SkipProfileCheck accepts claims from callers without a profile row.
	SkipProfileCheck bool
}

// OptionsFromConfig derives engine options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{DefaultBranch: "main"}
	}
	return Options{
		WebhookSecret:      cfg.GitHub.WebhookSecret,
		WebhookURL:         cfg.GitHub.WebhookURL,
		DefaultBranch:      cfg.GitHub.DefaultBranch,
		DefaultOwner:       cfg.GitHub.Owner,
		SkipBranchCreation: cfg.GitHub.Skip,
		SkipProfileCheck:   cfg.Auth.SkipAuth,
	}
}

type Engine struct {
	DB      *sql.DB
	Repo    repo.Repo
	Events  events.Writer
	Auth    auth.Service
	GitHub  Provisioner
	Reviews ReviewTrigger
	Options Options
	Now     func() time.Time
	Log     *slog.Logger
}

// New builds an engine without GitHub or review collaborators; callers set
// GitHub and Reviews when those integrations are configured.
func New(db *sql.DB, opts Options) Engine {
	r := repo.Repo{DB: db}
	if opts.DefaultBranch == "" {
		opts.DefaultBranch = "main"
	}
	return Engine{
		DB:      db,
		Repo:    r,
		Events:  events.Writer{Now: time.Now},
		Auth:    auth.Service{Repo: r},
		Options: opts,
		Now:     time.Now,
		Log:     logging.With("component", "engine"),
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logging.With("component", "engine")
}

func (e Engine) events() events.Writer {
	w := e.Events
	if e.Now != nil {
		w.Now = e.Now
	}
	return w
}

// inTx runs fn in a transaction and commits when it returns nil.
func (e Engine) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
