package engine

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"claimwork/internal/domain"
	"claimwork/internal/engine/auth"
	"claimwork/internal/events"
	gh "claimwork/internal/github"
	"claimwork/internal/repo"
)

// CreateUser stores a contributor profile.
func (e Engine) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if strings.TrimSpace(u.Email) == "" {
		return domain.User{}, newError(KindValidation, "email is required")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = domain.RoleContributor
	}
	if u.Role != domain.RoleAdmin && u.Role != domain.RoleContributor {
		return domain.User{}, newError(KindValidation, fmt.Sprintf("unknown role %q", u.Role))
	}
	u.CreatedAt = e.timestamp()
	if err := e.Repo.InsertUser(ctx, nil, u); err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// CreateProject stores a project, optionally already linked to a repository.
func (e Engine) CreateProject(ctx context.Context, p domain.Project, actorID string) (domain.Project, error) {
	if strings.TrimSpace(p.Name) == "" {
		return domain.Project{}, newError(KindValidation, "name is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Difficulty == "" {
		p.Difficulty = "beginner"
	}
	if p.Status == "" {
		p.Status = "active"
	}
	if p.DefaultBranch == "" {
		p.DefaultBranch = e.Options.DefaultBranch
	}
	now := e.timestamp()
	p.CreatedAt, p.UpdatedAt = now, now
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertProject(ctx, tx, p); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		return e.events().Append(ctx, tx, events.Entry{
			Type:       events.ProjectCreated,
			ProjectID:  p.ID,
			EntityKind: "project",
			EntityID:   p.ID,
			ActorID:    actorID,
			Payload:    events.EventPayload{"name": p.Name, "repo": p.RepoFullName()},
		})
	})
	if err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// LinkRepository attaches owner/repo to a project. A bare repo name is
// qualified with the configured default owner. An empty repoURL defaults to
// the clone URL on github.com.
func (e Engine) LinkRepository(ctx context.Context, projectID, fullName, repoURL string) (domain.Project, error) {
	if !strings.Contains(fullName, "/") && e.Options.DefaultOwner != "" {
		fullName = e.Options.DefaultOwner + "/" + fullName
	}
	if _, _, err := gh.SplitRepo(fullName); err != nil {
		return domain.Project{}, wrapError(KindValidation, err.Error(), err)
	}
	if repoURL == "" {
		repoURL = "https://github.com/" + fullName + ".git"
	}
	if err := e.Repo.LinkRepository(ctx, projectID, repoURL, fullName, e.timestamp()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Project{}, newError(KindNotFound, msgProjectNotFound)
		}
		return domain.Project{}, err
	}
	return e.Repo.GetProject(ctx, projectID)
}

// CreateTicket adds an available ticket to a project.
func (e Engine) CreateTicket(ctx context.Context, t domain.Ticket, actorID string) (domain.Ticket, error) {
	if strings.TrimSpace(t.Title) == "" {
		return domain.Ticket{}, newError(KindValidation, "title is required")
	}
	if _, err := e.Repo.GetProject(ctx, t.ProjectID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Ticket{}, newError(KindNotFound, msgProjectNotFound)
		}
		return domain.Ticket{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Difficulty == "" {
		t.Difficulty = "beginner"
	}
	t.Status = domain.TicketAvailable
	t.ClaimedBy, t.ClaimedAt, t.BranchName, t.PRURL, t.PRNumber = nil, nil, nil, nil, nil
	now := e.timestamp()
	t.CreatedAt, t.UpdatedAt = now, now
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertTicket(ctx, tx, t); err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		return e.events().Append(ctx, tx, events.Entry{
			Type:       events.TicketCreated,
			ProjectID:  t.ProjectID,
			EntityKind: "ticket",
			EntityID:   t.ID,
			ActorID:    actorID,
			Payload:    events.EventPayload{"title": t.Title},
		})
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return t, nil
}

// GetTicket returns a ticket or a not-found error.
func (e Engine) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	t, err := e.Repo.GetTicket(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return t, newError(KindNotFound, msgTicketNotFound)
	}
	return t, err
}

// RegisterWebhook subscribes the configured webhook URL to pull_request
// events on the project's repository. Admins only.
func (e Engine) RegisterWebhook(ctx context.Context, projectID, actorID string) (int64, error) {
	if err := e.Auth.RequireAdmin(ctx, actorID); err != nil {
		var fe auth.ForbiddenError
		if errors.As(err, &fe) {
			return 0, wrapError(KindForbidden, "Admin access required", err)
		}
		return 0, err
	}
	p, err := e.Repo.GetProject(ctx, projectID)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, newError(KindNotFound, msgProjectNotFound)
	}
	if err != nil {
		return 0, err
	}
	owner, name, err := gh.SplitRepo(p.RepoFullName())
	if err != nil {
		return 0, newError(KindValidation, "project has no linked repository")
	}
	if e.Options.WebhookURL == "" {
		return 0, newError(KindValidation, "github.webhook_url is not configured")
	}
	if e.GitHub == nil {
		return 0, newError(KindUpstream, "github integration is not configured")
	}
	hookID, err := e.GitHub.CreateWebhookSubscription(ctx, owner, name, e.Options.WebhookURL, e.Options.WebhookSecret)
	if err != nil {
		return 0, wrapError(KindUpstream, "could not create repository webhook", err)
	}
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		return e.events().Append(ctx, tx, events.Entry{
			Type:       events.WebhookRegistered,
			ProjectID:  p.ID,
			EntityKind: "project",
			EntityID:   p.ID,
			ActorID:    actorID,
			Payload:    events.EventPayload{"hook_id": hookID, "repo": p.RepoFullName()},
		})
	})
	if err != nil {
		return hookID, err
	}
	e.logger().Info("repository webhook registered", "project_id", p.ID, "repo", p.RepoFullName(), "hook_id", hookID)
	return hookID, nil
}

// SetReviewStatus records progress reported by the review pipeline.
func (e Engine) SetReviewStatus(ctx context.Context, ticketID, status, actorID string) (domain.Ticket, error) {
	switch status {
	case domain.ReviewPending, domain.ReviewCompleted, domain.ReviewFailed:
	default:
		return domain.Ticket{}, newError(KindValidation, fmt.Sprintf("invalid review status %q", status))
	}
	t, err := e.GetTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := e.Repo.SetReviewStatus(ctx, tx, t.ID, status, e.timestamp()); err != nil {
			return fmt.Errorf("set review status: %w", err)
		}
		return e.events().Append(ctx, tx, events.Entry{
			Type:       events.ReviewStatus,
			ProjectID:  t.ProjectID,
			EntityKind: "ticket",
			EntityID:   t.ID,
			ActorID:    actorID,
			Payload:    events.EventPayload{"review_status": status},
		})
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return e.Repo.GetTicket(ctx, t.ID)
}

// CreateAPIKey issues a key for userID. The raw key is returned once; only
// its hash is stored.
func (e Engine) CreateAPIKey(ctx context.Context, userID, name string) (string, domain.APIKey, error) {
	if userID == "" {
		return "", domain.APIKey{}, newError(KindValidation, "user_id is required")
	}
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", domain.APIKey{}, err
	}
	raw := "cw_" + hex.EncodeToString(buf)
	key := domain.APIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		KeyHash:   repo.HashAPIKey(raw),
		CreatedAt: e.timestamp(),
	}
	if err := e.Repo.InsertAPIKey(ctx, nil, key); err != nil {
		return "", domain.APIKey{}, fmt.Errorf("insert api key: %w", err)
	}
	return raw, key, nil
}
