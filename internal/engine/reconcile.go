package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v41/github"

	"claimwork/internal/domain"
	"claimwork/internal/events"
	gh "claimwork/internal/github"
	"claimwork/internal/repo"
	"claimwork/internal/review"
)

const pullRequestEvent = "pull_request"

// Webhook outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
)

// Reasons attached to ignored deliveries.
const (
	ReasonEventIgnored     = "event_ignored"
	ReasonBranchNotTracked = "branch_not_tracked"
	ReasonRepoMismatch     = "repo_mismatch"
	ReasonActionIgnored    = "action_ignored"
	ReasonTicketDone       = "ticket_done"
)

// WebhookDelivery is one inbound delivery as received over HTTP.
type WebhookDelivery struct {
	Payload   []byte
	Signature string
	EventType string
}

// WebhookOutcome is acknowledged to the sender with a 200.
type WebhookOutcome struct {
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`
}

func ignored(reason string) WebhookOutcome {
	return WebhookOutcome{Status: OutcomeIgnored, Reason: reason}
}

// HandleWebhook reconciles a pull_request delivery against the ticket that
// tracks its head branch. Only a bad signature, a malformed payload or a
// store failure is returned as an error; every unmatched delivery is an
// ignored outcome so the sender stops retrying. Every write sets a target
// state, so redelivery converges on the same row.
func (e Engine) HandleWebhook(ctx context.Context, d WebhookDelivery) (WebhookOutcome, error) {
	if !VerifySignature(e.Options.WebhookSecret, d.Payload, d.Signature) {
		return WebhookOutcome{}, newError(KindUnauthorized, msgInvalidSignature)
	}
	if d.EventType != pullRequestEvent {
		return ignored(ReasonEventIgnored), nil
	}
	parsed, err := github.ParseWebHook(d.EventType, d.Payload)
	if err != nil {
		return WebhookOutcome{}, wrapError(KindValidation, "malformed pull_request payload", err)
	}
	evt, ok := parsed.(*github.PullRequestEvent)
	if !ok || evt.PullRequest == nil {
		return WebhookOutcome{}, newError(KindValidation, "malformed pull_request payload")
	}
	pr := evt.GetPullRequest()
	branch := pr.GetHead().GetRef()
	fullName := evt.GetRepo().GetFullName()
	action := evt.GetAction()
	log := e.logger().With("action", action, "branch", branch, "repo", fullName, "pr_number", pr.GetNumber())

	t, err := e.Repo.GetTicketByBranch(ctx, branch)
	if errors.Is(err, repo.ErrNotFound) {
		log.Debug("branch not tracked")
		return ignored(ReasonBranchNotTracked), nil
	}
	if err != nil {
		return WebhookOutcome{}, fmt.Errorf("get ticket by branch: %w", err)
	}
	project, err := e.Repo.GetProject(ctx, t.ProjectID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return WebhookOutcome{}, fmt.Errorf("get project: %w", err)
	}
	if project.RepoFullName() == "" || !strings.EqualFold(project.RepoFullName(), fullName) {
		log.Warn("repository mismatch", "ticket_id", t.ID, "project_repo", project.RepoFullName())
		return ignored(ReasonRepoMismatch), nil
	}
	log = log.With("ticket_id", t.ID)
	out := WebhookOutcome{Status: OutcomeProcessed, TicketID: t.ID}

	switch action {
	case "opened", "reopened", "synchronize":
		if t.Status == domain.TicketDone {
			log.Info("late pull request event for completed ticket")
			return WebhookOutcome{Status: OutcomeIgnored, Reason: ReasonTicketDone, TicketID: t.ID}, nil
		}
		e.triggerReview(ctx, fullName, t.ID, pr, action)
		if action == "synchronize" {
			return out, nil
		}
		if err := e.markInReview(ctx, t, pr); err != nil {
			return WebhookOutcome{}, err
		}
		log.Info("ticket in review")
		return out, nil
	case "closed":
		if !pr.GetMerged() {
			log.Debug("pull request closed without merge")
			return WebhookOutcome{Status: OutcomeIgnored, Reason: ReasonActionIgnored, TicketID: t.ID}, nil
		}
		if err := e.markDone(ctx, t, pr); err != nil {
			return WebhookOutcome{}, err
		}
		log.Info("ticket done")
		if t.ClaimedBy != nil {
			e.recordMerge(ctx, t, pr)
		}
		return out, nil
	default:
		return WebhookOutcome{Status: OutcomeIgnored, Reason: ReasonActionIgnored, TicketID: t.ID}, nil
	}
}

func (e Engine) triggerReview(ctx context.Context, fullName, ticketID string, pr *github.PullRequest, action string) {
	if e.Reviews == nil {
		return
	}
	owner, name, err := gh.SplitRepo(fullName)
	if err != nil {
		e.logger().Warn("review not triggered", "ticket_id", ticketID, "error", err)
		return
	}
	e.Reviews.Trigger(ctx, review.Job{
		Owner:    owner,
		Repo:     name,
		PRNumber: pr.GetNumber(),
		TicketID: ticketID,
		HeadSHA:  pr.GetHead().GetSHA(),
		Action:   action,
	})
}

func (e Engine) markInReview(ctx context.Context, t domain.Ticket, pr *github.PullRequest) error {
	return e.inTx(ctx, func(tx *sql.Tx) error {
		changed, err := e.Repo.MarkInReview(ctx, tx, t.ID, pr.GetHTMLURL(), pr.GetNumber(), e.timestamp())
		if err != nil {
			return fmt.Errorf("mark in review: %w", err)
		}
		if !changed {
			return nil
		}
		return e.events().Append(ctx, tx, events.Entry{
			Type:       events.TicketInReview,
			ProjectID:  t.ProjectID,
			EntityKind: "ticket",
			EntityID:   t.ID,
			Payload:    events.EventPayload{"pr_url": pr.GetHTMLURL(), "pr_number": pr.GetNumber()},
		})
	})
}

func (e Engine) markDone(ctx context.Context, t domain.Ticket, pr *github.PullRequest) error {
	return e.inTx(ctx, func(tx *sql.Tx) error {
		changed, err := e.Repo.MarkDone(ctx, tx, t.ID, pr.GetHTMLURL(), pr.GetNumber(), e.timestamp())
		if err != nil {
			return fmt.Errorf("mark done: %w", err)
		}
		if !changed {
			return nil
		}
		return e.events().Append(ctx, tx, events.Entry{
			Type:       events.TicketDone,
			ProjectID:  t.ProjectID,
			EntityKind: "ticket",
			EntityID:   t.ID,
			Payload:    events.EventPayload{"pr_url": pr.GetHTMLURL(), "pr_number": pr.GetNumber()},
		})
	})
}

// recordMerge writes the contribution for a merged ticket. Failures are
// logged only; the ticket is already done.
func (e Engine) recordMerge(ctx context.Context, t domain.Ticket, pr *github.PullRequest) {
	mergedAt := pr.GetMergedAt()
	if mergedAt.IsZero() {
		mergedAt = e.now()
	}
	recorded, err := e.RecordContribution(ctx, domain.Contribution{
		UserID:       *t.ClaimedBy,
		TicketID:     t.ID,
		ProjectID:    t.ProjectID,
		PRURL:        pr.GetHTMLURL(),
		PRNumber:     optionalInt(pr.GetNumber()),
		MergedAt:     mergedAt.UTC().Format(time.RFC3339),
		LinesAdded:   pr.GetAdditions(),
		LinesRemoved: pr.GetDeletions(),
	})
	log := e.logger().With("ticket_id", t.ID, "user_id", *t.ClaimedBy)
	if err != nil {
		log.Error("contribution not recorded", "error", err)
		return
	}
	if !recorded {
		log.Debug("contribution already recorded")
	}
}
