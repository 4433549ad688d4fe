package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"claimwork/internal/domain"
	"claimwork/internal/events"
	gh "claimwork/internal/github"
	"claimwork/internal/repo"
)

// ClaimResult is returned to the contributor after a successful claim.
type ClaimResult struct {
	Ticket        domain.Ticket
	BranchName    string
	BranchCreated bool
	Instructions  string
}

// Claim moves ticketID from available to claimed for userID. The status
// change is a single conditional update, so of two racing claimants exactly
// one wins and the other gets a conflict. Remote branch creation happens
// after commit and only affects BranchCreated.
func (e Engine) Claim(ctx context.Context, ticketID, userID string) (ClaimResult, error) {
	if ticketID == "" {
		return ClaimResult{}, newError(KindValidation, "ticket_id is required")
	}
	if userID == "" {
		return ClaimResult{}, ErrUnauthorized
	}
	t, err := e.Repo.GetTicket(ctx, ticketID)
	if errors.Is(err, repo.ErrNotFound) {
		return ClaimResult{}, newError(KindNotFound, msgTicketNotFound)
	}
	if err != nil {
		return ClaimResult{}, fmt.Errorf("get ticket: %w", err)
	}
	if t.Status != domain.TicketAvailable {
		return ClaimResult{}, newError(KindConflict, msgTicketUnavailable)
	}
	if !e.Options.SkipProfileCheck {
		if _, err := e.Repo.GetUser(ctx, userID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ClaimResult{}, newError(KindValidation, msgProfileMissing)
			}
			return ClaimResult{}, fmt.Errorf("get user profile: %w", err)
		}
	}

	// A missing project only means no repository is set up yet.
	project, err := e.Repo.GetProject(ctx, t.ProjectID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return ClaimResult{}, fmt.Errorf("get project: %w", err)
	}

	branch := DeriveBranchName(t.ID, t.Title)
	now := e.timestamp()
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := e.Repo.ClaimTicket(ctx, tx, t.ID, userID, branch, now)
		if err != nil {
			return fmt.Errorf("claim ticket: %w", err)
		}
		if !ok {
			return errClaimLost
		}
		return e.events().Append(ctx, tx, events.Entry{
			Type:       events.TicketClaimed,
			ProjectID:  t.ProjectID,
			EntityKind: "ticket",
			EntityID:   t.ID,
			ActorID:    userID,
			Payload:    events.EventPayload{"branch_name": branch},
		})
	})
	if errors.Is(err, errClaimLost) {
		return ClaimResult{}, e.classifyLostClaim(ctx, t.ID)
	}
	if err != nil {
		return ClaimResult{}, err
	}

	log := e.logger().With("ticket_id", t.ID, "user_id", userID, "branch", branch)
	log.Info("ticket claimed")
	claimed, err := e.Repo.GetTicket(ctx, t.ID)
	if err != nil {
		// The claim is committed; answer from what was written.
		log.Warn("reload claimed ticket", "error", err)
		claimed = t
		claimed.Status = domain.TicketClaimed
		claimed.ClaimedBy, claimed.ClaimedAt, claimed.BranchName = &userID, &now, &branch
		claimed.UpdatedAt = now
	}
	created := e.provisionBranch(ctx, project, branch)
	repoURL := ""
	if project.GitHubRepoURL != nil {
		repoURL = *project.GitHubRepoURL
	}
	return ClaimResult{
		Ticket:        claimed,
		BranchName:    branch,
		BranchCreated: created,
		Instructions:  ClaimInstructions(repoURL, branch, created),
	}, nil
}

var errClaimLost = errors.New("claim lost")

// classifyLostClaim re-reads a ticket whose conditional update matched no row.
func (e Engine) classifyLostClaim(ctx context.Context, ticketID string) error {
	_, err := e.Repo.GetTicket(ctx, ticketID)
	if errors.Is(err, repo.ErrNotFound) {
		return newError(KindNotFound, msgTicketNotFound)
	}
	if err != nil {
		return fmt.Errorf("reload ticket: %w", err)
	}
	return newError(KindConflict, msgTicketUnavailable)
}

// provisionBranch creates the claim branch on the project's repository. Any
// failure is logged and reported as false.
func (e Engine) provisionBranch(ctx context.Context, p domain.Project, branch string) bool {
	full := p.RepoFullName()
	if full == "" || e.GitHub == nil || e.Options.SkipBranchCreation {
		return false
	}
	log := e.logger().With("repo", full, "branch", branch)
	owner, name, err := gh.SplitRepo(full)
	if err != nil {
		log.Warn("branch not created", "error", err)
		return false
	}
	base := p.DefaultBranch
	if base == "" {
		base = e.Options.DefaultBranch
	}
	if err := e.GitHub.CreateBranch(ctx, owner, name, branch, base); err != nil {
		log.Warn("branch not created", "error", wrapError(KindUpstream, "create branch", err))
		return false
	}
	return true
}

// ClaimInstructions renders the setup text shown after a claim.
func ClaimInstructions(repoURL, branch string, branchCreated bool) string {
	if repoURL == "" {
		return "Your ticket has been claimed! The project repository is not yet set up.\nYou'll be notified when it's ready."
	}
	step := "Create your branch: git checkout -b " + branch
	if branchCreated {
		step = "Checkout your branch: git checkout " + branch
	}
	return "Your ticket has been claimed! Here's how to get started:\n\n" +
		"1. Clone the repository: git clone " + repoURL + "\n" +
		"2. " + step + "\n" +
		"3. Make your changes following the acceptance criteria\n" +
		"4. Push and create a PR when ready\n\n" +
		"Good luck!"
}
