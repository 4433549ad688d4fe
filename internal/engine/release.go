package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"claimwork/internal/domain"
	"claimwork/internal/events"
	"claimwork/internal/repo"
)

var errReleaseLost = errors.New("release lost")

// Release returns a claimed ticket to the pool. Tickets with a pull request
// stay locked to their claimant whoever asks. The remote branch is left in
// place.
func (e Engine) Release(ctx context.Context, ticketID, userID string) error {
	if ticketID == "" {
		return newError(KindValidation, "ticket_id is required")
	}
	if userID == "" {
		return ErrUnauthorized
	}
	t, err := e.Repo.GetTicket(ctx, ticketID)
	if err != nil {
		return e.releaseLookupError(err)
	}
	if err := releaseGuard(t, userID); err != nil {
		return err
	}
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := e.Repo.ReleaseTicket(ctx, tx, t.ID, userID, e.timestamp())
		if err != nil {
			return fmt.Errorf("release ticket: %w", err)
		}
		if !ok {
			return errReleaseLost
		}
		return e.events().Append(ctx, tx, events.Entry{
			Type:       events.TicketReleased,
			ProjectID:  t.ProjectID,
			EntityKind: "ticket",
			EntityID:   t.ID,
			ActorID:    userID,
			Payload:    events.EventPayload{"branch_name": derefString(t.BranchName)},
		})
	})
	if errors.Is(err, errReleaseLost) {
		// The ticket moved between read and write; report its current state.
		cur, err := e.Repo.GetTicket(ctx, t.ID)
		if err != nil {
			return e.releaseLookupError(err)
		}
		if err := releaseGuard(cur, userID); err != nil {
			return err
		}
		return newError(KindConflict, msgTicketUnavailable)
	}
	if err != nil {
		return err
	}
	e.logger().Info("ticket released", "ticket_id", t.ID, "user_id", userID)
	return nil
}

func (e Engine) releaseLookupError(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return newError(KindNotFound, msgTicketNotFound)
	}
	return fmt.Errorf("get ticket: %w", err)
}

func releaseGuard(t domain.Ticket, userID string) error {
	if t.HasPullRequest() {
		return newError(KindConflict, msgReleaseLocked)
	}
	if !t.ClaimedByUser(userID) {
		return newError(KindForbidden, msgReleaseNotOwner)
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
