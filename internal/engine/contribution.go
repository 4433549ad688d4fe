package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"claimwork/internal/domain"
	"claimwork/internal/events"
)

// RecordContribution appends c to the ledger. A second call for the same
// ticket is a no-op that reports false.
func (e Engine) RecordContribution(ctx context.Context, c domain.Contribution) (bool, error) {
	if c.TicketID == "" || c.UserID == "" {
		return false, newError(KindValidation, "ticket_id and user_id are required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt == "" {
		c.CreatedAt = e.timestamp()
	}
	if c.MergedAt == "" {
		c.MergedAt = c.CreatedAt
	}
	var recorded bool
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := e.Repo.InsertContribution(ctx, tx, c)
		if err != nil {
			return fmt.Errorf("insert contribution: %w", err)
		}
		recorded = ok
		if !ok {
			return nil
		}
		return e.events().Append(ctx, tx, events.Entry{
			Type:       events.ContributionRecorded,
			ProjectID:  c.ProjectID,
			EntityKind: "contribution",
			EntityID:   c.ID,
			ActorID:    c.UserID,
			Payload: events.EventPayload{
				"ticket_id":     c.TicketID,
				"lines_added":   c.LinesAdded,
				"lines_removed": c.LinesRemoved,
			},
		})
	})
	if err != nil {
		return false, err
	}
	return recorded, nil
}

// Contributions lists the ledger for userID, or every entry when empty.
func (e Engine) Contributions(ctx context.Context, userID string) ([]domain.Contribution, error) {
	return e.Repo.ListContributions(ctx, userID)
}
