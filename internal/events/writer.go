package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Event types appended by the ticket lifecycle.
const (
	ProjectCreated       = "project.created"
	TicketCreated        = "ticket.created"
	TicketClaimed        = "ticket.claimed"
	TicketReleased       = "ticket.released"
	TicketInReview       = "ticket.in_review"
	TicketDone           = "ticket.done"
	ContributionRecorded = "contribution.recorded"
	ReviewStatus         = "review.status"
	WebhookRegistered    = "project.webhook_registered"
)

// SystemActor is recorded for transitions driven by the hosting platform.
const SystemActor = "github"

type Writer struct {
	Now func() time.Time
}

type EventPayload map[string]any

// Entry describes one row of the append-only event log.
type Entry struct {
	Type       string
	ProjectID  string
	EntityKind string
	EntityID   string
	ActorID    string
	Payload    EventPayload
}

// Append writes e inside tx so the event commits with the mutation it describes.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, e Entry) error {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	if e.Payload == nil {
		e.Payload = EventPayload{}
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	if e.ActorID == "" {
		e.ActorID = SystemActor
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,project_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		now().UTC().Format(time.RFC3339), e.Type, nullable(e.ProjectID), e.EntityKind, nullable(e.EntityID), e.ActorID, string(data))
	if err != nil {
		return fmt.Errorf("append %s event: %w", e.Type, err)
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
