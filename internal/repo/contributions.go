package repo

import (
	"context"
	"database/sql"

	"claimwork/internal/domain"
)

// InsertContribution appends a ledger row. The UNIQUE(ticket_id) constraint
// absorbs duplicates: the second insert for a ticket is a no-op and reports false.
func (r Repo) InsertContribution(ctx context.Context, tx *sql.Tx, c domain.Contribution) (bool, error) {
	res, err := r.exec(tx).ExecContext(ctx, `INSERT INTO contributions(id,user_id,ticket_id,project_id,pr_url,pr_number,merged_at,lines_added,lines_removed,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(ticket_id) DO NOTHING`,
		c.ID, c.UserID, c.TicketID, c.ProjectID, c.PRURL, nullableIntPtr(c.PRNumber), c.MergedAt, c.LinesAdded, c.LinesRemoved, c.CreatedAt)
	if err != nil {
		return false, err
	}
	return affected(res)
}

const contributionColumns = `id,user_id,ticket_id,project_id,pr_url,pr_number,merged_at,lines_added,lines_removed,created_at`

func scanContribution(row rowScanner) (domain.Contribution, error) {
	var c domain.Contribution
	var prNumber sql.NullInt64
	err := row.Scan(&c.ID, &c.UserID, &c.TicketID, &c.ProjectID, &c.PRURL, &prNumber, &c.MergedAt, &c.LinesAdded, &c.LinesRemoved, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	if prNumber.Valid {
		n := int(prNumber.Int64)
		c.PRNumber = &n
	}
	return c, nil
}

func (r Repo) GetContributionByTicket(ctx context.Context, ticketID string) (domain.Contribution, error) {
	return scanContribution(r.DB.QueryRowContext(ctx, `SELECT `+contributionColumns+` FROM contributions WHERE ticket_id=?`, ticketID))
}

// ListContributions returns contributions newest first, optionally for one user.
func (r Repo) ListContributions(ctx context.Context, userID string) ([]domain.Contribution, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions`
	var args []any
	if userID != "" {
		query += ` WHERE user_id=?`
		args = append(args, userID)
	}
	query += ` ORDER BY merged_at DESC, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) CountContributions(ctx context.Context, ticketID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM contributions WHERE ticket_id=?`, ticketID).Scan(&n)
	return n, err
}
