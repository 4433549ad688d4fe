package repo

import (
	"context"
	"database/sql"

	"claimwork/internal/domain"
)

const ticketColumns = `id,project_id,title,COALESCE(description,''),COALESCE(acceptance_criteria,''),difficulty,status,claimed_by,claimed_at,branch_name,pr_url,pr_number,review_status,last_review_at,created_at,updated_at`

func scanTicket(row rowScanner) (domain.Ticket, error) {
	var t domain.Ticket
	var claimedBy, claimedAt, branch, prURL, lastReview sql.NullString
	var prNumber sql.NullInt64
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.AcceptanceCriteria, &t.Difficulty, &t.Status,
		&claimedBy, &claimedAt, &branch, &prURL, &prNumber, &t.ReviewStatus, &lastReview, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.ClaimedBy = nullStringPtr(claimedBy)
	t.ClaimedAt = nullStringPtr(claimedAt)
	t.BranchName = nullStringPtr(branch)
	t.PRURL = nullStringPtr(prURL)
	t.LastReviewAt = nullStringPtr(lastReview)
	if prNumber.Valid {
		n := int(prNumber.Int64)
		t.PRNumber = &n
	}
	return t, nil
}

func (r Repo) InsertTicket(ctx context.Context, tx *sql.Tx, t domain.Ticket) error {
	_, err := r.exec(tx).ExecContext(ctx, `INSERT INTO tickets(id,project_id,title,description,acceptance_criteria,difficulty,status,claimed_by,claimed_at,branch_name,pr_url,pr_number,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.ProjectID, t.Title, nullable(t.Description), nullable(t.AcceptanceCriteria), t.Difficulty, t.Status,
		nullableStringPtr(t.ClaimedBy), nullableStringPtr(t.ClaimedAt), nullableStringPtr(t.BranchName),
		nullableStringPtr(t.PRURL), nullableIntPtr(t.PRNumber), t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	return scanTicket(r.DB.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=?`, id))
}

// GetTicketByBranch resolves the ticket tracking branch by exact match.
func (r Repo) GetTicketByBranch(ctx context.Context, branch string) (domain.Ticket, error) {
	if branch == "" {
		return domain.Ticket{}, ErrNotFound
	}
	return scanTicket(r.DB.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE branch_name=?`, branch))
}

type TicketFilters struct {
	ProjectID string
	Status    string
	ClaimedBy string
}

func (r Repo) ListTickets(ctx context.Context, f TicketFilters) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1=1`
	var args []any
	if f.ProjectID != "" {
		query += ` AND project_id=?`
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		query += ` AND status=?`
		args = append(args, f.Status)
	}
	if f.ClaimedBy != "" {
		query += ` AND claimed_by=?`
		args = append(args, f.ClaimedBy)
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// ClaimTicket moves an available ticket to claimed. It reports false when the
// ticket was not available at write time.
func (r Repo) ClaimTicket(ctx context.Context, tx *sql.Tx, id, userID, branch, now string) (bool, error) {
	res, err := r.exec(tx).ExecContext(ctx, `UPDATE tickets SET status='claimed', claimed_by=?, claimed_at=?, branch_name=?, updated_at=?
WHERE id=? AND status='available'`, userID, now, branch, now, id)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// ReleaseTicket resets a claimed ticket held by userID back to available.
func (r Repo) ReleaseTicket(ctx context.Context, tx *sql.Tx, id, userID, now string) (bool, error) {
	res, err := r.exec(tx).ExecContext(ctx, `UPDATE tickets SET status='available', claimed_by=NULL, claimed_at=NULL, branch_name=NULL, updated_at=?
WHERE id=? AND status='claimed' AND claimed_by=?`, now, id, userID)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// MarkInReview links a pull request and moves the ticket to in_review. It
// reports true only when this call changed the status; a ticket already in
// review gets its pull request fields refreshed and reports false. Done
// tickets are never touched.
func (r Repo) MarkInReview(ctx context.Context, tx *sql.Tx, id, prURL string, prNumber int, now string) (bool, error) {
	res, err := r.exec(tx).ExecContext(ctx, `UPDATE tickets SET status='in_review', pr_url=?, pr_number=?, updated_at=?
WHERE id=? AND status NOT IN ('in_review','done')`, prURL, prNumber, now, id)
	if err != nil {
		return false, err
	}
	changed, err := affected(res)
	if err != nil || changed {
		return changed, err
	}
	_, err = r.exec(tx).ExecContext(ctx, `UPDATE tickets SET pr_url=?, pr_number=?, updated_at=?
WHERE id=? AND status='in_review'`, prURL, prNumber, now, id)
	return false, err
}

// MarkDone records the merged pull request and completes the ticket. It
// reports false when the ticket was already done.
func (r Repo) MarkDone(ctx context.Context, tx *sql.Tx, id, prURL string, prNumber int, now string) (bool, error) {
	res, err := r.exec(tx).ExecContext(ctx, `UPDATE tickets SET status='done', pr_url=?, pr_number=?, updated_at=? WHERE id=? AND status<>'done'`,
		prURL, prNumber, now, id)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r Repo) SetReviewStatus(ctx context.Context, tx *sql.Tx, id, status, at string) (bool, error) {
	res, err := r.exec(tx).ExecContext(ctx, `UPDATE tickets SET review_status=?, last_review_at=?, updated_at=? WHERE id=?`,
		status, at, at, id)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r Repo) CountTicketsByStatus(ctx context.Context, projectID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM tickets WHERE project_id=? GROUP BY status`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
