package repo

import (
	"context"
	"database/sql"

	"claimwork/internal/domain"
)

func (r Repo) InsertUser(ctx context.Context, tx *sql.Tx, u domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleContributor
	}
	_, err := r.exec(tx).ExecContext(ctx, `INSERT INTO users(id,email,name,role,github_username,created_at) VALUES (?,?,?,?,?,?)`,
		u.ID, u.Email, nullable(u.Name), u.Role, nullableStringPtr(u.GitHubUsername), u.CreatedAt)
	return err
}

// GetUser returns the contributor profile for id.
func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	var name, gh sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,email,name,role,github_username,created_at FROM users WHERE id=?`, id).
		Scan(&u.ID, &u.Email, &name, &u.Role, &gh, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	u.Name = name.String
	u.GitHubUsername = nullStringPtr(gh)
	return u, nil
}
