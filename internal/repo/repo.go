package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"claimwork/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r Repo) exec(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return r.DB
}

const projectColumns = `id,name,COALESCE(description,''),difficulty,status,github_repo_url,github_repo_name,default_branch,created_at,updated_at`

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	var repoURL, repoName sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Difficulty, &p.Status, &repoURL, &repoName, &p.DefaultBranch, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.GitHubRepoURL = nullStringPtr(repoURL)
	p.GitHubRepoName = nullStringPtr(repoName)
	return p, nil
}

func (r Repo) InsertProject(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	if p.DefaultBranch == "" {
		p.DefaultBranch = "main"
	}
	_, err := r.exec(tx).ExecContext(ctx, `INSERT INTO projects(id,name,description,difficulty,status,github_repo_url,github_repo_name,default_branch,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, nullable(p.Description), p.Difficulty, p.Status, nullableStringPtr(p.GitHubRepoURL), nullableStringPtr(p.GitHubRepoName),
		p.DefaultBranch, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return scanProject(r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
}

func (r Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// LinkRepository records the GitHub repository backing a project.
func (r Repo) LinkRepository(ctx context.Context, id, repoURL, repoFullName, now string) error {
	if !strings.Contains(repoFullName, "/") {
		return fmt.Errorf("invalid repository name %q: expected owner/repo", repoFullName)
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE projects SET github_repo_url=?, github_repo_name=?, updated_at=? WHERE id=?`,
		nullable(repoURL), repoFullName, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) SetProjectStatus(ctx context.Context, id, status, now string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE projects SET status=?, updated_at=? WHERE id=?`, status, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
