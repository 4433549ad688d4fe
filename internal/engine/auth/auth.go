package auth

import (
	"context"
	"errors"
	"fmt"

	"claimwork/internal/domain"
	"claimwork/internal/repo"
)

// ForbiddenError indicates the caller lacks the role an operation needs.
type ForbiddenError struct {
	Role string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("role %s required", e.Role)
}

// Service checks user roles against the profile store.
type Service struct {
	Repo repo.Repo
}

// UserRole returns the role of userID, or "" when no profile exists.
func (s Service) UserRole(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user_id required")
	}
	u, err := s.Repo.GetUser(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// RequireRole fails with ForbiddenError unless userID holds role.
func (s Service) RequireRole(ctx context.Context, userID, role string) error {
	got, err := s.UserRole(ctx, userID)
	if err != nil {
		return err
	}
	if got != role {
		return ForbiddenError{Role: role}
	}
	return nil
}

func (s Service) RequireAdmin(ctx context.Context, userID string) error {
	return s.RequireRole(ctx, userID, domain.RoleAdmin)
}
