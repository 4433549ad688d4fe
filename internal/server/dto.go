package server

import (
	"claimwork/internal/domain"
	"claimwork/internal/engine"
)

// Request payloads

// TicketRequest is the body of claim and release. ticket_id is checked by
// the handler so a missing value gets the same message as an empty one.
type TicketRequest struct {
	TicketID string `json:"ticket_id,omitempty" example:"abcdef12-3456-7890-abcd-ef1234567890"`
}

type ReviewStatusRequest struct {
	Status string `json:"status" enum:"pending,completed,failed"`
}

type DevLoginRequest struct {
	UserID string `json:"user_id"`
}

// Response payloads

type ClaimResponse struct {
	Ticket        domain.Ticket `json:"ticket"`
	BranchName    string        `json:"branch_name" example:"feature/add-dark-mode-toggle-abcdef12"`
	BranchCreated bool          `json:"branch_created"`
	Instructions  string        `json:"instructions"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ContributionsResponse struct {
	Items []domain.Contribution `json:"items"`
}

type WebhookRegistrationResponse struct {
	ProjectID string `json:"project_id"`
	HookID    int64  `json:"hook_id"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

type WhoAmIResponse struct {
	UserID string `json:"user_id"`
	Source string `json:"source"`
	Role   string `json:"role,omitempty"`
}

func claimResponse(res engine.ClaimResult) ClaimResponse {
	return ClaimResponse{
		Ticket:        res.Ticket,
		BranchName:    res.BranchName,
		BranchCreated: res.BranchCreated,
		Instructions:  res.Instructions,
	}
}

func nonNilContributions(items []domain.Contribution) []domain.Contribution {
	if items == nil {
		return []domain.Contribution{}
	}
	return items
}
