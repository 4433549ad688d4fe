package claimworksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal claimwork HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Ticket represents the API ticket model.
type Ticket struct {
	ID           string  `json:"id"`
	ProjectID    string  `json:"project_id"`
	Title        string  `json:"title"`
	Difficulty   string  `json:"difficulty"`
	Status       string  `json:"status"`
	ClaimedBy    *string `json:"claimed_by,omitempty"`
	ClaimedAt    *string `json:"claimed_at,omitempty"`
	BranchName   *string `json:"branch_name,omitempty"`
	PRURL        *string `json:"pr_url,omitempty"`
	PRNumber     *int    `json:"pr_number,omitempty"`
	ReviewStatus string  `json:"review_status,omitempty"`
}

// Claim is the result of claiming a ticket.
type Claim struct {
	Ticket        Ticket `json:"ticket"`
	BranchName    string `json:"branch_name"`
	BranchCreated bool   `json:"branch_created"`
	Instructions  string `json:"instructions"`
}

// Contribution is a merged ticket credited to a user.
type Contribution struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	TicketID     string `json:"ticket_id"`
	ProjectID    string `json:"project_id"`
	PRURL        string `json:"pr_url"`
	PRNumber     *int   `json:"pr_number,omitempty"`
	MergedAt     string `json:"merged_at"`
	LinesAdded   int    `json:"lines_added"`
	LinesRemoved int    `json:"lines_removed"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// ClaimTicket claims a ticket for the authenticated user.
func (c *Client) ClaimTicket(ctx context.Context, ticketID string) (Claim, error) {
	var resp Claim
	err := c.do(ctx, http.MethodPost, "v0/tickets/claim", map[string]any{"ticket_id": ticketID}, &resp)
	return resp, err
}

// ReleaseTicket gives a claimed ticket back.
func (c *Client) ReleaseTicket(ctx context.Context, ticketID string) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, "v0/tickets/release", map[string]any{"ticket_id": ticketID}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return errors.New("release not acknowledged")
	}
	return nil
}

// GetTicket fetches a ticket by id.
func (c *Client) GetTicket(ctx context.Context, ticketID string) (Ticket, error) {
	var resp Ticket
	err := c.do(ctx, http.MethodGet, "v0/tickets/"+url.PathEscape(ticketID), nil, &resp)
	return resp, err
}

// Contributions lists the authenticated user's contributions.
func (c *Client) Contributions(ctx context.Context) ([]Contribution, error) {
	var resp struct {
		Items []Contribution `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "v0/me/contributions", nil, &resp)
	return resp.Items, err
}

// SetReviewStatus reports review progress for a ticket. Requires an admin key.
func (c *Client) SetReviewStatus(ctx context.Context, ticketID, status string) (Ticket, error) {
	var resp Ticket
	endpoint := fmt.Sprintf("v0/tickets/%s/review-status", url.PathEscape(ticketID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"status": status}, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
