// Package github provisions branches and webhook subscriptions on GitHub.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"claimwork/internal/config"
	"claimwork/internal/logging"
)

// Client wraps the GitHub REST API.
type Client struct {
	client *github.Client
	log    *slog.Logger
}

// APIURL returns the REST endpoint for a GitHub domain; github.com when empty.
func APIURL(domain string) string {
	if domain == "" || domain == "github.com" {
		return "https://api.github.com/"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// NewFromConfig builds a token-authenticated client.
func NewFromConfig(cfg config.GitHubConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("github token not configured")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	return New(oauth2.NewClient(context.Background(), ts), APIURL(cfg.Domain))
}

// New builds a client that talks to apiURL through httpClient.
func New(httpClient *http.Client, apiURL string) (*Client, error) {
	c := github.NewClient(httpClient)
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid github api url: %w", err)
	}
	c.BaseURL = parsed
	c.UploadURL = parsed
	return &Client{client: c, log: logging.With("component", "github")}, nil
}

// SplitRepo splits an owner/repo full name.
func SplitRepo(fullName string) (string, string, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format: %s, expected format: owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}

// CreateBranch creates refs/heads/<branch> at the tip of base. A branch that
// already exists counts as created: a released ticket claimed again derives
// the same name and the old branch is never deleted.
func (c *Client) CreateBranch(ctx context.Context, owner, repo, branch, base string) error {
	if base == "" {
		base = "main"
	}
	ref, _, err := c.client.Git.GetRef(ctx, owner, repo, "heads/"+base)
	if err != nil {
		return fmt.Errorf("get base ref %s/%s@%s: %w", owner, repo, base, err)
	}
	if ref.Object == nil || ref.Object.SHA == nil {
		return fmt.Errorf("base ref %s/%s@%s has no commit", owner, repo, base)
	}
	_, _, err = c.client.Git.CreateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: ref.Object.SHA},
	})
	if err != nil {
		if refExists(err) {
			c.log.Info("branch already exists", "repo", owner+"/"+repo, "branch", branch)
			return nil
		}
		return fmt.Errorf("create branch %s on %s/%s: %w", branch, owner, repo, err)
	}
	c.log.Debug("branch created", "repo", owner+"/"+repo, "branch", branch, "sha", ref.Object.GetSHA())
	return nil
}

func refExists(err error) bool {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return false
	}
	return ghErr.Response.StatusCode == http.StatusUnprocessableEntity &&
		strings.Contains(strings.ToLower(ghErr.Message), "already exists")
}

// CreateWebhookSubscription subscribes webhookURL to pull_request events,
// signed with secret. It returns the hook id.
func (c *Client) CreateWebhookSubscription(ctx context.Context, owner, repo, webhookURL, secret string) (int64, error) {
	hook, _, err := c.client.Repositories.CreateHook(ctx, owner, repo, &github.Hook{
		Config: map[string]interface{}{
			"url":          webhookURL,
			"content_type": "json",
			"secret":       secret,
		},
		Events: []string{"pull_request"},
		Active: github.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("create webhook on %s/%s: %w", owner, repo, err)
	}
	c.log.Info("webhook registered", "repo", owner+"/"+repo, "hook_id", hook.GetID())
	return hook.GetID(), nil
}
