package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimwork/internal/db"
	"claimwork/internal/domain"
	"claimwork/internal/engine"
	"claimwork/internal/logging"
	"claimwork/internal/migrate"
	"claimwork/internal/review"
)

const (
	testSecret   = "s3cret"
	testRepo     = "org/repo"
	testTicketID = "abcdef12-3456-7890-abcd-ef1234567890"
)

type fakeProvisioner struct {
	mu       sync.Mutex
	branches []string
	hooks    []string
	err      error
}

func (f *fakeProvisioner) CreateBranch(_ context.Context, owner, repo, branch, base string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.branches = append(f.branches, owner+"/"+repo+":"+base+"->"+branch)
	return nil
}

func (f *fakeProvisioner) CreateWebhookSubscription(_ context.Context, owner, repo, url, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.hooks = append(f.hooks, owner+"/"+repo+" "+url)
	return int64(len(f.hooks)), nil
}

type fakeTrigger struct {
	mu   sync.Mutex
	jobs []review.Job
}

func (f *fakeTrigger) Trigger(_ context.Context, job review.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
}

func (f *fakeTrigger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

type testEnv struct {
	Engine  engine.Engine
	Ctx     context.Context
	GitHub  *fakeProvisioner
	Reviews *fakeTrigger
	Project domain.Project
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	require.NoError(t, err, "open db")
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn), "migrate")

	eng := engine.New(conn, engine.Options{
		WebhookSecret: testSecret,
		WebhookURL:    "https://claimwork.example/webhooks/github",
		DefaultBranch: "main",
	})
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	eng.Log = logging.Discard()
	gh := &fakeProvisioner{}
	reviews := &fakeTrigger{}
	eng.GitHub = gh
	eng.Reviews = reviews

	ctx := context.Background()
	repoName := testRepo
	repoURL := "https://github.com/org/repo.git"
	p, err := eng.CreateProject(ctx, domain.Project{
		ID:             "proj-1",
		Name:           "Dark mode",
		GitHubRepoName: &repoName,
		GitHubRepoURL:  &repoURL,
	}, "tester")
	require.NoError(t, err, "create project")
	for _, id := range []string{"u1", "u2"} {
		_, err := eng.CreateUser(ctx, domain.User{ID: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}
	_, err = eng.CreateUser(ctx, domain.User{ID: "admin", Email: "admin@example.com", Role: domain.RoleAdmin})
	require.NoError(t, err)
	_, err = eng.CreateTicket(ctx, domain.Ticket{ID: testTicketID, ProjectID: p.ID, Title: "Add dark mode toggle"}, "tester")
	require.NoError(t, err, "create ticket")
	return testEnv{Engine: eng, Ctx: ctx, GitHub: gh, Reviews: reviews, Project: p}
}

func (env testEnv) ticket(t *testing.T) domain.Ticket {
	t.Helper()
	tk, err := env.Engine.Repo.GetTicket(env.Ctx, testTicketID)
	require.NoError(t, err)
	return tk
}

type prPayload struct {
	Action   string
	Branch   string
	Repo     string
	Number   int
	Merged   bool
	Adds     int
	Dels     int
	HeadSHA  string
	MergedAt string
}

func (p prPayload) bytes(t *testing.T) []byte {
	t.Helper()
	if p.Repo == "" {
		p.Repo = testRepo
	}
	if p.Number == 0 {
		p.Number = 42
	}
	pr := map[string]any{
		"number":    p.Number,
		"html_url":  "https://github.com/" + p.Repo + "/pull/42",
		"merged":    p.Merged,
		"additions": p.Adds,
		"deletions": p.Dels,
		"head":      map[string]any{"ref": p.Branch, "sha": p.HeadSHA},
	}
	if p.MergedAt != "" {
		pr["merged_at"] = p.MergedAt
	}
	data, err := json.Marshal(map[string]any{
		"action":       p.Action,
		"number":       p.Number,
		"pull_request": pr,
		"repository":   map[string]any{"full_name": p.Repo},
	})
	require.NoError(t, err)
	return data
}

func (env testEnv) deliver(t *testing.T, p prPayload) (engine.WebhookOutcome, error) {
	t.Helper()
	body := p.bytes(t)
	return env.Engine.HandleWebhook(env.Ctx, engine.WebhookDelivery{
		Payload:   body,
		Signature: engine.Sign(testSecret, body),
		EventType: "pull_request",
	})
}

const scenarioBranch = "feature/add-dark-mode-toggle-abcdef12"

func TestClaimDerivesBranchAndProvisions(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)
	assert.Equal(t, scenarioBranch, res.BranchName)
	assert.True(t, res.BranchCreated)
	assert.Contains(t, res.Instructions, "git clone https://github.com/org/repo.git")
	assert.Contains(t, res.Instructions, "git checkout "+scenarioBranch)

	tk := env.ticket(t)
	assert.Equal(t, domain.TicketClaimed, tk.Status)
	require.NotNil(t, tk.ClaimedBy)
	assert.Equal(t, "u1", *tk.ClaimedBy)
	require.NotNil(t, tk.BranchName)
	assert.Equal(t, scenarioBranch, *tk.BranchName)
	assert.NotNil(t, tk.ClaimedAt)
	assert.Nil(t, tk.PRURL)
	assert.Equal(t, []string{"org/repo:main->" + scenarioBranch}, env.GitHub.branches)
}

func TestClaimUnavailableTicket(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)
	_, err = env.Engine.Claim(env.Ctx, testTicketID, "u2")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrConflict)
	assert.Equal(t, "This ticket is no longer available", err.Error())
	assert.Equal(t, "u1", *env.ticket(t).ClaimedBy)
}

func TestClaimErrors(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.Claim(env.Ctx, "missing", "u1")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = env.Engine.Claim(env.Ctx, testTicketID, "ghost")
	assert.ErrorIs(t, err, engine.ErrValidation)
	assert.Contains(t, err.Error(), "profile")
	assert.Equal(t, domain.TicketAvailable, env.ticket(t).Status)

	_, err = env.Engine.Claim(env.Ctx, "", "u1")
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestClaimSkipsProfileCheckWhenConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Options.SkipProfileCheck = true
	_, err := env.Engine.Claim(env.Ctx, testTicketID, "dev-user")
	require.NoError(t, err)
	assert.Equal(t, "dev-user", *env.ticket(t).ClaimedBy)
}

func TestClaimSurvivesBranchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.GitHub.err = errors.New("github down")
	res, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)
	assert.False(t, res.BranchCreated)
	assert.Contains(t, res.Instructions, "git checkout -b "+scenarioBranch)
	assert.Equal(t, domain.TicketClaimed, env.ticket(t).Status)
}

func TestClaimWithoutRepository(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProject(env.Ctx, domain.Project{Name: "Unlinked"}, "tester")
	require.NoError(t, err)
	tk, err := env.Engine.CreateTicket(env.Ctx, domain.Ticket{ProjectID: p.ID, Title: "Write docs"}, "tester")
	require.NoError(t, err)
	res, err := env.Engine.Claim(env.Ctx, tk.ID, "u1")
	require.NoError(t, err)
	assert.False(t, res.BranchCreated)
	assert.Contains(t, res.Instructions, "not yet set up")
	assert.Empty(t, env.GitHub.branches)
}

func TestClaimLeavesTicketAvailableWhenProjectLookupFails(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.DB.ExecContext(env.Ctx, `ALTER TABLE projects RENAME TO projects_moved`)
	require.NoError(t, err)

	_, err = env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.Error(t, err)
	assert.Empty(t, engine.KindOf(err))
	assert.Equal(t, domain.TicketAvailable, env.ticket(t).Status)

	_, err = env.Engine.DB.ExecContext(env.Ctx, `ALTER TABLE projects_moved RENAME TO projects`)
	require.NoError(t, err)
	res, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketClaimed, res.Ticket.Status)
}

func TestLinkRepositoryUsesDefaultOwner(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProject(env.Ctx, domain.Project{ID: "proj-2", Name: "Docs"}, "tester")
	require.NoError(t, err)

	_, err = env.Engine.LinkRepository(env.Ctx, p.ID, "docs", "")
	assert.ErrorIs(t, err, engine.ErrValidation)

	env.Engine.Options.DefaultOwner = "acme"
	p, err = env.Engine.LinkRepository(env.Ctx, p.ID, "docs", "")
	require.NoError(t, err)
	assert.Equal(t, "acme/docs", p.RepoFullName())
	require.NotNil(t, p.GitHubRepoURL)
	assert.Equal(t, "https://github.com/acme/docs.git", *p.GitHubRepoURL)

	p, err = env.Engine.LinkRepository(env.Ctx, p.ID, "other/docs", "")
	require.NoError(t, err)
	assert.Equal(t, "other/docs", p.RepoFullName())
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Options.SkipProfileCheck = true
	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	users := make([]string, n)
	for i := 0; i < n; i++ {
		users[i] = "racer-" + string(rune('a'+i))
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Engine.Claim(env.Ctx, testTicketID, users[i])
		}(i)
	}
	wg.Wait()
	winner := ""
	for i, err := range errs {
		if err == nil {
			require.Empty(t, winner, "second claim succeeded")
			winner = users[i]
			continue
		}
		assert.ErrorIs(t, err, engine.ErrConflict)
	}
	require.NotEmpty(t, winner)
	tk := env.ticket(t)
	assert.Equal(t, domain.TicketClaimed, tk.Status)
	assert.Equal(t, winner, *tk.ClaimedBy)
}

func TestReleaseResetsClaim(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)
	require.NoError(t, env.Engine.Release(env.Ctx, testTicketID, "u1"))
	tk := env.ticket(t)
	assert.Equal(t, domain.TicketAvailable, tk.Status)
	assert.Nil(t, tk.ClaimedBy)
	assert.Nil(t, tk.ClaimedAt)
	assert.Nil(t, tk.BranchName)

	// A new claim derives the same branch.
	res, err := env.Engine.Claim(env.Ctx, testTicketID, "u2")
	require.NoError(t, err)
	assert.Equal(t, scenarioBranch, res.BranchName)
}

func TestReleaseGuards(t *testing.T) {
	env := newTestEnv(t)
	err := env.Engine.Release(env.Ctx, testTicketID, "u1")
	assert.ErrorIs(t, err, engine.ErrForbidden, "available ticket")

	_, err = env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)
	err = env.Engine.Release(env.Ctx, testTicketID, "u2")
	assert.ErrorIs(t, err, engine.ErrForbidden)
	assert.Equal(t, "You can only release tickets you claimed", err.Error())

	assert.ErrorIs(t, env.Engine.Release(env.Ctx, "missing", "u1"), engine.ErrNotFound)

	_, err = env.deliver(t, prPayload{Action: "opened", Branch: scenarioBranch})
	require.NoError(t, err)
	for _, user := range []string{"u1", "u2"} {
		err = env.Engine.Release(env.Ctx, testTicketID, user)
		assert.ErrorIs(t, err, engine.ErrConflict, user)
	}
	assert.Equal(t, domain.TicketInReview, env.ticket(t).Status)
}

func TestWebhookLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)

	opened := prPayload{Action: "opened", Branch: scenarioBranch, HeadSHA: "aaa"}
	out, err := env.deliver(t, opened)
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeProcessed, out.Status)
	tk := env.ticket(t)
	assert.Equal(t, domain.TicketInReview, tk.Status)
	require.NotNil(t, tk.PRNumber)
	assert.Equal(t, 42, *tk.PRNumber)
	assert.Equal(t, 1, env.Reviews.count())
	assert.Equal(t, review.Job{Owner: "org", Repo: "repo", PRNumber: 42, TicketID: testTicketID, HeadSHA: "aaa", Action: "opened"}, env.Reviews.jobs[0])

	// Redelivery converges on the same row.
	_, err = env.deliver(t, opened)
	require.NoError(t, err)
	tk = env.ticket(t)
	assert.Equal(t, domain.TicketInReview, tk.Status)
	assert.Equal(t, 42, *tk.PRNumber)
	n, err := env.Engine.Repo.CountContributions(env.Ctx, testTicketID)
	require.NoError(t, err)
	assert.Zero(t, n)
	inReview, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, "ticket.in_review", "ticket", testTicketID)
	require.NoError(t, err)
	assert.Len(t, inReview, 1)

	merged := prPayload{Action: "closed", Branch: scenarioBranch, Merged: true, Adds: 120, Dels: 8, MergedAt: "2024-02-01T10:00:00Z"}
	for i := 0; i < 2; i++ {
		out, err = env.deliver(t, merged)
		require.NoError(t, err)
		assert.Equal(t, engine.OutcomeProcessed, out.Status)
		assert.Equal(t, domain.TicketDone, env.ticket(t).Status)
	}
	n, err = env.Engine.Repo.CountContributions(env.Ctx, testTicketID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	c, err := env.Engine.Repo.GetContributionByTicket(env.Ctx, testTicketID)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, 120, c.LinesAdded)
	assert.Equal(t, 8, c.LinesRemoved)
	assert.Equal(t, "2024-02-01T10:00:00Z", c.MergedAt)

	// Late events never move a done ticket back.
	out, err = env.deliver(t, prPayload{Action: "synchronize", Branch: scenarioBranch, HeadSHA: "bbb"})
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonTicketDone, out.Reason)
	out, err = env.deliver(t, prPayload{Action: "reopened", Branch: scenarioBranch})
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonTicketDone, out.Reason)
	assert.Equal(t, domain.TicketDone, env.ticket(t).Status)
	assert.Equal(t, 2, env.Reviews.count())
}

func TestConcurrentRedeliveryAppendsOneEventPerTransition(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)

	deliverAll := func(p prPayload) {
		const n = 6
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = env.deliver(t, p)
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}
	}
	countEvents := func(typ string) int {
		evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 50, typ, "ticket", testTicketID)
		require.NoError(t, err)
		return len(evts)
	}

	deliverAll(prPayload{Action: "opened", Branch: scenarioBranch, HeadSHA: "aaa"})
	assert.Equal(t, domain.TicketInReview, env.ticket(t).Status)
	assert.Equal(t, 1, countEvents("ticket.in_review"))

	deliverAll(prPayload{Action: "closed", Branch: scenarioBranch, Merged: true, Adds: 10, Dels: 2})
	assert.Equal(t, domain.TicketDone, env.ticket(t).Status)
	assert.Equal(t, 1, countEvents("ticket.done"))
	assert.Equal(t, 1, countEvents("ticket.in_review"))
	n, err := env.Engine.Repo.CountContributions(env.Ctx, testTicketID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWebhookSynchronizeTriggersReviewOnly(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)
	out, err := env.deliver(t, prPayload{Action: "synchronize", Branch: scenarioBranch, HeadSHA: "ccc"})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeProcessed, out.Status)
	assert.Equal(t, 1, env.Reviews.count())
	assert.Equal(t, domain.TicketClaimed, env.ticket(t).Status)
}

func TestWebhookIgnoredDeliveries(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)

	body := prPayload{Action: "opened", Branch: scenarioBranch}.bytes(t)
	out, err := env.Engine.HandleWebhook(env.Ctx, engine.WebhookDelivery{Payload: body, Signature: engine.Sign(testSecret, body), EventType: "push"})
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonEventIgnored, out.Reason)

	out, err = env.deliver(t, prPayload{Action: "opened", Branch: "feature/unrelated"})
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonBranchNotTracked, out.Reason)

	out, err = env.deliver(t, prPayload{Action: "opened", Branch: scenarioBranch, Repo: "other/repo"})
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonRepoMismatch, out.Reason)

	out, err = env.deliver(t, prPayload{Action: "closed", Branch: scenarioBranch, Merged: false})
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonActionIgnored, out.Reason)

	out, err = env.deliver(t, prPayload{Action: "labeled", Branch: scenarioBranch})
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonActionIgnored, out.Reason)

	assert.Equal(t, domain.TicketClaimed, env.ticket(t).Status)
	assert.Zero(t, env.Reviews.count())
}

func TestWebhookRepositoryMatchIgnoresCase(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)

	out, err := env.deliver(t, prPayload{Action: "opened", Branch: scenarioBranch, Repo: "Org/Repo"})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeProcessed, out.Status)
	assert.Equal(t, domain.TicketInReview, env.ticket(t).Status)

	out, err = env.deliver(t, prPayload{Action: "opened", Branch: scenarioBranch, Repo: "org/repo-fork"})
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonRepoMismatch, out.Reason)
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)
	body := prPayload{Action: "opened", Branch: scenarioBranch}.bytes(t)
	sig := engine.Sign(testSecret, body)
	tampered := prPayload{Action: "closed", Branch: scenarioBranch, Merged: true}.bytes(t)

	for _, header := range []string{sig, "", "sha256=abc"} {
		_, err = env.Engine.HandleWebhook(env.Ctx, engine.WebhookDelivery{Payload: tampered, Signature: header, EventType: "pull_request"})
		assert.ErrorIs(t, err, engine.ErrUnauthorized)
	}
	assert.Equal(t, domain.TicketClaimed, env.ticket(t).Status)
	assert.Zero(t, env.Reviews.count())
}

func TestWebhookMalformedPayload(t *testing.T) {
	env := newTestEnv(t)
	body := []byte(`{"action":`)
	_, err := env.Engine.HandleWebhook(env.Ctx, engine.WebhookDelivery{Payload: body, Signature: engine.Sign(testSecret, body), EventType: "pull_request"})
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestWebhookWithoutSecretSkipsVerification(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Options.WebhookSecret = ""
	_, err := env.Engine.Claim(env.Ctx, testTicketID, "u1")
	require.NoError(t, err)
	body := prPayload{Action: "opened", Branch: scenarioBranch}.bytes(t)
	out, err := env.Engine.HandleWebhook(env.Ctx, engine.WebhookDelivery{Payload: body, EventType: "pull_request"})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeProcessed, out.Status)
}

func TestRecordContributionOnce(t *testing.T) {
	env := newTestEnv(t)
	c := domain.Contribution{UserID: "u1", TicketID: testTicketID, ProjectID: "proj-1", PRURL: "https://github.com/org/repo/pull/1"}
	ok, err := env.Engine.RecordContribution(env.Ctx, c)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.Engine.RecordContribution(env.Ctx, c)
	require.NoError(t, err)
	assert.False(t, ok)
	list, err := env.Engine.Contributions(env.Ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRegisterWebhookRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.RegisterWebhook(env.Ctx, "proj-1", "u1")
	assert.ErrorIs(t, err, engine.ErrForbidden)

	id, err := env.Engine.RegisterWebhook(env.Ctx, "proj-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, []string{"org/repo https://claimwork.example/webhooks/github"}, env.GitHub.hooks)

	_, err = env.Engine.RegisterWebhook(env.Ctx, "missing", "admin")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestSetReviewStatus(t *testing.T) {
	env := newTestEnv(t)
	tk, err := env.Engine.SetReviewStatus(env.Ctx, testTicketID, domain.ReviewCompleted, "pipeline")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewCompleted, tk.ReviewStatus)
	assert.NotNil(t, tk.LastReviewAt)

	_, err = env.Engine.SetReviewStatus(env.Ctx, testTicketID, "bogus", "pipeline")
	assert.ErrorIs(t, err, engine.ErrValidation)
	_, err = env.Engine.SetReviewStatus(env.Ctx, "missing", domain.ReviewPending, "pipeline")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
