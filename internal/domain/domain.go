package domain

// Ticket statuses.
const (
	TicketAvailable = "available"
	TicketClaimed   = "claimed"
	TicketInReview  = "in_review"
	TicketDone      = "done"
)

// Review statuses reported by the review pipeline.
const (
	ReviewPending   = "pending"
	ReviewCompleted = "completed"
	ReviewFailed    = "failed"
)

const (
	RoleAdmin       = "admin"
	RoleContributor = "contributor"
)

type Project struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Difficulty     string  `json:"difficulty" enum:"beginner,intermediate,advanced"`
	Status         string  `json:"status" enum:"draft,active,completed,paused"`
	GitHubRepoURL  *string `json:"github_repo_url,omitempty"`
	GitHubRepoName *string `json:"github_repo_name,omitempty"`
	DefaultBranch  string  `json:"default_branch"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
	UpdatedAt      string  `json:"updated_at" format:"date-time"`
}

// RepoFullName returns owner/repo, or "" when no repository is linked yet.
func (p Project) RepoFullName() string {
	if p.GitHubRepoName == nil {
		return ""
	}
	return *p.GitHubRepoName
}

type Ticket struct {
	ID                 string  `json:"id"`
	ProjectID          string  `json:"project_id"`
	Title              string  `json:"title"`
	Description        string  `json:"description,omitempty"`
	AcceptanceCriteria string  `json:"acceptance_criteria,omitempty"`
	Difficulty         string  `json:"difficulty" enum:"beginner,intermediate,advanced"`
	Status             string  `json:"status" enum:"available,claimed,in_review,done"`
	ClaimedBy          *string `json:"claimed_by,omitempty"`
	ClaimedAt          *string `json:"claimed_at,omitempty" format:"date-time"`
	BranchName         *string `json:"branch_name,omitempty"`
	PRURL              *string `json:"pr_url,omitempty"`
	PRNumber           *int    `json:"pr_number,omitempty"`
	ReviewStatus       string  `json:"review_status,omitempty"`
	LastReviewAt       *string `json:"last_review_at,omitempty" format:"date-time"`
	CreatedAt          string  `json:"created_at" format:"date-time"`
	UpdatedAt          string  `json:"updated_at" format:"date-time"`
}

// ClaimedByUser reports whether userID holds the claim.
func (t Ticket) ClaimedByUser(userID string) bool {
	return t.ClaimedBy != nil && *t.ClaimedBy == userID
}

// HasPullRequest is true once the ticket is in_review or done.
func (t Ticket) HasPullRequest() bool {
	return t.Status == TicketInReview || t.Status == TicketDone
}

type Contribution struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	TicketID     string `json:"ticket_id"`
	ProjectID    string `json:"project_id"`
	PRURL        string `json:"pr_url"`
	PRNumber     *int   `json:"pr_number,omitempty"`
	MergedAt     string `json:"merged_at" format:"date-time"`
	LinesAdded   int    `json:"lines_added"`
	LinesRemoved int    `json:"lines_removed"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

type User struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	Name           string  `json:"name,omitempty"`
	Role           string  `json:"role" enum:"admin,contributor"`
	GitHubUsername *string `json:"github_username,omitempty"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
