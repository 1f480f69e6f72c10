package api

import "time"

const (
	KindIssue          = "issue"
	KindNote           = "note"
	KindAccountRequest = "account-request"
)

const (
	VerdictApproved = "approved"
	VerdictRejected = "rejected"
)

type PendingIssue struct {
	ID          uint      `json:"id"`
	Identifier  string    `json:"identifier"`
	Project     string    `json:"project"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type PendingNote struct {
	ID         uint      `json:"id"`
	Identifier string    `json:"identifier"`
	Project    string    `json:"project"`
	IssueIID   int       `json:"issue_iid"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type PendingAccountRequest struct {
	ID         uint      `json:"id"`
	Identifier string    `json:"identifier"`
	Username   string    `json:"username"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

type PendingResponse struct {
	Status

	Issues          []PendingIssue          `json:"issues,omitempty"`
	Notes           []PendingNote           `json:"notes,omitempty"`
	AccountRequests []PendingAccountRequest `json:"account_requests,omitempty"`
}

type ReviewRequest struct {
	Kind    string `json:"kind" form:"kind"`
	ID      uint   `json:"id" form:"id"`
	Verdict string `json:"verdict" form:"verdict"`
	Note    string `json:"note,omitempty" form:"note"`
}

type ReviewResponse struct {
	Status
}

type HealthResponse struct {
	Status

	PostedSubmissions int64 `json:"posted_submissions"`
	FailedSubmissions int64 `json:"failed_submissions"`
	PendingIssues     int64 `json:"pending_issues"`
	PendingNotes      int64 `json:"pending_notes"`
	PendingRequests   int64 `json:"pending_requests"`
}
