package gitlab

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xanzy/go-gitlab"
	"go.uber.org/zap"

	"github.com/anonticket/anonticket/internal/models"
)

type fakeProjectAPI struct {
	project    *gitlab.Project
	projectErr error
	issues     []*gitlab.Issue
	issuesErr  error

	fetchCalls  int
	searchCalls int
	searchTerms string
}

func (f *fakeProjectAPI) FetchProject(id int) (*gitlab.Project, error) {
	f.fetchCalls++
	return f.project, f.projectErr
}

func (f *fakeProjectAPI) SearchProjectIssues(projectID int, terms string) ([]*gitlab.Issue, error) {
	f.searchCalls++
	f.searchTerms = terms
	return f.issues, f.issuesErr
}

func apiError(code int) error {
	return &gitlab.ErrorResponse{Response: &http.Response{StatusCode: code}}
}

func testProject() *models.Project {
	return &models.Project{GitlabID: 747, Slug: "a-project-slug", Name: "A Project"}
}

func TestLookupProjectNotFoundShortCircuits(t *testing.T) {
	api := &fakeProjectAPI{projectErr: apiError(http.StatusNotFound)}
	lookup := NewLookup(api, zap.NewNop())

	result := lookup.Lookup(testProject(), "issue")

	if result.ProjectStatus != LookupFailed {
		t.Fatalf("Expected project status %q, got %q", LookupFailed, result.ProjectStatus)
	}
	if result.Status != LookupFailed {
		t.Fatalf("Expected status %q, got %q", LookupFailed, result.Status)
	}
	if result.Message != MessageProjectNotFound {
		t.Fatalf("Unexpected message: %q", result.Message)
	}
	if result.MatchingProject != nil {
		t.Fatal("Expected no matching project")
	}
	if api.searchCalls != 0 {
		t.Fatalf("Issue search must not run after a project failure, got %d calls", api.searchCalls)
	}
}

func TestLookupProjectForbiddenIsNotFoundClass(t *testing.T) {
	api := &fakeProjectAPI{projectErr: apiError(http.StatusForbidden)}
	lookup := NewLookup(api, zap.NewNop())

	result := lookup.Lookup(testProject(), "issue")

	if result.ProjectStatus != LookupFailed || result.Message != MessageProjectNotFound {
		t.Fatalf("Expected not-found classification, got %+v", result)
	}
}

func TestLookupProjectUnknownError(t *testing.T) {
	api := &fakeProjectAPI{projectErr: errors.New("connection reset")}
	lookup := NewLookup(api, zap.NewNop())

	result := lookup.Lookup(testProject(), "issue")

	if result.ProjectStatus != LookupFailed {
		t.Fatalf("Expected project status %q, got %q", LookupFailed, result.ProjectStatus)
	}
	if result.Message != MessageProjectLookupError {
		t.Fatalf("Unexpected message: %q", result.Message)
	}
	if api.searchCalls != 0 {
		t.Fatal("Issue search must not run after a project failure")
	}
}

func TestLookupNoMatches(t *testing.T) {
	api := &fakeProjectAPI{project: &gitlab.Project{ID: 747}}
	lookup := NewLookup(api, zap.NewNop())

	result := lookup.Lookup(testProject(), "i-dont-match-anything")

	if result.ProjectStatus != LookupPending {
		t.Fatalf("Expected project status %q, got %q", LookupPending, result.ProjectStatus)
	}
	if result.Status != LookupNoMatches {
		t.Fatalf("Expected status %q, got %q", LookupNoMatches, result.Status)
	}
	if result.Message != MessageNoMatchingIssues {
		t.Fatalf("Unexpected message: %q", result.Message)
	}
	if result.MatchingProject == nil {
		t.Fatal("Expected the resolved project in the result")
	}
}

func TestLookupSuccessKeepsAPIOrder(t *testing.T) {
	// The adapter does not re-sort; the API's order is opaque but preserved.
	issues := []*gitlab.Issue{{IID: 9}, {IID: 3}, {IID: 40}}
	api := &fakeProjectAPI{project: &gitlab.Project{ID: 747}, issues: issues}
	lookup := NewLookup(api, zap.NewNop())

	result := lookup.Lookup(testProject(), "issue")

	if result.Status != LookupSuccess {
		t.Fatalf("Expected status %q, got %q", LookupSuccess, result.Status)
	}
	if result.Message != MessageIssuesFound {
		t.Fatalf("Unexpected message: %q", result.Message)
	}

	gotIIDs := make([]int, 0, len(result.MatchingIssues))
	for _, issue := range result.MatchingIssues {
		gotIIDs = append(gotIIDs, issue.IID)
	}
	if diff := cmp.Diff([]int{9, 3, 40}, gotIIDs); diff != "" {
		t.Fatalf("Issue order mismatch (-want +got):\n%s", diff)
	}

	if api.searchTerms != "issue" {
		t.Fatalf("Search terms must pass through verbatim, got %q", api.searchTerms)
	}
}

func TestLookupIssueSearchFailures(t *testing.T) {
	for _, tc := range []struct {
		name     string
		err      error
		expected string
	}{
		{"not found", apiError(http.StatusNotFound), MessageIssueFetchFailed},
		{"forbidden", apiError(http.StatusForbidden), MessageIssueFetchFailed},
		{"unknown", errors.New("timeout"), MessageIssueLookupError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeProjectAPI{project: &gitlab.Project{ID: 747}, issuesErr: tc.err}
			lookup := NewLookup(api, zap.NewNop())

			result := lookup.Lookup(testProject(), "issue")

			if result.ProjectStatus != LookupPending {
				t.Fatalf("Project stage succeeded, status must stay %q, got %q", LookupPending, result.ProjectStatus)
			}
			if result.Status != LookupFailed {
				t.Fatalf("Expected status %q, got %q", LookupFailed, result.Status)
			}
			if result.Message != tc.expected {
				t.Fatalf("Unexpected message: %q", result.Message)
			}
		})
	}
}
