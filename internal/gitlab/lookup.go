package gitlab

import (
	"github.com/xanzy/go-gitlab"
	"go.uber.org/zap"

	lf "github.com/anonticket/anonticket/internal/logfield"
	"github.com/anonticket/anonticket/internal/models"
)

// ProjectAPI is the slice of the GitLab client the lookup needs. Tests
// substitute a recording double here.
type ProjectAPI interface {
	FetchProject(id int) (*gitlab.Project, error)
	SearchProjectIssues(projectID int, terms string) ([]*gitlab.Issue, error)
}

type LookupStatus string

const (
	LookupPending   LookupStatus = "pending"
	LookupSuccess   LookupStatus = "success"
	LookupNoMatches LookupStatus = "no_matches"
	LookupFailed    LookupStatus = "failed"
)

// Fixed user-facing messages, one per terminal state and stage.
const (
	MessageProjectNotFound = "This project could not be fetched from GitLab. " +
		"It likely does not exist, or you don't have access to it."
	MessageProjectLookupError = "This lookup failed for a reason not currently " +
		"accounted for by our error handling."
	MessageIssueFetchFailed = "Your project was found, but this issue could not be " +
		"fetched from GitLab. It likely does not exist, or you don't have access to it."
	MessageIssuesFound      = "Issues were found matching this search string."
	MessageNoMatchingIssues = "Your search executed successfully, but no issues " +
		"matching this search string were found."
	MessageIssueLookupError = "This lookup failed for unknown reasons."
)

// LookupResult summarizes a two-stage project+issue lookup. It is built fresh
// per request and never persisted. ProjectStatus stays pending when the
// project resolves; only a stage-one failure flips it.
type LookupResult struct {
	ProjectStatus   LookupStatus
	Status          LookupStatus
	Message         string
	MatchingProject *gitlab.Project
	MatchingIssues  []*gitlab.Issue
}

// Lookup reduces every possible outcome of contacting GitLab to a closed set
// of states so the presentation layer never branches on transport errors.
type Lookup struct {
	api    ProjectAPI
	logger *zap.Logger
}

func NewLookup(api ProjectAPI, logger *zap.Logger) *Lookup {
	return &Lookup{api: api, logger: logger}
}

// Lookup resolves the project's GitLab counterpart, then searches issues in
// it. The stages are sequential and short-circuiting: a stage-one failure
// returns immediately and stage two is never attempted. It always returns a
// fully populated result; no error escapes to the caller.
func (l *Lookup) Lookup(project *models.Project, terms string) LookupResult {
	log := l.logger.With(lf.ProjectSlug(project.Slug), lf.GitlabProject(project.GitlabID), lf.SearchTerms(terms))

	result := LookupResult{
		ProjectStatus: LookupPending,
		Status:        LookupPending,
	}

	remote, err := l.api.FetchProject(project.GitlabID)
	if err != nil {
		result.ProjectStatus = LookupFailed
		result.Status = LookupFailed
		if IsNotFound(err) {
			result.Message = MessageProjectNotFound
		} else {
			result.Message = MessageProjectLookupError
		}
		log.Warn("Project lookup failed", zap.Error(err))
		return result
	}
	result.MatchingProject = remote

	issues, err := l.api.SearchProjectIssues(project.GitlabID, terms)
	if err != nil {
		result.Status = LookupFailed
		if IsNotFound(err) {
			result.Message = MessageIssueFetchFailed
		} else {
			result.Message = MessageIssueLookupError
		}
		log.Warn("Issue search failed", zap.Error(err))
		return result
	}

	if len(issues) == 0 {
		result.Status = LookupNoMatches
		result.Message = MessageNoMatchingIssues
		return result
	}

	result.Status = LookupSuccess
	result.Message = MessageIssuesFound
	result.MatchingIssues = issues
	return result
}
