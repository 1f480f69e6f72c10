package gitlab

import (
	goerrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/karlseguin/ccache/v2"
	"github.com/pkg/errors"
	"github.com/xanzy/go-gitlab"
	"go.uber.org/zap"

	"github.com/anonticket/anonticket/internal/config"
)

type Client struct {
	config *config.Config
	gitlab *gitlab.Client
	logger *zap.Logger

	// Project details change rarely; a short TTL keeps rendering cheap
	// without holding stale metadata for long.
	projectCache *ccache.Cache
}

const projectCacheTTL = 5 * time.Minute

func NewClient(conf *config.Config, logger *zap.Logger) (*Client, error) {
	client, err := gitlab.NewClient(conf.GitLab.Api.Token, gitlab.WithBaseURL(conf.GitLab.BaseURL))
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create gitlab client")
	}
	return &Client{
		config:       conf,
		gitlab:       client,
		logger:       logger,
		projectCache: ccache.New(ccache.Configure().MaxSize(256)),
	}, nil
}

// IsNotFound reports whether the API rejected the request because the target
// does not exist or is not visible to our token. GitLab deliberately blurs
// 404 and 403 for private resources, so both are one class here.
func IsNotFound(err error) bool {
	var errresp *gitlab.ErrorResponse
	if goerrors.As(err, &errresp) && errresp.Response != nil {
		code := errresp.Response.StatusCode
		return code == http.StatusNotFound || code == http.StatusForbidden
	}
	return false
}

func (c *Client) FetchProject(id int) (*gitlab.Project, error) {
	project, _, err := c.gitlab.Projects.GetProject(id, &gitlab.GetProjectOptions{})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// CachedProject serves project metadata for rendering. The lookup adapter
// calls FetchProject directly; its failure classification must see live errors.
func (c *Client) CachedProject(id int) (*gitlab.Project, error) {
	item, err := c.projectCache.Fetch(fmt.Sprintf("project/%d", id), projectCacheTTL, func() (interface{}, error) {
		return c.FetchProject(id)
	})
	if err != nil {
		return nil, err
	}
	return item.Value().(*gitlab.Project), nil
}

// SearchProjectIssues runs a free-text issue search within a project. The
// terms are passed through verbatim and results keep the API's order.
func (c *Client) SearchProjectIssues(projectID int, terms string) ([]*gitlab.Issue, error) {
	issues, _, err := c.gitlab.Search.IssuesByProject(projectID, terms, &gitlab.SearchOptions{})
	if err != nil {
		return nil, err
	}
	return issues, nil
}

func (c *Client) FetchIssue(projectID, issueIID int) (*gitlab.Issue, error) {
	issue, _, err := c.gitlab.Issues.GetIssue(projectID, issueIID)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (c *Client) ListIssueNotes(projectID, issueIID int) ([]*gitlab.Note, error) {
	notes, _, err := c.gitlab.Notes.ListIssueNotes(projectID, issueIID, &gitlab.ListIssueNotesOptions{})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) CreateIssue(projectID int, title, description string) (*gitlab.Issue, error) {
	issue, _, err := c.gitlab.Issues.CreateIssue(projectID, &gitlab.CreateIssueOptions{
		Title:       gitlab.String(title),
		Description: gitlab.String(description),
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (c *Client) CreateIssueNote(projectID, issueIID int, body string) (*gitlab.Note, error) {
	note, _, err := c.gitlab.Notes.CreateIssueNote(projectID, issueIID, &gitlab.CreateIssueNoteOptions{
		Body: gitlab.String(body),
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}
