package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/anonticket/anonticket/internal/database"
	"github.com/anonticket/anonticket/internal/idents"
	lf "github.com/anonticket/anonticket/internal/logfield"
	"github.com/anonticket/anonticket/internal/models"
)

const generateAttempts = 32

type lobbyService struct {
	webService
}

func setupLobbyService(server *server, r *gin.Engine) {
	s := lobbyService{webService{
		server: server,
		config: server.config,
		log:    server.logger.Named("lobby"),
	}}

	r.GET("/", s.home)
	r.GET("/user/create-identifier", s.createIdentifier)
	r.GET("/user/login", s.loginPage)
	r.POST("/user/login", s.loginForm)
	r.GET("/user/login-error", s.loginError)

	user := r.Group("/user/:identifier", server.validateIdentifier)
	user.GET("", s.landing)
	user.GET("/projects", s.projectList)
	user.GET("/projects/:slug", s.projectDetail)
	user.GET("/projects/:slug/issues/:iid", s.issueDetail)
	user.POST("/projects/:slug/issues/:iid/notes", s.createNoteForm)
	user.GET("/projects/:slug/pending/:id", s.pendingIssueDetail)
	user.GET("/issues/search", s.issueSearch)
	user.GET("/issues/create", s.createIssuePage)
	user.POST("/issues/create", s.createIssueForm)
	user.GET("/issues/created", s.issueCreated)
	user.GET("/account-request", s.accountRequestPage)
	user.POST("/account-request", s.accountRequestForm)
}

func (s lobbyService) identifier(c *gin.Context) string {
	return c.GetString(identifierParam)
}

func (s lobbyService) home(c *gin.Context) {
	s.server.render(c, http.StatusOK, "/index.tmpl", nil)
}

// identifierClaimer is the slice of the database the generation flow needs.
type identifierClaimer interface {
	ClaimIdentifier(identifier string) error
}

// generateClaimedIdentifier draws phrases until one is reserved. Losing the
// unique-index race to a concurrent request just means drawing again; any
// other store error aborts.
func generateClaimedIdentifier(service *idents.Service, store identifierClaimer) (string, error) {
	for attempt := 0; attempt < generateAttempts; attempt++ {
		identifier, err := service.Generate()
		if err != nil {
			return "", err
		}

		err = store.ClaimIdentifier(identifier)
		if err == nil {
			return identifier, nil
		}
		if !database.IsDuplicateKey(err) {
			return "", err
		}
	}
	return "", errors.New("Exhausted identifier generation attempts")
}

// createIdentifier shows a freshly generated phrase. The phrase is reserved
// in the database before it is shown, so no one else can be handed the same
// words.
func (s lobbyService) createIdentifier(c *gin.Context) {
	identifier, err := generateClaimedIdentifier(s.server.idents, s.server.db)
	if err != nil {
		s.log.Error("Failed to generate identifier", zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Could not generate an identifier, try again.")
		return
	}

	s.server.render(c, http.StatusOK, "/create_identifier.tmpl", gin.H{
		"Identifier": identifier,
	})
}

func (s lobbyService) loginPage(c *gin.Context) {
	s.server.render(c, http.StatusOK, "/user_login.tmpl", gin.H{
		"WordFields": wordFieldNames(),
	})
}

// loginForm joins the six word inputs into the canonical form and bounces the
// visitor either to their landing page or to the login error page.
func (s lobbyService) loginForm(c *gin.Context) {
	words := make([]string, 0, len(wordFieldNames()))
	for _, field := range wordFieldNames() {
		words = append(words, strings.TrimSpace(strings.ToLower(c.PostForm(field))))
	}
	identifier := idents.Join(words)

	if !s.server.idents.Validate(identifier).Valid() {
		c.Redirect(http.StatusFound, "/user/login-error?identifier="+url.QueryEscape(identifier))
		return
	}
	c.Redirect(http.StatusFound, "/user/"+identifier)
}

func (s lobbyService) loginError(c *gin.Context) {
	identifier := c.Query("identifier")
	outcome := s.server.idents.Validate(identifier)

	s.server.render(c, http.StatusOK, "/user_login_error.tmpl", gin.H{
		"Identifier": identifier,
		"Reason":     outcomeMessage(outcome),
	})
}

func (s lobbyService) landing(c *gin.Context) {
	identifier := s.identifier(c)

	known, err := s.server.idents.IsKnown(identifier)
	if err != nil {
		s.log.Error("Failed to check identifier", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	issues, err := s.server.db.ListUserIssues(identifier)
	if err != nil {
		s.log.Error("Failed to list user issues", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}
	notes, err := s.server.db.ListUserNotes(identifier)
	if err != nil {
		s.log.Error("Failed to list user notes", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}
	requests, err := s.server.db.ListUserAccountRequests(identifier)
	if err != nil {
		s.log.Error("Failed to list account requests", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	projectNames, err := s.projectNames()
	if err != nil {
		s.log.Error("Failed to list projects", zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	s.server.render(c, http.StatusOK, "/user_landing.tmpl", gin.H{
		"Identifier":      identifier,
		"Known":           known,
		"Issues":          issues,
		"Notes":           notes,
		"AccountRequests": requests,
		"ProjectNames":    projectNames,
	})
}

func (s lobbyService) projectNames() (map[uint]string, error) {
	projects, err := s.server.db.ListProjects()
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(projects))
	for _, project := range projects {
		names[project.ID] = project.Name
	}
	return names, nil
}

func (s lobbyService) projectList(c *gin.Context) {
	projects, err := s.server.db.ListProjects()
	if err != nil {
		s.log.Error("Failed to list projects", zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	s.server.render(c, http.StatusOK, "/project_list.tmpl", gin.H{
		"Identifier": s.identifier(c),
		"Projects":   projects,
	})
}

func (s lobbyService) projectDetail(c *gin.Context) {
	identifier := s.identifier(c)
	slug := c.Param("slug")

	project, err := s.server.db.FindProjectBySlug(slug)
	if err != nil {
		s.server.renderError(c, http.StatusNotFound, fmt.Sprintf("Unknown project %q.", slug))
		return
	}

	// Metadata refresh is best effort; the registry copy is good enough when
	// GitLab is unreachable.
	remote, err := s.server.gitlab.CachedProject(project.GitlabID)
	if err != nil {
		s.log.Warn("Failed to fetch project metadata", lf.ProjectSlug(slug), zap.Error(err))
	}

	pending := make([]models.Issue, 0)
	userIssues, err := s.server.db.ListUserIssues(identifier)
	if err == nil {
		for _, issue := range userIssues {
			if issue.ProjectID == project.ID && issue.ReviewStatus != models.ReviewStatusRejected && issue.GitlabIID == nil {
				pending = append(pending, issue)
			}
		}
	}

	s.server.render(c, http.StatusOK, "/project_detail.tmpl", gin.H{
		"Identifier":    identifier,
		"Project":       project,
		"Remote":        remote,
		"PendingIssues": pending,
	})
}

// issueSearch runs the two-stage lookup. Every outcome renders the same page;
// the result's status and message decide what the page says.
func (s lobbyService) issueSearch(c *gin.Context) {
	identifier := s.identifier(c)
	slug := c.Query("project")
	terms := c.Query("terms")

	projects, err := s.server.db.ListProjects()
	if err != nil {
		s.log.Error("Failed to list projects", zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	data := gin.H{
		"Identifier": identifier,
		"Projects":   projects,
		"Project":    slug,
		"Terms":      terms,
	}

	if slug != "" && terms != "" {
		project, err := s.server.db.FindProjectBySlug(slug)
		if err != nil {
			data["SearchError"] = fmt.Sprintf("Unknown project %q.", slug)
		} else {
			result := s.server.lookup.Lookup(project, terms)
			data["Result"] = result
		}
	}

	s.server.render(c, http.StatusOK, "/issue_search.tmpl", data)
}

func (s lobbyService) createIssuePage(c *gin.Context) {
	projects, err := s.server.db.ListProjects()
	if err != nil {
		s.log.Error("Failed to list projects", zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	s.server.render(c, http.StatusOK, "/create_issue.tmpl", gin.H{
		"Identifier": s.identifier(c),
		"Projects":   projects,
	})
}

func (s lobbyService) createIssueForm(c *gin.Context) {
	identifier := s.identifier(c)
	slug := c.PostForm("project")
	title := strings.TrimSpace(c.PostForm("title"))
	description := strings.TrimSpace(c.PostForm("description"))

	renderInvalid := func(message string) {
		projects, _ := s.server.db.ListProjects()
		s.server.render(c, http.StatusBadRequest, "/create_issue.tmpl", gin.H{
			"Identifier":  identifier,
			"Projects":    projects,
			"Title":       title,
			"Description": description,
			"Project":     slug,
			"FormError":   message,
		})
	}

	if title == "" || description == "" {
		renderInvalid("Both a title and a description are required.")
		return
	}

	project, err := s.server.db.FindProjectBySlug(slug)
	if err != nil {
		renderInvalid(fmt.Sprintf("Unknown project %q.", slug))
		return
	}

	// First submission claims the phrase.
	if err := s.server.db.EnsureIdentifier(identifier); err != nil {
		s.log.Error("Failed to claim identifier", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	issue := &models.Issue{
		Identifier:  identifier,
		ProjectID:   project.ID,
		Title:       title,
		Description: description,
	}
	if err := s.server.db.CreateIssue(issue); err != nil {
		s.log.Error("Failed to create issue", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	s.log.Info("Accepted issue for review",
		lf.Identifier(identifier),
		lf.ProjectSlug(slug),
		lf.IssueID(issue.ID),
	)
	if s.server.bot != nil {
		s.server.bot.NotifySubmission("issue", title)
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/user/%s/issues/created", identifier))
}

func (s lobbyService) issueCreated(c *gin.Context) {
	s.server.render(c, http.StatusOK, "/issue_created.tmpl", gin.H{
		"Identifier": s.identifier(c),
	})
}

// issueDetail shows an issue that already lives on GitLab and offers the
// anonymous note form below it.
func (s lobbyService) issueDetail(c *gin.Context) {
	identifier := s.identifier(c)
	slug := c.Param("slug")

	project, err := s.server.db.FindProjectBySlug(slug)
	if err != nil {
		s.server.renderError(c, http.StatusNotFound, fmt.Sprintf("Unknown project %q.", slug))
		return
	}

	iid, err := strconv.Atoi(c.Param("iid"))
	if err != nil {
		s.server.renderError(c, http.StatusBadRequest, "Issue numbers are numeric.")
		return
	}

	issue, err := s.server.gitlab.FetchIssue(project.GitlabID, iid)
	if err != nil {
		s.log.Warn("Failed to fetch issue", lf.ProjectSlug(slug), lf.IssueIID(iid), zap.Error(err))
		s.server.renderError(c, http.StatusNotFound,
			"This issue could not be fetched from GitLab. It likely does not exist, or you don't have access to it.")
		return
	}

	notes, err := s.server.gitlab.ListIssueNotes(project.GitlabID, iid)
	if err != nil {
		s.log.Warn("Failed to fetch issue notes", lf.ProjectSlug(slug), lf.IssueIID(iid), zap.Error(err))
		notes = nil
	}

	pending := make([]models.Note, 0)
	userNotes, err := s.server.db.ListUserNotes(identifier)
	if err == nil {
		for _, note := range userNotes {
			if note.ProjectID == project.ID && note.IssueIID == iid && note.GitlabNoteID == nil {
				pending = append(pending, note)
			}
		}
	}

	s.server.render(c, http.StatusOK, "/issue_detail.tmpl", gin.H{
		"Identifier":   identifier,
		"Project":      project,
		"Issue":        issue,
		"Notes":        notes,
		"PendingNotes": pending,
	})
}

func (s lobbyService) createNoteForm(c *gin.Context) {
	identifier := s.identifier(c)
	slug := c.Param("slug")

	project, err := s.server.db.FindProjectBySlug(slug)
	if err != nil {
		s.server.renderError(c, http.StatusNotFound, fmt.Sprintf("Unknown project %q.", slug))
		return
	}

	iid, err := strconv.Atoi(c.Param("iid"))
	if err != nil {
		s.server.renderError(c, http.StatusBadRequest, "Issue numbers are numeric.")
		return
	}

	body := strings.TrimSpace(c.PostForm("body"))
	if body == "" {
		s.server.renderError(c, http.StatusBadRequest, "A note needs a body.")
		return
	}

	if err := s.server.db.EnsureIdentifier(identifier); err != nil {
		s.log.Error("Failed to claim identifier", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	note := &models.Note{
		Identifier: identifier,
		ProjectID:  project.ID,
		IssueIID:   iid,
		Body:       body,
	}
	if err := s.server.db.CreateNote(note); err != nil {
		s.log.Error("Failed to create note", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	s.log.Info("Accepted note for review",
		lf.Identifier(identifier),
		lf.ProjectSlug(slug),
		lf.IssueIID(iid),
		lf.NoteID(note.ID),
	)
	if s.server.bot != nil {
		s.server.bot.NotifySubmission("note", fmt.Sprintf("note on %s#%d", slug, iid))
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/user/%s/issues/created", identifier))
}

// pendingIssueDetail shows a submitted issue that has not reached GitLab yet.
// Only its author may see it.
func (s lobbyService) pendingIssueDetail(c *gin.Context) {
	identifier := s.identifier(c)
	slug := c.Param("slug")

	project, err := s.server.db.FindProjectBySlug(slug)
	if err != nil {
		s.server.renderError(c, http.StatusNotFound, fmt.Sprintf("Unknown project %q.", slug))
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		s.server.renderError(c, http.StatusBadRequest, "Unknown issue.")
		return
	}

	issue, err := s.server.db.FindIssue(uint(id))
	if err != nil || issue.Identifier != identifier || issue.ProjectID != project.ID {
		s.server.renderError(c, http.StatusNotFound, "Unknown issue.")
		return
	}

	s.server.render(c, http.StatusOK, "/issue_pending.tmpl", gin.H{
		"Identifier": identifier,
		"Project":    project,
		"Issue":      issue,
	})
}

func (s lobbyService) accountRequestPage(c *gin.Context) {
	identifier := s.identifier(c)

	hasPending, err := s.server.db.HasPendingAccountRequest(identifier)
	if err != nil {
		s.log.Error("Failed to check account requests", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	s.server.render(c, http.StatusOK, "/account_request.tmpl", gin.H{
		"Identifier": identifier,
		"HasPending": hasPending,
	})
}

func (s lobbyService) accountRequestForm(c *gin.Context) {
	identifier := s.identifier(c)
	username := strings.TrimSpace(c.PostForm("username"))
	reason := strings.TrimSpace(c.PostForm("reason"))

	renderInvalid := func(message string) {
		s.server.render(c, http.StatusBadRequest, "/account_request.tmpl", gin.H{
			"Identifier": identifier,
			"Username":   username,
			"Reason":     reason,
			"FormError":  message,
		})
	}

	if username == "" || reason == "" {
		renderInvalid("Both a username and a reason are required.")
		return
	}

	hasPending, err := s.server.db.HasPendingAccountRequest(identifier)
	if err != nil {
		s.log.Error("Failed to check account requests", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}
	if hasPending {
		renderInvalid("You already have a pending account request.")
		return
	}

	if err := s.server.db.EnsureIdentifier(identifier); err != nil {
		s.log.Error("Failed to claim identifier", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	request := &models.AccountRequest{
		Identifier: identifier,
		Username:   username,
		Reason:     reason,
	}
	if err := s.server.db.CreateAccountRequest(request); err != nil {
		s.log.Error("Failed to create account request", lf.Identifier(identifier), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	s.log.Info("Accepted account request for review", lf.Identifier(identifier), zap.String("username", username))
	if s.server.bot != nil {
		s.server.bot.NotifySubmission("account request", username)
	}

	c.Redirect(http.StatusFound, "/user/"+identifier)
}

func wordFieldNames() []string {
	return []string{"word_1", "word_2", "word_3", "word_4", "word_5", "word_6"}
}
