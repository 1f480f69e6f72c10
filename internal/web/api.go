package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/anonticket/anonticket/api"
	lf "github.com/anonticket/anonticket/internal/logfield"
	"github.com/anonticket/anonticket/internal/models"
)

type apiService struct {
	webService
}

func setupApiService(server *server, r *gin.Engine) {
	s := apiService{webService{
		server: server,
		config: server.config,
		log:    server.logger.Named("api"),
	}}

	g := r.Group("/api", s.auth)
	g.GET("/pending", s.pending)
	g.POST("/review", s.review)
	g.GET("/health", s.health)
}

func (s apiService) auth(c *gin.Context) {
	token := c.GetHeader("Token")
	if token == "" || !slices.Contains(s.config.Moderation.Tokens, token) {
		s.log.Warn("Rejected api request", lf.Token(token))
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.Status{Error: "Invalid token"})
		return
	}
	c.Next()
}

func (s apiService) fail(c *gin.Context, code int, message string) {
	c.JSON(code, api.Status{Error: message})
}

func (s apiService) pending(c *gin.Context) {
	issues, err := s.server.db.ListPendingIssues()
	if err != nil {
		s.log.Error("Failed to list pending issues", zap.Error(err))
		s.fail(c, http.StatusInternalServerError, "Internal error")
		return
	}
	notes, err := s.server.db.ListPendingNotes()
	if err != nil {
		s.log.Error("Failed to list pending notes", zap.Error(err))
		s.fail(c, http.StatusInternalServerError, "Internal error")
		return
	}
	requests, err := s.server.db.ListPendingAccountRequests()
	if err != nil {
		s.log.Error("Failed to list pending account requests", zap.Error(err))
		s.fail(c, http.StatusInternalServerError, "Internal error")
		return
	}

	projectNames := make(map[uint]string)
	projects, err := s.server.db.ListProjects()
	if err == nil {
		for _, project := range projects {
			projectNames[project.ID] = project.Slug
		}
	}

	response := api.PendingResponse{Status: api.Status{Ok: true}}
	for _, issue := range issues {
		response.Issues = append(response.Issues, api.PendingIssue{
			ID:          issue.ID,
			Identifier:  issue.Identifier,
			Project:     projectNames[issue.ProjectID],
			Title:       issue.Title,
			Description: issue.Description,
			CreatedAt:   issue.CreatedAt,
		})
	}
	for _, note := range notes {
		response.Notes = append(response.Notes, api.PendingNote{
			ID:         note.ID,
			Identifier: note.Identifier,
			Project:    projectNames[note.ProjectID],
			IssueIID:   note.IssueIID,
			Body:       note.Body,
			CreatedAt:  note.CreatedAt,
		})
	}
	for _, request := range requests {
		response.AccountRequests = append(response.AccountRequests, api.PendingAccountRequest{
			ID:         request.ID,
			Identifier: request.Identifier,
			Username:   request.Username,
			Reason:     request.Reason,
			CreatedAt:  request.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}

func (s apiService) review(c *gin.Context) {
	var request api.ReviewRequest
	if err := c.Bind(&request); err != nil {
		s.fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	var status models.ReviewStatus
	switch request.Verdict {
	case api.VerdictApproved:
		status = models.ReviewStatusApproved
	case api.VerdictRejected:
		status = models.ReviewStatusRejected
	default:
		s.fail(c, http.StatusBadRequest, "Unknown verdict "+request.Verdict)
		return
	}

	var err error
	switch request.Kind {
	case api.KindIssue:
		err = s.server.db.SetIssueReview(request.ID, status, request.Note)
	case api.KindNote:
		err = s.server.db.SetNoteReview(request.ID, status, request.Note)
	case api.KindAccountRequest:
		err = s.server.db.SetAccountRequestReview(request.ID, status, request.Note)
	default:
		s.fail(c, http.StatusBadRequest, "Unknown kind "+request.Kind)
		return
	}
	if err != nil {
		s.log.Error("Failed to apply review",
			zap.String("kind", request.Kind),
			zap.Uint("id", request.ID),
			lf.ReviewStatus(status),
			zap.Error(err),
		)
		s.fail(c, http.StatusInternalServerError, "Internal error")
		return
	}

	s.log.Info("Applied review",
		zap.String("kind", request.Kind),
		zap.Uint("id", request.ID),
		lf.ReviewStatus(status),
	)
	c.JSON(http.StatusOK, api.ReviewResponse{Status: api.Status{Ok: true}})
}

func (s apiService) health(c *gin.Context) {
	posted, failed := s.server.poster.Stats()
	counts, err := s.server.db.CountPending()
	if err != nil {
		s.log.Error("Failed to count pending records", zap.Error(err))
		s.fail(c, http.StatusInternalServerError, "Internal error")
		return
	}

	c.JSON(http.StatusOK, api.HealthResponse{
		Status:            api.Status{Ok: true},
		PostedSubmissions: posted,
		FailedSubmissions: failed,
		PendingIssues:     counts.Issues,
		PendingNotes:      counts.Notes,
		PendingRequests:   counts.AccountRequests,
	})
}
