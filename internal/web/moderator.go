package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anonticket/anonticket/internal/gitlab"
	lf "github.com/anonticket/anonticket/internal/logfield"
	"github.com/anonticket/anonticket/internal/models"
)

const oauthExchangeTimeout = 10 * time.Second

type moderatorService struct {
	webService
}

func setupModeratorService(server *server, r *gin.Engine) {
	s := moderatorService{webService{
		server: server,
		config: server.config,
		log:    server.logger.Named("moderator"),
	}}

	r.GET(s.config.Endpoints.Login, s.login)
	r.GET(s.config.Endpoints.OauthCallback, s.oauth)
	r.GET(s.config.Endpoints.Logout, s.logout)

	mod := r.Group("/moderator", server.validateModerator)
	mod.GET("", s.queue)
	mod.POST("/issues/:id/review", s.reviewIssue)
	mod.POST("/notes/:id/review", s.reviewNote)
	mod.POST("/account-requests/:id/review", s.reviewAccountRequest)
}

func (s moderatorService) login(c *gin.Context) {
	state := uuid.New().String()

	session := sessions.Default(c)
	session.Set(sessionOAuthStateKey, state)
	if err := session.Save(); err != nil {
		s.log.Error("Failed to save session", zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Failed to start the login flow, try again.")
		return
	}

	c.Redirect(http.StatusFound, s.server.auth.LoginURL(state))
}

func (s moderatorService) oauth(c *gin.Context) {
	session := sessions.Default(c)
	state, ok := session.Get(sessionOAuthStateKey).(string)
	if !ok || state == "" || state != c.Query("state") {
		s.log.Warn("Rejected oauth callback with mismatched state")
		s.server.renderError(c, http.StatusForbidden, "Login flow state mismatch, start over.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), oauthExchangeTimeout)
	defer cancel()

	token, err := s.server.auth.Exchange(ctx, c.Query("code"))
	if err != nil {
		s.log.Error("Failed to exchange oauth code", zap.Error(err))
		s.server.renderError(c, http.StatusBadGateway, "GitLab login failed, try again.")
		return
	}

	user, err := gitlab.GetOAuthUser(s.config.GitLab.BaseURL, token.AccessToken)
	if err != nil {
		s.log.Error("Failed to fetch oauth user", zap.Error(err))
		s.server.renderError(c, http.StatusBadGateway, "GitLab login failed, try again.")
		return
	}

	if !s.server.isModerator(user.Username) && !s.server.isAccountApprover(user.Username) {
		s.log.Warn("Rejected login without a moderation role", zap.String("login", user.Username))
		s.server.renderError(c, http.StatusForbidden, "You are not allowed to moderate submissions.")
		return
	}

	session.Delete(sessionOAuthStateKey)
	session.Set(sessionModeratorKey, user.Username)
	if err := session.Save(); err != nil {
		s.log.Error("Failed to save session", zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Failed to finish the login flow, try again.")
		return
	}

	s.log.Info("Moderator logged in", zap.String("login", user.Username))
	c.Redirect(http.StatusFound, "/moderator")
}

func (s moderatorService) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		s.log.Error("Failed to save session", zap.Error(err))
	}
	c.Redirect(http.StatusFound, s.config.Endpoints.Home)
}

// queue renders the moderation portal. Moderators see pending issues and
// notes; account approvers see pending account requests. Both roles on one
// login see everything.
func (s moderatorService) queue(c *gin.Context) {
	login := c.GetString(sessionModeratorKey)

	data := gin.H{
		"Login":       login,
		"IsModerator": s.server.isModerator(login),
		"IsApprover":  s.server.isAccountApprover(login),
	}

	projectNames := make(map[uint]string)
	projects, err := s.server.db.ListProjects()
	if err == nil {
		for _, project := range projects {
			projectNames[project.ID] = project.Name
		}
	}
	data["ProjectNames"] = projectNames

	if s.server.isModerator(login) {
		issues, err := s.server.db.ListPendingIssues()
		if err != nil {
			s.log.Error("Failed to list pending issues", zap.Error(err))
			s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
			return
		}
		notes, err := s.server.db.ListPendingNotes()
		if err != nil {
			s.log.Error("Failed to list pending notes", zap.Error(err))
			s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
			return
		}
		data["Issues"] = issues
		data["Notes"] = notes
	}

	if s.server.isAccountApprover(login) {
		requests, err := s.server.db.ListPendingAccountRequests()
		if err != nil {
			s.log.Error("Failed to list pending account requests", zap.Error(err))
			s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
			return
		}
		data["AccountRequests"] = requests
	}

	s.server.render(c, http.StatusOK, "/moderator.tmpl", data)
}

func parseVerdict(c *gin.Context) (models.ReviewStatus, bool) {
	switch c.PostForm("verdict") {
	case "approve":
		return models.ReviewStatusApproved, true
	case "reject":
		return models.ReviewStatusRejected, true
	}
	return "", false
}

func parseRecordID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (s moderatorService) reviewIssue(c *gin.Context) {
	login := c.GetString(sessionModeratorKey)
	if !s.server.isModerator(login) {
		s.server.renderError(c, http.StatusForbidden, "Issue review needs the moderator role.")
		return
	}

	id, ok := parseRecordID(c)
	if !ok {
		s.server.renderError(c, http.StatusBadRequest, "Unknown issue.")
		return
	}
	verdict, ok := parseVerdict(c)
	if !ok {
		s.server.renderError(c, http.StatusBadRequest, "A review is either an approval or a rejection.")
		return
	}

	if err := s.server.db.SetIssueReview(id, verdict, c.PostForm("note")); err != nil {
		s.log.Error("Failed to review issue", lf.IssueID(id), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	s.log.Info("Reviewed issue", zap.String("login", login), lf.IssueID(id), lf.ReviewStatus(verdict))
	c.Redirect(http.StatusFound, "/moderator")
}

func (s moderatorService) reviewNote(c *gin.Context) {
	login := c.GetString(sessionModeratorKey)
	if !s.server.isModerator(login) {
		s.server.renderError(c, http.StatusForbidden, "Note review needs the moderator role.")
		return
	}

	id, ok := parseRecordID(c)
	if !ok {
		s.server.renderError(c, http.StatusBadRequest, "Unknown note.")
		return
	}
	verdict, ok := parseVerdict(c)
	if !ok {
		s.server.renderError(c, http.StatusBadRequest, "A review is either an approval or a rejection.")
		return
	}

	if err := s.server.db.SetNoteReview(id, verdict, c.PostForm("note")); err != nil {
		s.log.Error("Failed to review note", lf.NoteID(id), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	s.log.Info("Reviewed note", zap.String("login", login), lf.NoteID(id), lf.ReviewStatus(verdict))
	c.Redirect(http.StatusFound, "/moderator")
}

func (s moderatorService) reviewAccountRequest(c *gin.Context) {
	login := c.GetString(sessionModeratorKey)
	if !s.server.isAccountApprover(login) {
		s.server.renderError(c, http.StatusForbidden, "Account request review needs the account approver role.")
		return
	}

	id, ok := parseRecordID(c)
	if !ok {
		s.server.renderError(c, http.StatusBadRequest, "Unknown account request.")
		return
	}
	verdict, ok := parseVerdict(c)
	if !ok {
		s.server.renderError(c, http.StatusBadRequest, "A review is either an approval or a rejection.")
		return
	}

	if err := s.server.db.SetAccountRequestReview(id, verdict, c.PostForm("note")); err != nil {
		s.log.Error("Failed to review account request", zap.Uint("request_id", id), zap.Error(err))
		s.server.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	s.log.Info("Reviewed account request", zap.String("login", login), zap.Uint("request_id", id), lf.ReviewStatus(verdict))
	c.Redirect(http.StatusFound, "/moderator")
}
