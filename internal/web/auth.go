package web

import (
	"encoding/hex"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	lf "github.com/anonticket/anonticket/internal/logfield"
)

const sessionModeratorKey = "moderator_login"
const sessionOAuthStateKey = "oauth_state"

func setupAuth(s *server, r *gin.Engine) error {
	authKey, err := hex.DecodeString(s.config.Server.Cookies.AuthenticationKey)
	if err != nil {
		return errors.Wrap(err, "Failed to decode cookie authentication key")
	}
	encryptKey, err := hex.DecodeString(s.config.Server.Cookies.EncryptionKey)
	if err != nil {
		return errors.Wrap(err, "Failed to decode cookie encryption key")
	}

	store := cookie.NewStore(authKey, encryptKey)
	r.Use(sessions.Sessions("anonticket_session", store))
	return nil
}

func (s *server) isModerator(login string) bool {
	return slices.Contains(s.config.Moderation.Moderators, login)
}

func (s *server) isAccountApprover(login string) bool {
	return slices.Contains(s.config.Moderation.AccountApprovers, login)
}

// validateModerator guards the moderation portal. Unknown visitors are sent
// to the oauth login page, authenticated users without a role get a 403.
func (s *server) validateModerator(c *gin.Context) {
	session := sessions.Default(c)
	login, ok := session.Get(sessionModeratorKey).(string)
	if !ok || login == "" {
		c.Redirect(http.StatusFound, s.config.Endpoints.Login)
		c.Abort()
		return
	}

	if !s.isModerator(login) && !s.isAccountApprover(login) {
		s.logger.Warn("Rejected moderation request", zap.String("login", login))
		s.renderError(c, http.StatusForbidden, "You are not allowed to moderate submissions.")
		c.Abort()
		return
	}

	c.Set(sessionModeratorKey, login)
	c.Next()
}

const identifierParam = "identifier"

// validateIdentifier rejects malformed identifiers before any lobby handler
// runs, so handlers can trust the path parameter.
func (s *server) validateIdentifier(c *gin.Context) {
	identifier := c.Param(identifierParam)
	outcome := s.idents.Validate(identifier)
	if !outcome.Valid() {
		s.logger.Info("Rejected identifier",
			lf.Identifier(identifier),
			zap.String("reason", outcomeMessage(outcome)),
		)
		c.Redirect(http.StatusFound, "/user/login-error?identifier="+url.QueryEscape(identifier))
		c.Abort()
		return
	}

	c.Set(identifierParam, identifier)
	c.Next()
}
