package web

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/anonticket/anonticket/internal/config"
)

// AuthClient drives the GitLab OAuth flow for the moderator portal. Anonymous
// submitters never log in; only moderators have GitLab accounts to log in with.
type AuthClient struct {
	conf *oauth2.Config
}

func NewAuthClient(config *config.Config) *AuthClient {
	return &AuthClient{
		conf: &oauth2.Config{
			ClientID:     config.GitLab.Application.ClientID,
			ClientSecret: config.GitLab.Application.Secret,
			Scopes:       []string{"read_user"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  fmt.Sprintf("%s/oauth/authorize", config.GitLab.BaseURL),
				TokenURL: fmt.Sprintf("%s/oauth/token", config.GitLab.BaseURL),
			},
			RedirectURL: config.Endpoints.HostName + config.Endpoints.OauthCallback,
		},
	}
}

func (c *AuthClient) LoginURL(state string) string {
	return c.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (c *AuthClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.conf.Exchange(ctx, code)
}
