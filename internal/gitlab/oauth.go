package gitlab

import (
	"github.com/pkg/errors"
	"github.com/xanzy/go-gitlab"
)

// GetOAuthUser resolves the GitLab account behind an OAuth access token.
// Used by the moderator login flow.
func GetOAuthUser(baseURL, accessToken string) (*gitlab.User, error) {
	client, err := gitlab.NewOAuthClient(accessToken, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create oauth gitlab client")
	}
	user, _, err := client.Users.CurrentUser()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to fetch current user")
	}
	return user, nil
}
