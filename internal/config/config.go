package config

import (
	"time"

	"github.com/anonticket/anonticket/pkg/conf"
	"github.com/pkg/errors"
)

type Config struct {
	GitLab struct {
		BaseURL string

		Application struct {
			ClientID string
			Secret   string
		}
		Api struct {
			Token string
		}
	}

	Endpoints struct {
		HostName      string
		Home          string
		Login         string
		Logout        string
		OauthCallback string
	}

	Server struct {
		ListenAddress string
		MaxBodySize   string
		Cookies       struct {
			AuthenticationKey string
			EncryptionKey     string
		}
	}

	DataBase struct {
		Host string
		Port uint16
		User string
		Pass string
		Name string
	}

	WordList struct {
		Path string
	}

	Projects struct {
		Registry string
	}

	PullIntervals struct {
		Projects *time.Duration
		Poster   time.Duration
	}

	Moderation struct {
		Moderators       []string
		AccountApprovers []string
		Tokens           []string
	}

	Telegram struct {
		BotToken string
		ChatID   int64
	}

	Log struct {
		Path string
	}
}

func ParseConfig() (*Config, error) {
	config := &Config{}
	err := conf.ParseConfig(config,
		conf.EnvPrefix("ATL"),
		conf.Defaults(map[string]interface{}{
			"Server.ListenAddress":    ":18080",
			"Server.MaxBodySize":      "1MiB",
			"PullIntervals.Poster":    time.Minute,
			"Endpoints.Home":          "/",
			"Endpoints.Login":         "/moderator/login",
			"Endpoints.Logout":        "/moderator/logout",
			"Endpoints.OauthCallback": "/moderator/oauth",
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to parse config")
	}
	return config, nil
}
