package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/docker/go-units"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/anonticket/anonticket/internal/config"
	"github.com/anonticket/anonticket/internal/database"
	"github.com/anonticket/anonticket/internal/gitlab"
	"github.com/anonticket/anonticket/internal/idents"
	"github.com/anonticket/anonticket/internal/tgbot"
	"github.com/anonticket/anonticket/web"
)

type server struct {
	config *config.Config
	logger *zap.Logger

	auth   *AuthClient
	db     *database.DataBase
	idents *idents.Service
	gitlab *gitlab.Client
	lookup *gitlab.Lookup
	poster *gitlab.Poster
	bot    *tgbot.Bot // nil unless telegram is configured
}

func newServer(
	config *config.Config,
	logger *zap.Logger,
	db *database.DataBase,
	idents *idents.Service,
	gitlab *gitlab.Client,
	lookup *gitlab.Lookup,
	poster *gitlab.Poster,
	bot *tgbot.Bot,
) (*server, error) {
	return &server{
		config: config,
		logger: logger,
		auth:   NewAuthClient(config),
		db:     db,
		idents: idents,
		gitlab: gitlab,
		lookup: lookup,
		poster: poster,
		bot:    bot,
	}, nil
}

func buildHTMLTemplates(funcMap template.FuncMap) (*template.Template, error) {
	tmpl := template.New("").Funcs(funcMap)
	err := fs.WalkDir(web.StaticTemplates, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			bytes, err := web.StaticTemplates.ReadFile(path)
			if err != nil {
				return err
			}

			template.Must(tmpl.New("/" + path).Parse(string(bytes)))
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to collect html templates")
	}

	return tmpl, nil
}

func (s *server) run() error {
	funcs := template.FuncMap{
		"inc": func(i int) int {
			return i + 1
		},
		"words": idents.Words,
	}
	tmpl, err := buildHTMLTemplates(funcs)
	if err != nil {
		return errors.Wrap(err, "Failed to build html templates")
	}

	maxBodySize, err := units.RAMInBytes(s.config.Server.MaxBodySize)
	if err != nil {
		return errors.Wrap(err, "Failed to parse max body size")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))

	r.SetHTMLTemplate(tmpl)
	r.MaxMultipartMemory = maxBodySize

	if err := setupAuth(s, r); err != nil {
		return err
	}
	setupLobbyService(s, r)
	setupModeratorService(s, r)
	setupApiService(s, r)

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong "+fmt.Sprint(time.Now().Unix()))
	})

	r.StaticFS("/static", http.FS(web.StaticContent))

	s.logger.Info("Starting server", zap.String("bind_address", s.config.Server.ListenAddress))
	return r.Run(s.config.Server.ListenAddress)
}
