// Package projects syncs the locally registered GitLab projects from a yaml
// registry. Only registered projects can be searched or submitted to through
// the lobby; everything else on the GitLab instance stays out of reach.
package projects

import (
	"context"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alexsergivan/transliterator"
	"github.com/pkg/errors"
	"github.com/xanzy/go-gitlab"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/anonticket/anonticket/internal/config"
	"github.com/anonticket/anonticket/internal/database"
	lf "github.com/anonticket/anonticket/internal/logfield"
	"github.com/anonticket/anonticket/internal/models"
)

type RegistryEntry struct {
	ID int `yaml:"id"`
	// Slug overrides the one derived from the GitLab project name.
	Slug string `yaml:"slug,omitempty"`
}

type Registry []RegistryEntry

func parseRegistry(body []byte) (Registry, error) {
	registry := Registry{}
	err := yaml.Unmarshal(body, &registry)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal projects registry")
	}
	return registry, nil
}

func loadRegistry(location string) (Registry, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		resp, err := http.Get(location)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to fetch projects registry")
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("Failed to fetch projects registry: %s", resp.Status)
		}
		body, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to read registry response")
		}
		return parseRegistry(body)
	}

	body, err := os.ReadFile(location)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read projects registry")
	}
	return parseRegistry(body)
}

// ProjectFetcher is the slice of the GitLab client the sync needs.
type ProjectFetcher interface {
	FetchProject(id int) (*gitlab.Project, error)
}

type Fetcher struct {
	config   *config.Config
	logger   *zap.Logger
	db       *database.DataBase
	api      ProjectFetcher
	translit *transliterator.Transliterator
}

func NewFetcher(conf *config.Config, logger *zap.Logger, db *database.DataBase, api ProjectFetcher) (*Fetcher, error) {
	fetcher := &Fetcher{
		config:   conf,
		logger:   logger,
		db:       db,
		api:      api,
		translit: transliterator.NewTransliterator(nil),
	}

	if err := fetcher.reload(); err != nil {
		return nil, err
	}

	return fetcher, nil
}

func (f *Fetcher) Run(ctx context.Context) {
	if f.config.PullIntervals.Projects == nil {
		return
	}

	tick := time.Tick(*f.config.PullIntervals.Projects)
	for {
		select {
		case <-ctx.Done():
			f.logger.Info("Stopping projects fetcher")
			return
		case <-tick:
			if err := f.reload(); err != nil {
				f.logger.Error("Failed to reload projects registry", zap.Error(err))
			}
		}
	}
}

func (f *Fetcher) reload() error {
	f.logger.Debug("Start projects fetcher iteration")
	defer f.logger.Debug("Finish projects fetcher iteration")

	registry, err := loadRegistry(f.config.Projects.Registry)
	if err != nil {
		return err
	}

	for _, entry := range registry {
		log := f.logger.With(lf.GitlabProject(entry.ID))

		remote, err := f.api.FetchProject(entry.ID)
		if err != nil {
			// A single unreachable project must not block the rest of the sync.
			log.Error("Failed to fetch registered project", zap.Error(err))
			continue
		}

		slug := entry.Slug
		if slug == "" {
			slug = f.MakeSlug(remote.Name)
		}

		err = f.db.UpsertProject(&models.Project{
			GitlabID:    entry.ID,
			Slug:        slug,
			Name:        remote.Name,
			Description: remote.Description,
			WebURL:      remote.WebURL,
		})
		if err != nil {
			log.Error("Failed to upsert project", zap.Error(err), lf.ProjectSlug(slug))
			continue
		}
		log.Debug("Synced project", lf.ProjectSlug(slug))
	}

	return nil
}

// MakeSlug derives a URL-safe slug from a project name. Non-latin names are
// transliterated first so slugs stay ASCII.
func (f *Fetcher) MakeSlug(name string) string {
	name = f.translit.Transliterate(name, "en")
	name = strings.ToLower(name)

	var b strings.Builder
	lastDash := true // trims leading dashes
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
