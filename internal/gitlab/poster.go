package gitlab

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/xanzy/go-gitlab"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/anonticket/anonticket/internal/database"
	lf "github.com/anonticket/anonticket/internal/logfield"
	"github.com/anonticket/anonticket/internal/models"
)

// Poster pushes approved issues and notes to GitLab in the background.
// Submitters never talk to GitLab directly; everything they create sits in the
// database until a moderator approves it and this worker posts it.
type Poster struct {
	*Client

	logger *zap.Logger
	db     *database.DataBase

	posted atomic.Int64
	failed atomic.Int64
}

func NewPoster(client *Client, db *database.DataBase) (*Poster, error) {
	return &Poster{
		Client: client,
		logger: client.logger.Named("poster"),
		db:     db,
	}, nil
}

func (p *Poster) Run(ctx context.Context) {
	tick := time.Tick(p.config.PullIntervals.Poster)

	for {
		select {
		case <-tick:
			p.postApproved()
		case <-ctx.Done():
			p.logger.Info("Stopping submission poster")
			return
		}
	}
}

// Stats reports how many records this process has posted and failed to post.
func (p *Poster) Stats() (posted, failed int64) {
	return p.posted.Load(), p.failed.Load()
}

func (p *Poster) postApproved() {
	p.logger.Debug("Start poster iteration")
	defer p.logger.Debug("Finish poster iteration")

	issues, err := p.db.ListPostableIssues()
	if err != nil {
		p.logger.Error("Failed to list postable issues", zap.Error(err))
		return
	}
	for i := range issues {
		p.postIssue(&issues[i])
	}

	notes, err := p.db.ListPostableNotes()
	if err != nil {
		p.logger.Error("Failed to list postable notes", zap.Error(err))
		return
	}
	for i := range notes {
		p.postNote(&notes[i])
	}
}

func (p *Poster) retry(op backoff.Operation) error {
	return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3))
}

func (p *Poster) postIssue(issue *models.Issue) {
	log := p.logger.With(lf.IssueID(issue.ID), lf.Identifier(issue.Identifier))

	project, err := p.db.FindProjectByID(issue.ProjectID)
	if err != nil {
		log.Error("Failed to find linked project", zap.Error(err))
		p.failed.Inc()
		return
	}
	log = log.With(lf.ProjectSlug(project.Slug))

	var created *gitlab.Issue
	err = p.retry(func() error {
		res, err := p.CreateIssue(project.GitlabID, issue.Title, issue.Description)
		if err != nil {
			if IsNotFound(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		created = res
		return nil
	})
	if err != nil {
		p.failed.Inc()
		log.Error("Failed to post issue", zap.Error(err))
		if IsNotFound(err) {
			// The target project is gone or hidden; retrying cannot fix it.
			if err := p.db.SetIssueReview(issue.ID, models.ReviewStatusRejected, "target project is missing on GitLab"); err != nil {
				log.Error("Failed to reject unpostable issue", zap.Error(err))
			}
		}
		return
	}

	if err := p.db.MarkIssuePosted(issue.ID, created.IID); err != nil {
		log.Error("Failed to record posted issue", zap.Error(err))
		return
	}
	p.posted.Inc()
	log.Info("Posted issue", lf.IssueIID(created.IID))
}

func (p *Poster) postNote(note *models.Note) {
	log := p.logger.With(lf.NoteID(note.ID), lf.Identifier(note.Identifier), lf.IssueIID(note.IssueIID))

	project, err := p.db.FindProjectByID(note.ProjectID)
	if err != nil {
		log.Error("Failed to find linked project", zap.Error(err))
		p.failed.Inc()
		return
	}
	log = log.With(lf.ProjectSlug(project.Slug))

	var created *gitlab.Note
	err = p.retry(func() error {
		res, err := p.CreateIssueNote(project.GitlabID, note.IssueIID, note.Body)
		if err != nil {
			if IsNotFound(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		created = res
		return nil
	})
	if err != nil {
		p.failed.Inc()
		log.Error("Failed to post note", zap.Error(err))
		if IsNotFound(err) {
			if err := p.db.SetNoteReview(note.ID, models.ReviewStatusRejected, "target issue is missing on GitLab"); err != nil {
				log.Error("Failed to reject unpostable note", zap.Error(err))
			}
		}
		return
	}

	if err := p.db.MarkNotePosted(note.ID, created.ID); err != nil {
		log.Error("Failed to record posted note", zap.Error(err))
		return
	}
	p.posted.Inc()
	log.Info("Posted note")
}
