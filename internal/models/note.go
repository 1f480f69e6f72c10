package models

import (
	"time"

	"gorm.io/gorm"
)

// Note is a comment on an issue that already exists on GitLab, referenced by
// the issue IID within the linked project.
type Note struct {
	gorm.Model

	Identifier string `gorm:"index"`
	ProjectID  uint   `gorm:"index"`
	IssueIID   int

	Body string

	ReviewStatus ReviewStatus `gorm:"index"`
	ReviewNote   string

	GitlabNoteID *int
	PostedAt     *time.Time
}
