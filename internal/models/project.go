package models

import (
	"gorm.io/gorm"
)

// Project is a locally registered GitLab project. Rows are synced from the
// projects registry; GitlabID is the external project id, Slug is derived from
// the project name and used in URLs.
type Project struct {
	gorm.Model

	GitlabID    int    `gorm:"uniqueIndex"`
	Slug        string `gorm:"uniqueIndex"`
	Name        string
	Description string
	WebURL      string
}
