package models

import (
	"time"

	"gorm.io/gorm"
)

type Issue struct {
	gorm.Model

	Identifier string `gorm:"index"`
	ProjectID  uint   `gorm:"index"`

	Title       string
	Description string

	ReviewStatus ReviewStatus `gorm:"index"`
	ReviewNote   string

	// Set once the poster has created the issue on GitLab.
	GitlabIID *int
	PostedAt  *time.Time
}
