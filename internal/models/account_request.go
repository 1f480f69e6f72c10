package models

import (
	"gorm.io/gorm"
)

// AccountRequest asks the account approvers to create a real GitLab account.
// At most one pending request per identifier is accepted.
type AccountRequest struct {
	gorm.Model

	Identifier string `gorm:"index"`
	Username   string
	Reason     string

	ReviewStatus ReviewStatus `gorm:"index"`
	ReviewNote   string
}
