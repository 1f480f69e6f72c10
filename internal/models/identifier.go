package models

import (
	"gorm.io/gorm"
)

// UserIdentifier is a claimed six-word phrase. There is no account behind it:
// the phrase itself is the only key issues, notes and account requests hang off.
type UserIdentifier struct {
	gorm.Model

	Identifier string `gorm:"uniqueIndex"`
}
