package models

import (
	"fmt"

	"gorm.io/gorm"
)

// InviteCodePrefix marks every invite code handed out by the directory.
const InviteCodePrefix = "LG"

// InviteCodeFor derives the invite code for a user id. It is a pure function of
// the id; codes are resolved back through the users table, never decoded.
func InviteCodeFor(id uint) string {
	return fmt.Sprintf("%s%06d", InviteCodePrefix, id)
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user in the system.
type User struct {
	gorm.Model
	Username     string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:50;not null;default:'user';index"`

	// Null until AfterCreate has an id to derive it from.
	InviteCode *string `gorm:"size:32;uniqueIndex"`
}

// AfterCreate stores the derived invite code once the id is known.
func (u *User) AfterCreate(tx *gorm.DB) error {
	code := InviteCodeFor(u.ID)
	u.InviteCode = &code
	return tx.Model(u).Update("invite_code", code).Error
}

// Code returns the stored invite code, falling back to the derived one.
func (u User) Code() string {
	if u.InviteCode != nil && *u.InviteCode != "" {
		return *u.InviteCode
	}
	return InviteCodeFor(u.ID)
}
