package models

import (
	"time"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
)

// User is a local account. Email is the login key.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsSuperuser  bool
	CreatedAt    time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return common.JoinFullName(u.FirstName, u.LastName)
}

// Profile is the one-to-one extension of User.
type Profile struct {
	UserID  int64
	Age     *int
	Country string
	Purpose string
}

// Session is a server-side login session referenced by the session token.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
