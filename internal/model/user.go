package model

import "time"

// User represents a registered portal account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsAdmin      bool      `json:"is_admin"`
	IsConfirmed  bool      `json:"is_confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}

// Roles.
const (
	RoleStudent = "student"
	RoleGuest   = "guest"
	RoleAdmin   = "admin"
)

// GuestUsername is the shared always-confirmed demo account. Guests can
// browse and interact but may not create listings of their own.
const GuestUsername = "temp"

// CanCreateItems reports whether the user may report or list items.
func (u *User) CanCreateItems() bool {
	return u.Role != RoleGuest
}
