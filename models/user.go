package models

import "time"

// UserRole is the authorization tier stored on the user row.
type UserRole int

const (
	RoleMember      UserRole = 0
	RoleEventLeader UserRole = 1
	RoleChair       UserRole = 2
)

// User represents a member, parent or admin account. Ghost accounts
// (placeholders created for parent/child links before the person registers)
// carry AccountClaimed=false and may not sign up for tournaments.
type User struct {
	ID             int       `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Role           UserRole  `json:"role"`
	IsParent       bool      `json:"is_parent"`
	AccountClaimed bool      `json:"account_claimed"`
	Points         int       `json:"points"`
	Bids           int       `json:"bids"`
	CreatedAt      time.Time `json:"created_at"`
}

// FullName is the display form used in validation messages and search results.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
