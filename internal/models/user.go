package models

import "strings"

const (
	RoleAdmin = "admin"
	RoleTech  = "tech"
)

type RegisteredUser struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PIN          string `json:"pin,omitempty"`     // legacy plaintext rows
	PINHash      string `json:"pinHash,omitempty"` // bcrypt
	Role         string `json:"role"`              // "admin" or "tech"
	TechnicianID string `json:"technicianId"`
}

// User is the session projection of a RegisteredUser.
type User struct {
	Name         string `json:"name"`
	TechnicianID string `json:"technicianId"`
	Role         string `json:"role"`
	Email        string `json:"email"`
}

// Session is the persisted {user, expiry} token. Expiry is Unix millis.
type Session struct {
	User   User  `json:"user"`
	Expiry int64 `json:"expiry"`
}

// CreateUserRequest is the request body for POST /api/users
type CreateUserRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PIN          string `json:"pin"`
	Role         string `json:"role"`
	TechnicianID string `json:"technicianId"`
}

func (u *RegisteredUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *RegisteredUser) ToSessionUser() User {
	return User{
		Name:         u.FullName(),
		TechnicianID: u.TechnicianID,
		Role:         u.Role,
		Email:        u.Email,
	}
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole reports whether r is "admin" or "tech".
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleTech
}
