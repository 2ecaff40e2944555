package entity

import "strings"

// User is a registered library member or administrator.
// PasswordHash holds the hex encoded SHA-256 digest of the password and is
// persisted with the users collection but never rendered by the HTTP layer.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"passwordHash"`
}

// PublicUser is the view of a User that is safe to hand to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// NormalizeEmail lower-cases and trims an address; emails are unique
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
