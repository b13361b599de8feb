// Package identity resolves the user performing a booking from a persisted
// credential: a cached profile when one exists, otherwise the bearer token.
package identity

import (
	"strings"
	"time"
)

// Role gates which pages and operations a user may reach.
type Role string

const (
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a claim value onto a Role. Clinician spellings map to staff;
// anything unknown is treated as a patient.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "staff", "provider", "doctor":
		return RoleStaff
	default:
		return RolePatient
	}
}

// Identity is the authenticated user. It is derived from, never owned by,
// the stored credential and is recomputed each session.
type Identity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	TokenExpiry time.Time `json:"token_expiry,omitempty"`
}

// Authenticated reports whether id carries a usable user id.
func (id *Identity) Authenticated() bool {
	return id != nil && strings.TrimSpace(id.ID) != ""
}
