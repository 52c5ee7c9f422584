package models

import "time"

// Role represents the possible roles of an account.
type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Account represents a login-capable account.
//
// Wire names match the documents of the original TaskFlow deployment so data
// written by either system stays readable by the other. CredentialSecret is
// compared with plain equality at login; that is the source system's
// contract, kept as-is and documented as a weakness rather than silently
// hardened.
type Account struct {
	ID               string    `json:"uid" validate:"required"`
	DisplayName      string    `json:"name" validate:"required"`
	LoginHandle      string    `json:"email" validate:"required,email"`
	CredentialSecret string    `json:"password" validate:"required"`
	Role             Role      `json:"role" validate:"required,oneof=manager employee"`
	CreatedAt        time.Time `json:"createdAt" validate:"required"`
}

// IsManager reports whether the account holds the manager role.
func (a Account) IsManager() bool { return a.Role == RoleManager }
