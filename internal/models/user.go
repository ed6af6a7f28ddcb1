package models

import (
	"strings"
	"time"
)

// UserRole defines what a user is allowed to do with certificates.
type UserRole string

const (
	// UserRoleSystemAdmin has unrestricted access.
	UserRoleSystemAdmin UserRole = "SYSTEM_ADMIN"
	// UserRoleCertificateAdmin manages the certificate lifecycle.
	UserRoleCertificateAdmin UserRole = "CERTIFICATE_ADMIN"
	// UserRoleInstructor can issue certificates for courses.
	UserRoleInstructor UserRole = "INSTRUCTOR"
	// UserRoleStudent can view their own certificates.
	UserRoleStudent UserRole = "STUDENT"
)

// AllUserRoles lists every known role.
var AllUserRoles = []UserRole{
	UserRoleSystemAdmin,
	UserRoleCertificateAdmin,
	UserRoleInstructor,
	UserRoleStudent,
}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	for _, known := range AllUserRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Privileged reports whether r administers the system or its certificates.
func (r UserRole) Privileged() bool {
	return r == UserRoleSystemAdmin || r == UserRoleCertificateAdmin
}

// User represents an account that can authenticate against the API.
type User struct {
	ID            int64     `json:"id"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          UserRole  `json:"role"`
	Active        bool      `json:"active"`
	InstitutionID *int64    `json:"institutionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewUser creates a new active User. The email is normalized.
func NewUser(fullName, email, passwordHash string, role UserRole, institutionID *int64) *User {
	now := time.Now().UTC()
	return &User{
		FullName:      strings.TrimSpace(fullName),
		Email:         NormalizeEmail(email),
		PasswordHash:  passwordHash,
		Role:          role,
		Active:        true,
		InstitutionID: institutionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NormalizeEmail lower-cases and trims an email address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
