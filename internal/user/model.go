package user

import (
	"net/http"
	"time"

	"github.com/hogwarts/facility-booking/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrHogwartsIDTaken    = apperror.New(http.StatusConflict, "hogwarts id already registered")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid hogwarts id or password")
	ErrHogwartsIDRequired = apperror.New(http.StatusBadRequest, "hogwarts id is required")
	ErrPasswordTooShort   = apperror.New(http.StatusBadRequest, "password is too short")
	ErrPasswordTooLong    = apperror.New(http.StatusBadRequest, "password must be at most 72 bytes")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// IsPrivileged reports whether the role may manage other users' bookings.
func (r Role) IsPrivileged() bool {
	return r == RoleStaff || r == RoleAdmin
}

// CredentialState tracks the one-time migration of imported plaintext passwords.
type CredentialState string

const (
	CredentialHashed         CredentialState = "hashed"
	CredentialPendingUpgrade CredentialState = "pending_upgrade"
)

type User struct {
	ID              int64
	HogwartsID      string
	PasswordHash    string
	LegacyPassword  *string // only set while CredentialState is pending_upgrade
	CredentialState CredentialState
	Role            Role
	CreatedAt       time.Time
	LastLoginAt     *time.Time
}
