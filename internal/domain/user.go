package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is the marketplace role a user acts under.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleWriter Role = "WRITER"
	RoleAdmin  Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleWriter, RoleAdmin:
		return true
	default:
		return false
	}
}

func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

// User is a registered account.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("email is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("name is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}

// WriterStatus is the onboarding approval state gating writer login.
type WriterStatus string

const (
	WriterPending  WriterStatus = "PENDING"
	WriterApproved WriterStatus = "APPROVED"
	WriterRejected WriterStatus = "REJECTED"
)

func (s WriterStatus) Valid() bool {
	switch s {
	case WriterPending, WriterApproved, WriterRejected:
		return true
	default:
		return false
	}
}

// WriterProfile is the extended record kept for WRITER accounts.
type WriterProfile struct {
	UserID            int64
	Rating            float64
	Bio               string
	Specialties       string
	ActiveAssignments int
	Status            WriterStatus

	// Joined from users.
	Name      string
	Email     string
	CreatedAt time.Time
}
