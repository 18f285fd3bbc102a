package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AssignmentStatus is the workflow state of an assignment.
type AssignmentStatus string

const (
	StatusPending    AssignmentStatus = "PENDING"
	StatusAssigned   AssignmentStatus = "ASSIGNED"
	StatusInProgress AssignmentStatus = "IN_PROGRESS"
	StatusCompleted  AssignmentStatus = "COMPLETED"
	StatusPaid       AssignmentStatus = "PAID"
)

// MinAssignmentAmount is the smallest amount an assignment may be posted for.
const MinAssignmentAmount = 50

func (s AssignmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusPaid:
		return true
	default:
		return false
	}
}

func ParseAssignmentStatus(raw string) (AssignmentStatus, error) {
	s := AssignmentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown assignment status %q", raw)
	}
	return s, nil
}

// Assignment is a client-posted job moving through the workflow.
type Assignment struct {
	ID               string
	ClientID         int64
	Title            string
	Description      string
	Status           AssignmentStatus
	Amount           float64
	Deadline         time.Time
	AssignedWriterID *int64
	WriterName       string
	Requirements     string
	Paid             bool
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Joined display fields, populated by list/get queries only.
	ClientName  string
	ClientEmail string
	WriterEmail string
}

func (a Assignment) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("assignment id is required")
	}
	if a.ClientID <= 0 {
		return errors.New("client id is required")
	}
	if strings.TrimSpace(a.Title) == "" {
		return errors.New("title is required")
	}
	if !a.Status.Valid() {
		return fmt.Errorf("invalid status %q", a.Status)
	}
	if a.Amount < MinAssignmentAmount {
		return fmt.Errorf("amount must be at least %d", MinAssignmentAmount)
	}
	if a.Deadline.IsZero() {
		return errors.New("deadline is required")
	}
	return nil
}

// DisplayStatus is the client-facing status: a paid assignment always
// presents as PAID regardless of the stored workflow state.
func (a Assignment) DisplayStatus() AssignmentStatus {
	if a.Paid {
		return StatusPaid
	}
	return a.Status
}

// HistoryEntry is one append-only row of an assignment's audit trail.
type HistoryEntry struct {
	ID           int64
	AssignmentID string
	Status       AssignmentStatus
	ChangedBy    int64
	Notes        string
	CreatedAt    time.Time
}

func (e HistoryEntry) Validate() error {
	if strings.TrimSpace(e.AssignmentID) == "" {
		return errors.New("assignment id is required")
	}
	if !e.Status.Valid() {
		return fmt.Errorf("invalid status %q", e.Status)
	}
	if e.ChangedBy <= 0 {
		return errors.New("changed_by is required")
	}
	return nil
}
