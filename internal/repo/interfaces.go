package repo

import (
	"context"
	"errors"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when a user email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// AssignmentFilter narrows assignment listings. Zero values mean "no filter".
type AssignmentFilter struct {
	Status         string
	Search         string
	ClientID       int64
	WriterID       int64
	ExcludePending bool
	Limit          int
}

// UserRepository manages accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

// WriterRepository manages writer onboarding profiles.
type WriterRepository interface {
	CreateProfile(ctx context.Context, userID int64) error
	GetProfile(ctx context.Context, userID int64) (domain.WriterProfile, error)
	List(ctx context.Context) ([]domain.WriterProfile, error)
	ListPending(ctx context.Context) ([]domain.WriterProfile, error)
	SetStatus(ctx context.Context, userID int64, status domain.WriterStatus) error
}

// AssignmentRepository manages assignments and their append-only history.
// Every mutating call that takes a history entry applies the record change
// and the history append in one transaction.
type AssignmentRepository interface {
	Insert(ctx context.Context, assignment domain.Assignment, entry domain.HistoryEntry) error
	Get(ctx context.Context, id string) (domain.Assignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, error)

	// AssignWriter forces status to ASSIGNED and overwrites any prior writer
	// reference. It reports whether a row was updated; when no row matched,
	// no history entry is written.
	AssignWriter(ctx context.Context, id string, writerID int64, writerName string, entry domain.HistoryEntry) (bool, error)
	UpdateStatus(ctx context.Context, id string, status domain.AssignmentStatus, entry domain.HistoryEntry) error

	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)

	ListHistory(ctx context.Context, id string) ([]domain.HistoryEntry, error)

	// NextIDSeq atomically allocates the next per-year identifier sequence
	// number for generated assignment ids.
	NextIDSeq(ctx context.Context, year int) (int64, error)
}
