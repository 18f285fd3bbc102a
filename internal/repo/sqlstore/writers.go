package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
	"github.com/lancehub-labs/lancehub-go/internal/repo"
)

type WriterStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewWriterStore(db *sql.DB, dialect Dialect) *WriterStore {
	if db == nil {
		return nil
	}
	return &WriterStore{db: db, dialect: dialect}
}

func (s *WriterStore) CreateProfile(ctx context.Context, userID int64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("writer store not initialized")
	}
	if userID <= 0 {
		return fmt.Errorf("user id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		s.dialect.Rebind(`INSERT INTO writers (user_id, status) VALUES ($1,$2)`),
		userID,
		string(domain.WriterPending),
	)
	if err != nil {
		return fmt.Errorf("insert writer profile: %w", err)
	}
	return nil
}

func (s *WriterStore) GetProfile(ctx context.Context, userID int64) (domain.WriterProfile, error) {
	if s == nil || s.db == nil {
		return domain.WriterProfile{}, fmt.Errorf("writer store not initialized")
	}
	var profile domain.WriterProfile
	var bio, specialties sql.NullString
	var status string
	row := s.db.QueryRowContext(
		ctx,
		s.dialect.Rebind(`SELECT w.user_id, w.rating, w.bio, w.specialties, w.active_assignments, w.status,
			u.name, u.email, u.created_at
		 FROM writers w
		 JOIN users u ON w.user_id = u.id
		 WHERE w.user_id = $1`),
		userID,
	)
	if err := row.Scan(&profile.UserID, &profile.Rating, &bio, &specialties, &profile.ActiveAssignments, &status,
		&profile.Name, &profile.Email, &profile.CreatedAt); err != nil {
		return domain.WriterProfile{}, handleNotFound(err)
	}
	profile.Bio = bio.String
	profile.Specialties = specialties.String
	profile.Status = domain.WriterStatus(status)
	return profile, nil
}

func (s *WriterStore) List(ctx context.Context) ([]domain.WriterProfile, error) {
	return s.list(ctx, `SELECT w.user_id, w.rating, w.bio, w.specialties, w.active_assignments, w.status,
			u.name, u.email, u.created_at
		 FROM writers w
		 JOIN users u ON w.user_id = u.id
		 ORDER BY u.created_at DESC`)
}

func (s *WriterStore) ListPending(ctx context.Context) ([]domain.WriterProfile, error) {
	return s.list(ctx, `SELECT w.user_id, w.rating, w.bio, w.specialties, w.active_assignments, w.status,
			u.name, u.email, u.created_at
		 FROM writers w
		 JOIN users u ON w.user_id = u.id
		 WHERE w.status = 'PENDING'
		 ORDER BY u.created_at DESC`)
}

func (s *WriterStore) list(ctx context.Context, query string) ([]domain.WriterProfile, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("writer store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query))
	if err != nil {
		return nil, fmt.Errorf("list writers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.WriterProfile
	for rows.Next() {
		var profile domain.WriterProfile
		var bio, specialties sql.NullString
		var status string
		if err := rows.Scan(&profile.UserID, &profile.Rating, &bio, &specialties, &profile.ActiveAssignments, &status,
			&profile.Name, &profile.Email, &profile.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan writer: %w", err)
		}
		profile.Bio = bio.String
		profile.Specialties = specialties.String
		profile.Status = domain.WriterStatus(status)
		out = append(out, profile)
	}
	return out, rows.Err()
}

// UpdateDetails fills the profile fields that onboarding leaves empty.
// Used by seeding and admin tooling.
func (s *WriterStore) UpdateDetails(ctx context.Context, userID int64, rating float64, bio, specialties string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("writer store not initialized")
	}
	res, err := s.db.ExecContext(
		ctx,
		s.dialect.Rebind(`UPDATE writers SET rating = $1, bio = $2, specialties = $3 WHERE user_id = $4`),
		rating,
		nullIfEmpty(bio),
		nullIfEmpty(specialties),
		userID,
	)
	if err != nil {
		return fmt.Errorf("update writer details: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update writer details: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *WriterStore) SetStatus(ctx context.Context, userID int64, status domain.WriterStatus) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("writer store not initialized")
	}
	if !status.Valid() {
		return fmt.Errorf("invalid writer status %q", status)
	}
	res, err := s.db.ExecContext(
		ctx,
		s.dialect.Rebind(`UPDATE writers SET status = $1 WHERE user_id = $2`),
		string(status),
		userID,
	)
	if err != nil {
		return fmt.Errorf("update writer status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update writer status: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
