package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
	"github.com/lancehub-labs/lancehub-go/internal/repo"
)

type UserStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewUserStore(db *sql.DB, dialect Dialect) *UserStore {
	if db == nil {
		return nil
	}
	return &UserStore{db: db, dialect: dialect}
}

func (s *UserStore) Create(ctx context.Context, user domain.User) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("user store not initialized")
	}
	if err := user.Validate(); err != nil {
		return 0, err
	}
	email := strings.ToLower(strings.TrimSpace(user.Email))

	if s.dialect == DialectPostgres {
		var id int64
		err := s.db.QueryRowContext(
			ctx,
			`INSERT INTO users (email, password, name, role)
			 VALUES ($1,$2,$3,$4)
			 RETURNING id`,
			email,
			user.PasswordHash,
			strings.TrimSpace(user.Name),
			string(user.Role),
		).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, repo.ErrEmailTaken
			}
			return 0, fmt.Errorf("insert user: %w", err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(
		ctx,
		s.dialect.Rebind(`INSERT INTO users (email, password, name, role) VALUES ($1,$2,$3,$4)`),
		email,
		user.PasswordHash,
		strings.TrimSpace(user.Name),
		string(user.Role),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repo.ErrEmailTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert user id: %w", err)
	}
	return id, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (domain.User, error) {
	if s == nil || s.db == nil {
		return domain.User{}, fmt.Errorf("user store not initialized")
	}
	return s.getOne(ctx, `SELECT id, email, password, name, role, created_at, updated_at FROM users WHERE id = $1`, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	if s == nil || s.db == nil {
		return domain.User{}, fmt.Errorf("user store not initialized")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	return s.getOne(ctx, `SELECT id, email, password, name, role, created_at, updated_at FROM users WHERE email = $1`, email)
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (domain.User, error) {
	var user domain.User
	var role string
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), arg)
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return domain.User{}, handleNotFound(err)
	}
	user.Role = domain.Role(role)
	return user, nil
}
