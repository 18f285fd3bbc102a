// Package users covers accounts: registration, credential login, the
// current-user view, and admin review of writer onboarding.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
	"github.com/lancehub-labs/lancehub-go/internal/platform/auth"
	"github.com/lancehub-labs/lancehub-go/internal/platform/policy"
	"github.com/lancehub-labs/lancehub-go/internal/repo"
)

const (
	OpWriterList   = "writer.list"
	OpWriterReview = "writer.review"
)

var (
	// ErrInvalidCredentials deliberately hides whether the email exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrWriterNotApproved blocks writer logins until an admin approves the
	// profile.
	ErrWriterNotApproved = errors.New("writer account pending approval")
	// ErrInvalidRole rejects self-registration as anything but CLIENT or
	// WRITER.
	ErrInvalidRole = errors.New("role must be CLIENT or WRITER")
	// ErrForbidden covers admin-only writer review operations.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is bad input rejected before any storage call.
	ErrValidation = errors.New("validation failed")
)

type Service struct {
	users   repo.UserRepository
	writers repo.WriterRepository
	issuer  *auth.TokenIssuer
	access  policy.Spec
}

func New(users repo.UserRepository, writers repo.WriterRepository, issuer *auth.TokenIssuer, access policy.Spec) *Service {
	return &Service{users: users, writers: writers, issuer: issuer, access: access}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// Session is a logged-in account plus its bearer token.
type Session struct {
	User  domain.User
	Token string
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (Session, error) {
	role, err := domain.ParseRole(input.Role)
	if err != nil || role == domain.RoleAdmin {
		return Session{}, ErrInvalidRole
	}
	if len(input.Password) < 6 {
		return Session{}, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Name:         strings.TrimSpace(input.Name),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	id, err := s.users.Create(ctx, user)
	if err != nil {
		return Session{}, err
	}
	user.ID = id

	if role == domain.RoleWriter {
		if err := s.writers.CreateProfile(ctx, id); err != nil {
			return Session{}, fmt.Errorf("create writer profile: %w", err)
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	if user.Role == domain.RoleWriter {
		profile, err := s.writers.GetProfile(ctx, user.ID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return Session{}, err
		}
		if err != nil || profile.Status != domain.WriterApproved {
			return Session{}, ErrWriterNotApproved
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}

// Account is the current-user view; Writer is set for WRITER accounts.
type Account struct {
	User   domain.User
	Writer *domain.WriterProfile
}

func (s *Service) Me(ctx context.Context, userID int64) (Account, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	account := Account{User: user}
	if user.Role == domain.RoleWriter {
		profile, err := s.writers.GetProfile(ctx, userID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return Account{}, err
		}
		if err == nil {
			account.Writer = &profile
		}
	}
	return account, nil
}

// IdentityByID backs the JWT middleware: it re-reads the account so role
// changes take effect without reissuing tokens.
func (s *Service) IdentityByID(ctx context.Context, id int64) (auth.Identity, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return auth.Identity{}, err
	}
	return identityOf(user), nil
}

// IdentityByEmail backs the OIDC middleware: external identities must map
// to a registered account.
func (s *Service) IdentityByEmail(ctx context.Context, email string) (auth.Identity, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return auth.Identity{}, err
	}
	return identityOf(user), nil
}

func (s *Service) ListWriters(ctx context.Context, actor auth.Identity, pendingOnly bool) ([]domain.WriterProfile, error) {
	if err := s.authorize(actor, OpWriterList); err != nil {
		return nil, err
	}
	if pendingOnly {
		return s.writers.ListPending(ctx)
	}
	return s.writers.List(ctx)
}

// ReviewWriter approves or rejects a pending writer profile.
func (s *Service) ReviewWriter(ctx context.Context, actor auth.Identity, userID int64, approve bool) error {
	if err := s.authorize(actor, OpWriterReview); err != nil {
		return err
	}
	status := domain.WriterRejected
	if approve {
		status = domain.WriterApproved
	}
	return s.writers.SetStatus(ctx, userID, status)
}

func (s *Service) issueToken(user domain.User) (string, error) {
	if s.issuer == nil {
		return "", nil
	}
	token, err := s.issuer.Issue(identityOf(user))
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *Service) authorize(actor auth.Identity, operation string) error {
	decision := policy.Evaluate(s.access, policy.Input{
		Authenticated: actor.ID > 0,
		Role:          actor.Role,
		Operation:     operation,
		Owner:         true,
	})
	if !decision.Allow {
		return fmt.Errorf("%w: %s", ErrForbidden, decision.Reason)
	}
	return nil
}

func identityOf(user domain.User) auth.Identity {
	return auth.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	}
}
