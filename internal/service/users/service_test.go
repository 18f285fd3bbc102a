package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
	"github.com/lancehub-labs/lancehub-go/internal/platform/auth"
	"github.com/lancehub-labs/lancehub-go/internal/platform/policy"
	"github.com/lancehub-labs/lancehub-go/internal/repo"
)

type fakeUsers struct {
	byID    map[int64]domain.User
	byEmail map[string]domain.User
	nextID  int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]domain.User{}, byEmail: map[string]domain.User{}}
}

func (f *fakeUsers) Create(ctx context.Context, user domain.User) (int64, error) {
	if _, exists := f.byEmail[user.Email]; exists {
		return 0, repo.ErrEmailTaken
	}
	f.nextID++
	user.ID = f.nextID
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
	return user.ID, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, repo.ErrNotFound
	}
	return u, nil
}

type fakeWriters struct {
	profiles map[int64]domain.WriterProfile
}

func newFakeWriters() *fakeWriters {
	return &fakeWriters{profiles: map[int64]domain.WriterProfile{}}
}

func (f *fakeWriters) CreateProfile(ctx context.Context, userID int64) error {
	f.profiles[userID] = domain.WriterProfile{UserID: userID, Status: domain.WriterPending}
	return nil
}

func (f *fakeWriters) GetProfile(ctx context.Context, userID int64) (domain.WriterProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return domain.WriterProfile{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeWriters) List(ctx context.Context) ([]domain.WriterProfile, error) {
	var out []domain.WriterProfile
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeWriters) ListPending(ctx context.Context) ([]domain.WriterProfile, error) {
	var out []domain.WriterProfile
	for _, p := range f.profiles {
		if p.Status == domain.WriterPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeWriters) SetStatus(ctx context.Context, userID int64, status domain.WriterStatus) error {
	p, ok := f.profiles[userID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Status = status
	f.profiles[userID] = p
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUsers, *fakeWriters) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(auth.Config{
		Mode:                auth.ModeJWT,
		JWTSecret:           "test-secret",
		JWTExpiry:           time.Hour,
		SessionCookieName:   "s",
		SessionCookieMaxAge: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	users := newFakeUsers()
	writers := newFakeWriters()
	return New(users, writers, issuer, policy.Default()), users, writers
}

var testAdmin = auth.Identity{ID: 99, Role: "ADMIN"}

func TestRegisterClient(t *testing.T) {
	svc, users, writers := newTestService(t)

	session, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Client@Example.com",
		Password: "secret1",
		Name:     "Cora Client",
		Role:     "client",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a token")
	}
	if session.User.Email != "client@example.com" {
		t.Fatalf("email = %q, want lowercased", session.User.Email)
	}
	if session.User.Role != domain.RoleClient {
		t.Fatalf("role = %s", session.User.Role)
	}

	stored := users.byID[session.User.ID]
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")) != nil {
		t.Fatal("password hash does not verify")
	}
	if len(writers.profiles) != 0 {
		t.Fatal("client registration must not create a writer profile")
	}
}

func TestRegisterWriterCreatesPendingProfile(t *testing.T) {
	svc, _, writers := newTestService(t)

	session, err := svc.Register(context.Background(), RegisterInput{
		Email: "w@example.com", Password: "secret1", Name: "W", Role: "WRITER",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	profile, ok := writers.profiles[session.User.ID]
	if !ok || profile.Status != domain.WriterPending {
		t.Fatalf("profile = %+v", profile)
	}
}

func TestRegisterRejections(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"admin role", RegisterInput{Email: "a@x.com", Password: "secret1", Name: "A", Role: "ADMIN"}, ErrInvalidRole},
		{"unknown role", RegisterInput{Email: "a@x.com", Password: "secret1", Name: "A", Role: "editor"}, ErrInvalidRole},
		{"short password", RegisterInput{Email: "a@x.com", Password: "abc", Name: "A", Role: "CLIENT"}, ErrValidation},
		{"missing name", RegisterInput{Email: "a@x.com", Password: "secret1", Role: "CLIENT"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.input); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := svc.Register(ctx, RegisterInput{Email: "dup@x.com", Password: "secret1", Name: "D", Role: "CLIENT"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "dup@x.com", Password: "secret1", Name: "D", Role: "CLIENT"}); !errors.Is(err, repo.ErrEmailTaken) {
		t.Fatalf("duplicate err = %v, want ErrEmailTaken", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "c@x.com", Password: "secret1", Name: "C", Role: "CLIENT"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	session, err := svc.Login(ctx, "C@X.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a token")
	}

	if _, err := svc.Login(ctx, "c@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@x.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v", err)
	}
}

func TestWriterLoginGatedOnApproval(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, RegisterInput{Email: "w@x.com", Password: "secret1", Name: "W", Role: "WRITER"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "w@x.com", "secret1"); !errors.Is(err, ErrWriterNotApproved) {
		t.Fatalf("pending login err = %v, want ErrWriterNotApproved", err)
	}

	if err := svc.ReviewWriter(ctx, testAdmin, session.User.ID, true); err != nil {
		t.Fatalf("ReviewWriter: %v", err)
	}
	if _, err := svc.Login(ctx, "w@x.com", "secret1"); err != nil {
		t.Fatalf("approved login: %v", err)
	}

	if err := svc.ReviewWriter(ctx, testAdmin, session.User.ID, false); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := svc.Login(ctx, "w@x.com", "secret1"); !errors.Is(err, ErrWriterNotApproved) {
		t.Fatalf("rejected login err = %v, want ErrWriterNotApproved", err)
	}
}

func TestMe(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	clientSession, err := svc.Register(ctx, RegisterInput{Email: "c@x.com", Password: "secret1", Name: "C", Role: "CLIENT"})
	if err != nil {
		t.Fatalf("Register client: %v", err)
	}
	writerSession, err := svc.Register(ctx, RegisterInput{Email: "w@x.com", Password: "secret1", Name: "W", Role: "WRITER"})
	if err != nil {
		t.Fatalf("Register writer: %v", err)
	}

	account, err := svc.Me(ctx, clientSession.User.ID)
	if err != nil {
		t.Fatalf("Me client: %v", err)
	}
	if account.Writer != nil {
		t.Fatal("client account must not carry a writer profile")
	}

	account, err = svc.Me(ctx, writerSession.User.ID)
	if err != nil {
		t.Fatalf("Me writer: %v", err)
	}
	if account.Writer == nil || account.Writer.Status != domain.WriterPending {
		t.Fatalf("writer profile = %+v", account.Writer)
	}

	if _, err := svc.Me(ctx, 12345); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("missing err = %v, want ErrNotFound", err)
	}
}

func TestWriterReviewAuthorization(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, RegisterInput{Email: "w@x.com", Password: "secret1", Name: "W", Role: "WRITER"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	writerActor := auth.Identity{ID: session.User.ID, Role: "WRITER"}
	if err := svc.ReviewWriter(ctx, writerActor, session.User.ID, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("writer review err = %v, want ErrForbidden", err)
	}
	if _, err := svc.ListWriters(ctx, writerActor, false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("writer list err = %v, want ErrForbidden", err)
	}

	pending, err := svc.ListWriters(ctx, testAdmin, true)
	if err != nil {
		t.Fatalf("ListWriters: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if err := svc.ReviewWriter(ctx, testAdmin, session.User.ID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	pending, err = svc.ListWriters(ctx, testAdmin, true)
	if err != nil {
		t.Fatalf("ListWriters: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after approve = %d, want 0", len(pending))
	}

	if err := svc.ReviewWriter(ctx, testAdmin, 777, true); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("missing profile err = %v, want ErrNotFound", err)
	}
}
