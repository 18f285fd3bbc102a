package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
	"github.com/lancehub-labs/lancehub-go/internal/platform/database"
	"github.com/lancehub-labs/lancehub-go/internal/repo"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := database.Config{
		Driver:       database.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "test.db"),
		PingTimeout:  2 * time.Second,
		MaxOpenConns: 1,
	}
	db, err := database.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, store *UserStore, email string, role domain.Role) int64 {
	t.Helper()
	id, err := store.Create(context.Background(), domain.User{
		Email:        email,
		Name:         "Test " + email,
		Role:         role,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return id
}

func TestUserStore(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db, DialectSQLite)
	ctx := context.Background()

	id := seedUser(t, store, "Client@Example.com", domain.RoleClient)

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "client@example.com" {
		t.Fatalf("email = %q, want lowercased", got.Email)
	}
	if got.Role != domain.RoleClient {
		t.Fatalf("role = %s", got.Role)
	}

	if _, err := store.GetByEmail(ctx, "CLIENT@example.com"); err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if _, err := store.GetByID(ctx, 999); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("missing err = %v, want ErrNotFound", err)
	}

	if _, err := store.Create(ctx, domain.User{
		Email: "client@example.com", Name: "Dup", Role: domain.RoleClient, PasswordHash: "x",
	}); !errors.Is(err, repo.ErrEmailTaken) {
		t.Fatalf("duplicate err = %v, want ErrEmailTaken", err)
	}
}

func TestWriterStore(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, DialectSQLite)
	store := NewWriterStore(db, DialectSQLite)
	ctx := context.Background()

	writerID := seedUser(t, userStore, "writer@example.com", domain.RoleWriter)

	if err := store.CreateProfile(ctx, writerID); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	profile, err := store.GetProfile(ctx, writerID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.Status != domain.WriterPending {
		t.Fatalf("status = %s, want PENDING", profile.Status)
	}
	if profile.Email != "writer@example.com" {
		t.Fatalf("joined email = %q", profile.Email)
	}

	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	if err := store.SetStatus(ctx, writerID, domain.WriterApproved); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := store.UpdateDetails(ctx, writerID, 4.8, "Academic writer", "Essays"); err != nil {
		t.Fatalf("UpdateDetails: %v", err)
	}

	profile, err = store.GetProfile(ctx, writerID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.Status != domain.WriterApproved || profile.Rating != 4.8 || profile.Bio != "Academic writer" {
		t.Fatalf("profile = %+v", profile)
	}

	pending, err = store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after approval = %d, want 0", len(pending))
	}

	if err := store.SetStatus(ctx, 999, domain.WriterApproved); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("missing err = %v, want ErrNotFound", err)
	}
}

func TestAssignmentStore(t *testing.T) {
	db := newTestDB(t)
	userStore := NewUserStore(db, DialectSQLite)
	store := NewAssignmentStore(db, DialectSQLite)
	ctx := context.Background()

	clientID := seedUser(t, userStore, "client@example.com", domain.RoleClient)
	writerID := seedUser(t, userStore, "writer@example.com", domain.RoleWriter)

	now := time.Now().UTC().Truncate(time.Second)
	base := domain.Assignment{
		ClientID:    clientID,
		Title:       "Research Paper on Machine Learning",
		Description: "Ten pages on ML in healthcare.",
		Status:      domain.StatusPending,
		Amount:      150,
		Deadline:    now.Add(14 * 24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	first := base
	first.ID = "LH-2026-001"
	if err := store.Insert(ctx, first, domain.HistoryEntry{
		AssignmentID: first.ID, Status: domain.StatusPending, ChangedBy: clientID, Notes: "Assignment created",
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	second := base
	second.ID = "LH-2026-002"
	second.Title = "Business Plan for Startup"
	if err := store.Insert(ctx, second, domain.HistoryEntry{
		AssignmentID: second.ID, Status: domain.StatusPending, ChangedBy: clientID, Notes: "Assignment created",
	}); err != nil {
		t.Fatalf("Insert second: %v", err)
	}

	got, err := store.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ClientName != "Test client@example.com" {
		t.Fatalf("joined client name = %q", got.ClientName)
	}
	if _, err := store.Get(ctx, "LH-missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("missing err = %v, want ErrNotFound", err)
	}

	updated, err := store.AssignWriter(ctx, first.ID, writerID, "Alice", domain.HistoryEntry{
		AssignmentID: first.ID, Status: domain.StatusAssigned, ChangedBy: clientID, Notes: "Assigned to Alice",
	})
	if err != nil {
		t.Fatalf("AssignWriter: %v", err)
	}
	if !updated {
		t.Fatal("AssignWriter reported no update")
	}
	got, err = store.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get after assign: %v", err)
	}
	if got.Status != domain.StatusAssigned || got.AssignedWriterID == nil || *got.AssignedWriterID != writerID {
		t.Fatalf("after assign = %+v", got)
	}
	if got.WriterEmail != "writer@example.com" {
		t.Fatalf("joined writer email = %q", got.WriterEmail)
	}

	updated, err = store.AssignWriter(ctx, "LH-missing", writerID, "Alice", domain.HistoryEntry{
		AssignmentID: "LH-missing", Status: domain.StatusAssigned, ChangedBy: clientID, Notes: "x",
	})
	if err != nil {
		t.Fatalf("AssignWriter missing: %v", err)
	}
	if updated {
		t.Fatal("missing id reported as updated")
	}

	if err := store.UpdateStatus(ctx, first.ID, domain.StatusInProgress, domain.HistoryEntry{
		AssignmentID: first.ID, Status: domain.StatusInProgress, ChangedBy: writerID, Notes: "Started",
	}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := store.UpdateStatus(ctx, "LH-missing", domain.StatusCompleted, domain.HistoryEntry{
		AssignmentID: "LH-missing", Status: domain.StatusCompleted, ChangedBy: writerID, Notes: "x",
	}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("UpdateStatus missing err = %v, want ErrNotFound", err)
	}

	list, err := store.List(ctx, repo.AssignmentFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list = %d, want 2", len(list))
	}

	list, err = store.List(ctx, repo.AssignmentFilter{WriterID: writerID, ExcludePending: true})
	if err != nil {
		t.Fatalf("List by writer: %v", err)
	}
	if len(list) != 1 || list[0].ID != first.ID {
		t.Fatalf("writer list = %+v", list)
	}

	list, err = store.List(ctx, repo.AssignmentFilter{Search: "business plan"})
	if err != nil {
		t.Fatalf("List by search: %v", err)
	}
	if len(list) != 1 || list[0].ID != second.ID {
		t.Fatalf("search list = %+v", list)
	}

	list, err = store.List(ctx, repo.AssignmentFilter{Status: "IN_PROGRESS"})
	if err != nil {
		t.Fatalf("List by status: %v", err)
	}
	if len(list) != 1 || list[0].ID != first.ID {
		t.Fatalf("status list = %+v", list)
	}

	entries, err := store.ListHistory(ctx, first.ID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	wantNotes := []string{"Assignment created", "Assigned to Alice", "Started"}
	if len(entries) != len(wantNotes) {
		t.Fatalf("history = %d entries, want %d", len(entries), len(wantNotes))
	}
	for i, note := range wantNotes {
		if entries[i].Notes != note {
			t.Fatalf("entries[%d].Notes = %q, want %q", i, entries[i].Notes, note)
		}
	}
	if entries, _ := store.ListHistory(ctx, "LH-missing"); len(entries) != 0 {
		t.Fatalf("missing history = %+v", entries)
	}

	deleted, err := store.DeleteMany(ctx, []string{first.ID, "LH-missing"})
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if entries, _ := store.ListHistory(ctx, first.ID); len(entries) != 0 {
		t.Fatalf("history not cascaded: %+v", entries)
	}

	if err := store.Delete(ctx, second.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, second.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestNextIDSeq(t *testing.T) {
	db := newTestDB(t)
	store := NewAssignmentStore(db, DialectSQLite)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.NextIDSeq(ctx, 2026)
		if err != nil {
			t.Fatalf("NextIDSeq: %v", err)
		}
		if got != want {
			t.Fatalf("seq = %d, want %d", got, want)
		}
	}

	// A new year starts its own counter.
	got, err := store.NextIDSeq(ctx, 2027)
	if err != nil {
		t.Fatalf("NextIDSeq: %v", err)
	}
	if got != 1 {
		t.Fatalf("new year seq = %d, want 1", got)
	}
}

func TestRebind(t *testing.T) {
	query := `SELECT * FROM t WHERE a = $1 AND b = $2 AND c = $10`

	if got := DialectPostgres.Rebind(query); got != query {
		t.Fatalf("postgres rebind changed query: %q", got)
	}
	want := `SELECT * FROM t WHERE a = ? AND b = ? AND c = ?`
	if got := DialectSQLite.Rebind(query); got != want {
		t.Fatalf("sqlite rebind = %q, want %q", got, want)
	}
}
