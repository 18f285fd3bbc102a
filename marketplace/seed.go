package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
	"github.com/lancehub-labs/lancehub-go/internal/repo"
	"github.com/lancehub-labs/lancehub-go/internal/repo/sqlstore"
)

// seed loads the demo dataset: an admin, two clients, three approved
// writers and five assignments spread across the workflow. Existing rows
// are left alone so repeated runs are safe.
func seed(ctx context.Context, logger *slog.Logger, db *sql.DB, dialect sqlstore.Dialect) error {
	users := sqlstore.NewUserStore(db, dialect)
	writers := sqlstore.NewWriterStore(db, dialect)
	store := sqlstore.NewAssignmentStore(db, dialect)

	type seedUser struct {
		email    string
		password string
		name     string
		role     domain.Role
	}
	seedUsers := []seedUser{
		{"admin@lancehub.com", "admin123", "Admin User", domain.RoleAdmin},
		{"john@client.com", "client123", "John Doe", domain.RoleClient},
		{"jane@client.com", "client123", "Jane Smith", domain.RoleClient},
		{"alice@writer.com", "writer123", "Alice Johnson", domain.RoleWriter},
		{"bob@writer.com", "writer123", "Bob Smith", domain.RoleWriter},
		{"carol@writer.com", "writer123", "Carol Davis", domain.RoleWriter},
	}

	ids := make(map[string]int64, len(seedUsers))
	names := make(map[string]string, len(seedUsers))
	for _, u := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		id, err := users.Create(ctx, domain.User{
			Email:        u.email,
			Name:         u.name,
			Role:         u.role,
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
		})
		if errors.Is(err, repo.ErrEmailTaken) {
			existing, err := users.GetByEmail(ctx, u.email)
			if err != nil {
				return fmt.Errorf("load existing seed user %s: %w", u.email, err)
			}
			id = existing.ID
		} else if err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
		ids[u.email] = id
		names[u.email] = u.name
	}

	writerDetails := []struct {
		email       string
		rating      float64
		bio         string
		specialties string
	}{
		{"alice@writer.com", 4.8, "Experienced academic writer", "Research Papers, Essays"},
		{"bob@writer.com", 4.6, "Business writing expert", "Business Plans, Marketing"},
		{"carol@writer.com", 4.9, "Technical documentation specialist", "Technical Writing, Documentation"},
	}
	for _, d := range writerDetails {
		userID := ids[d.email]
		if _, err := writers.GetProfile(ctx, userID); err == nil {
			continue
		} else if !errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("check writer profile %s: %w", d.email, err)
		}
		if err := writers.CreateProfile(ctx, userID); err != nil {
			return fmt.Errorf("seed writer %s: %w", d.email, err)
		}
		if err := writers.SetStatus(ctx, userID, domain.WriterApproved); err != nil {
			return fmt.Errorf("approve seed writer %s: %w", d.email, err)
		}
		if err := writers.UpdateDetails(ctx, userID, d.rating, d.bio, d.specialties); err != nil {
			return fmt.Errorf("detail seed writer %s: %w", d.email, err)
		}
	}

	writerRef := func(email string) (*int64, string) {
		id := ids[email]
		return &id, names[email]
	}
	aliceID, aliceName := writerRef("alice@writer.com")
	bobID, bobName := writerRef("bob@writer.com")
	carolID, carolName := writerRef("carol@writer.com")

	deadline := func(value string) time.Time {
		t, err := time.Parse("2006-01-02", value)
		if err != nil {
			return time.Now().Add(14 * 24 * time.Hour)
		}
		return t
	}

	seedAssignments := []struct {
		assignment domain.Assignment
		notes      string
		changedBy  int64
	}{
		{
			assignment: domain.Assignment{
				ID: "LH-2025-001", ClientID: ids["john@client.com"],
				Title:       "Research Paper on Machine Learning",
				Description: "10-page research paper on ML applications in healthcare",
				Status:      domain.StatusPending, Amount: 150, Deadline: deadline("2025-02-01"),
			},
			notes:     "Assignment created",
			changedBy: ids["john@client.com"],
		},
		{
			assignment: domain.Assignment{
				ID: "LH-2025-002", ClientID: ids["jane@client.com"],
				Title:       "Business Plan for Startup",
				Description: "Comprehensive business plan for tech startup including financial projections",
				Status:      domain.StatusAssigned, Amount: 200, Deadline: deadline("2025-02-15"),
				AssignedWriterID: aliceID, WriterName: aliceName,
			},
			notes:     "Assigned to Alice Johnson",
			changedBy: ids["admin@lancehub.com"],
		},
		{
			assignment: domain.Assignment{
				ID: "LH-2025-003", ClientID: ids["john@client.com"],
				Title:       "Marketing Strategy Analysis",
				Description: "In-depth analysis of current marketing strategies and recommendations",
				Status:      domain.StatusInProgress, Amount: 150, Deadline: deadline("2025-02-10"),
				AssignedWriterID: bobID, WriterName: bobName,
			},
			notes:     "Started working on assignment",
			changedBy: *bobID,
		},
		{
			assignment: domain.Assignment{
				ID: "LH-2025-004", ClientID: ids["jane@client.com"],
				Title:       "Technical Documentation",
				Description: "User manual and API documentation for software product",
				Status:      domain.StatusCompleted, Amount: 180, Deadline: deadline("2025-02-05"),
				AssignedWriterID: carolID, WriterName: carolName,
			},
			notes:     "Assignment completed and submitted",
			changedBy: *carolID,
		},
		{
			assignment: domain.Assignment{
				ID: "LH-2025-005", ClientID: ids["john@client.com"],
				Title:       "Content Writing for Blog",
				Description: "5 blog posts on digital marketing trends",
				Status:      domain.StatusPending, Amount: 100, Deadline: deadline("2025-02-03"),
			},
			notes:     "Assignment created",
			changedBy: ids["john@client.com"],
		},
	}

	now := time.Now().UTC()
	for _, s := range seedAssignments {
		if _, err := store.Get(ctx, s.assignment.ID); err == nil {
			continue
		} else if !errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("check seed assignment %s: %w", s.assignment.ID, err)
		}

		a := s.assignment
		a.CreatedAt = now
		a.UpdatedAt = now
		entry := domain.HistoryEntry{
			AssignmentID: a.ID,
			Status:       a.Status,
			ChangedBy:    s.changedBy,
			Notes:        s.notes,
			CreatedAt:    now,
		}
		if err := store.Insert(ctx, a, entry); err != nil {
			return fmt.Errorf("seed assignment %s: %w", a.ID, err)
		}
	}

	logger.Info("database seeded",
		"users", len(seedUsers),
		"writers", len(writerDetails),
		"assignments", len(seedAssignments))
	return nil
}
