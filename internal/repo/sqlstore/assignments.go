package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
	"github.com/lancehub-labs/lancehub-go/internal/repo"
)

type AssignmentStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewAssignmentStore(db *sql.DB, dialect Dialect) *AssignmentStore {
	if db == nil {
		return nil
	}
	return &AssignmentStore{db: db, dialect: dialect}
}

const assignmentColumns = `a.id, a.client_id, a.title, a.description, a.status, a.amount, a.deadline,
	a.assigned_writer_id, a.writer_name, a.requirements, a.paid, a.paid_at, a.created_at, a.updated_at,
	u.name, u.email, w.email`

const assignmentFrom = `
	 FROM assignments a
	 LEFT JOIN users u ON a.client_id = u.id
	 LEFT JOIN users w ON a.assigned_writer_id = w.id`

func (s *AssignmentStore) Insert(ctx context.Context, assignment domain.Assignment, entry domain.HistoryEntry) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("assignment store not initialized")
	}
	if err := assignment.Validate(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	now := normalizeTime(assignment.CreatedAt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		s.dialect.Rebind(`INSERT INTO assignments (
			id, client_id, title, description, status, amount, deadline,
			assigned_writer_id, writer_name, requirements, paid, paid_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`),
		strings.TrimSpace(assignment.ID),
		assignment.ClientID,
		strings.TrimSpace(assignment.Title),
		assignment.Description,
		string(assignment.Status),
		assignment.Amount,
		assignment.Deadline.UTC(),
		nullInt64(assignment.AssignedWriterID),
		nullIfEmpty(assignment.WriterName),
		nullIfEmpty(assignment.Requirements),
		assignment.Paid,
		nullTime(assignment.PaidAt),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	if err := s.appendHistoryTx(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *AssignmentStore) Get(ctx context.Context, id string) (domain.Assignment, error) {
	if s == nil || s.db == nil {
		return domain.Assignment{}, fmt.Errorf("assignment store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Assignment{}, fmt.Errorf("assignment id is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		s.dialect.Rebind(`SELECT `+assignmentColumns+assignmentFrom+` WHERE a.id = $1`),
		id,
	)
	return scanAssignment(row)
}

func (s *AssignmentStore) List(ctx context.Context, filter repo.AssignmentFilter) ([]domain.Assignment, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("assignment store not initialized")
	}

	query := `SELECT ` + assignmentColumns + assignmentFrom
	var conditions []string
	var args []any
	next := func(arg any) string {
		args = append(args, arg)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ClientID > 0 {
		conditions = append(conditions, "a.client_id = "+next(filter.ClientID))
	}
	if filter.WriterID > 0 {
		conditions = append(conditions, "a.assigned_writer_id = "+next(filter.WriterID))
	}
	if filter.ExcludePending {
		conditions = append(conditions, "a.status != 'PENDING'")
	}
	if status := strings.TrimSpace(filter.Status); status != "" && !strings.EqualFold(status, "all") {
		conditions = append(conditions, "a.status = "+next(strings.ToUpper(status)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		conditions = append(conditions, "(LOWER(a.title) LIKE "+next(pattern)+
			" OR LOWER(a.id) LIKE "+next(pattern)+
			" OR LOWER(u.name) LIKE "+next(pattern)+")")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + next(filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment)
	}
	return out, rows.Err()
}

func (s *AssignmentStore) AssignWriter(ctx context.Context, id string, writerID int64, writerName string, entry domain.HistoryEntry) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("assignment store not initialized")
	}
	if err := entry.Validate(); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		s.dialect.Rebind(`UPDATE assignments
		 SET assigned_writer_id = $1, writer_name = $2, status = 'ASSIGNED', updated_at = $3
		 WHERE id = $4`),
		writerID,
		strings.TrimSpace(writerName),
		time.Now().UTC(),
		strings.TrimSpace(id),
	)
	if err != nil {
		return false, fmt.Errorf("assign writer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign writer: %w", err)
	}
	if affected == 0 {
		// Unknown ids are a tolerated no-op; nothing to record.
		return false, tx.Commit()
	}
	if err := s.appendHistoryTx(ctx, tx, entry); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (s *AssignmentStore) UpdateStatus(ctx context.Context, id string, status domain.AssignmentStatus, entry domain.HistoryEntry) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("assignment store not initialized")
	}
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		s.dialect.Rebind(`UPDATE assignments SET status = $1, updated_at = $2 WHERE id = $3`),
		string(status),
		time.Now().UTC(),
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	if err := s.appendHistoryTx(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *AssignmentStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("assignment store not initialized")
	}
	res, err := s.db.ExecContext(
		ctx,
		s.dialect.Rebind(`DELETE FROM assignments WHERE id = $1`),
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *AssignmentStore) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("assignment store not initialized")
	}
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, strings.TrimSpace(id))
	}
	res, err := s.db.ExecContext(
		ctx,
		s.dialect.Rebind(`DELETE FROM assignments WHERE id IN (`+strings.Join(placeholders, ",")+`)`),
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete assignments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete assignments: %w", err)
	}
	return affected, nil
}

func (s *AssignmentStore) ListHistory(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("assignment store not initialized")
	}
	rows, err := s.db.QueryContext(
		ctx,
		s.dialect.Rebind(`SELECT id, assignment_id, status, changed_by, notes, created_at
		 FROM assignment_history
		 WHERE assignment_id = $1
		 ORDER BY created_at ASC, id ASC`),
		strings.TrimSpace(id),
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		var status string
		var notes sql.NullString
		if err := rows.Scan(&entry.ID, &entry.AssignmentID, &status, &entry.ChangedBy, &notes, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entry.Status = domain.AssignmentStatus(status)
		entry.Notes = notes.String
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *AssignmentStore) NextIDSeq(ctx context.Context, year int) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("assignment store not initialized")
	}
	var seq int64
	err := s.db.QueryRowContext(
		ctx,
		s.dialect.Rebind(`INSERT INTO assignment_id_seqs (year, seq) VALUES ($1, 1)
		 ON CONFLICT (year) DO UPDATE SET seq = assignment_id_seqs.seq + 1
		 RETURNING seq`),
		year,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next id seq: %w", err)
	}
	return seq, nil
}

func (s *AssignmentStore) appendHistoryTx(ctx context.Context, tx *sql.Tx, entry domain.HistoryEntry) error {
	_, err := tx.ExecContext(
		ctx,
		s.dialect.Rebind(`INSERT INTO assignment_history (assignment_id, status, changed_by, notes, created_at)
		 VALUES ($1,$2,$3,$4,$5)`),
		strings.TrimSpace(entry.AssignmentID),
		string(entry.Status),
		entry.ChangedBy,
		nullIfEmpty(entry.Notes),
		normalizeTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (domain.Assignment, error) {
	var a domain.Assignment
	var status string
	var writerID sql.NullInt64
	var writerName, requirements, clientName, clientEmail, writerEmail sql.NullString
	var paidAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.ClientID, &a.Title, &a.Description, &status, &a.Amount, &a.Deadline,
		&writerID, &writerName, &requirements, &a.Paid, &paidAt, &a.CreatedAt, &a.UpdatedAt,
		&clientName, &clientEmail, &writerEmail,
	)
	if err != nil {
		return domain.Assignment{}, handleNotFound(err)
	}
	a.Status = domain.AssignmentStatus(status)
	if writerID.Valid {
		a.AssignedWriterID = &writerID.Int64
	}
	a.WriterName = writerName.String
	a.Requirements = requirements.String
	if paidAt.Valid {
		t := paidAt.Time
		a.PaidAt = &t
	}
	a.ClientName = clientName.String
	a.ClientEmail = clientEmail.String
	a.WriterEmail = writerEmail.String
	return a, nil
}
