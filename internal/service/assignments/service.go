// Package assignments implements the marketplace workflow engine: posting,
// writer assignment, status progression, deletion, and the append-only
// history behind every change.
package assignments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
	"github.com/lancehub-labs/lancehub-go/internal/platform/auth"
	"github.com/lancehub-labs/lancehub-go/internal/platform/idgen"
	"github.com/lancehub-labs/lancehub-go/internal/platform/policy"
	"github.com/lancehub-labs/lancehub-go/internal/repo"
)

// Operation names consulted against the access policy.
const (
	OpCreate       = "assignment.create"
	OpListAll      = "assignment.list_all"
	OpListMine     = "assignment.list_mine"
	OpGet          = "assignment.get"
	OpHistory      = "assignment.history"
	OpUpdateStatus = "assignment.update_status"
	OpAssignWriter = "assignment.assign_writer"
	OpDelete       = "assignment.delete"
	OpBulkAssign   = "assignment.bulk_assign"
	OpBulkDelete   = "assignment.bulk_delete"
)

type Service struct {
	store  repo.AssignmentRepository
	ids    idgen.Generator
	access policy.Spec
	now    func() time.Time
}

func New(store repo.AssignmentRepository, ids idgen.Generator, access policy.Spec) *Service {
	return &Service{
		store:  store,
		ids:    ids,
		access: access,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is a client's posting request, validated before storage.
type CreateInput struct {
	Title        string
	Description  string
	Amount       float64
	Deadline     time.Time
	Requirements string
}

func (s *Service) Create(ctx context.Context, actor auth.Identity, input CreateInput) (domain.Assignment, error) {
	if err := s.authorize(actor, OpCreate, true); err != nil {
		return domain.Assignment{}, err
	}

	id, err := s.ids.NextID(ctx)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("allocate assignment id: %w", err)
	}

	now := s.now()
	assignment := domain.Assignment{
		ID:           id,
		ClientID:     actor.ID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.StatusPending,
		Amount:       input.Amount,
		Deadline:     input.Deadline,
		Requirements: strings.TrimSpace(input.Requirements),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := assignment.Validate(); err != nil {
		return domain.Assignment{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	entry := domain.HistoryEntry{
		AssignmentID: id,
		Status:       domain.StatusPending,
		ChangedBy:    actor.ID,
		Notes:        "Assignment created",
		CreatedAt:    now,
	}
	if err := s.store.Insert(ctx, assignment, entry); err != nil {
		return domain.Assignment{}, fmt.Errorf("insert assignment: %w", err)
	}
	return assignment, nil
}

// AssignWriter is an admin override: it attaches the writer and forces the
// status to ASSIGNED regardless of the prior state. Reassignment overwrites
// the previous writer.
func (s *Service) AssignWriter(ctx context.Context, actor auth.Identity, id string, writerID int64, writerName string) error {
	if err := s.authorize(actor, OpAssignWriter, true); err != nil {
		return err
	}
	if writerID <= 0 || strings.TrimSpace(writerName) == "" {
		return fmt.Errorf("%w: writer id and name are required", ErrValidation)
	}

	entry := domain.HistoryEntry{
		AssignmentID: id,
		Status:       domain.StatusAssigned,
		ChangedBy:    actor.ID,
		Notes:        "Assigned to " + writerName,
		CreatedAt:    s.now(),
	}
	updated, err := s.store.AssignWriter(ctx, id, writerID, writerName, entry)
	if err != nil {
		return fmt.Errorf("assign writer: %w", err)
	}
	if !updated {
		return repo.ErrNotFound
	}
	return nil
}

// UpdateStatus moves an assignment along the workflow. Writers may only
// advance their own assignment one step forward; admins may set any status.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Identity, id string, status domain.AssignmentStatus, notes string) error {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, OpUpdateStatus, isAssignedWriter(current, actor.ID)); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	if !strings.EqualFold(actor.Role, policy.RoleAdmin) {
		if err := domain.ValidateWriterTransition(current.Status, status); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
	}

	notes = strings.TrimSpace(notes)
	if notes == "" {
		notes = "Status changed to " + string(status)
	}
	entry := domain.HistoryEntry{
		AssignmentID: id,
		Status:       status,
		ChangedBy:    actor.ID,
		Notes:        notes,
		CreatedAt:    s.now(),
	}
	if err := s.store.UpdateStatus(ctx, id, status, entry); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// BatchFailure reports why one item of a bulk operation failed.
type BatchFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BatchResult carries the per-item outcomes of a bulk operation. Bulk
// operations run sequentially and never roll back earlier items.
type BatchResult struct {
	Succeeded []string       `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

// BulkAssign assigns one writer to many assignments. Ids that match no
// record are tolerated no-ops: no history is written and the id still
// counts as succeeded.
func (s *Service) BulkAssign(ctx context.Context, actor auth.Identity, ids []string, writerID int64, writerName string) (BatchResult, error) {
	if err := s.authorize(actor, OpBulkAssign, true); err != nil {
		return BatchResult{}, err
	}
	if len(ids) == 0 {
		return BatchResult{}, fmt.Errorf("%w: assignment ids are required", ErrValidation)
	}
	if writerID <= 0 || strings.TrimSpace(writerName) == "" {
		return BatchResult{}, fmt.Errorf("%w: writer id and name are required", ErrValidation)
	}

	result := BatchResult{Succeeded: []string{}, Failed: []BatchFailure{}}
	for _, id := range ids {
		entry := domain.HistoryEntry{
			AssignmentID: id,
			Status:       domain.StatusAssigned,
			ChangedBy:    actor.ID,
			Notes:        "Bulk assigned to " + writerName,
			CreatedAt:    s.now(),
		}
		if _, err := s.store.AssignWriter(ctx, id, writerID, writerName, entry); err != nil {
			result.Failed = append(result.Failed, BatchFailure{ID: id, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, nil
}

// BulkDelete removes many assignments and their history in one statement.
// Missing ids are ignored; the count of deleted rows is returned.
func (s *Service) BulkDelete(ctx context.Context, actor auth.Identity, ids []string) (int64, error) {
	if err := s.authorize(actor, OpBulkDelete, true); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: assignment ids are required", ErrValidation)
	}
	deleted, err := s.store.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	return deleted, nil
}

func (s *Service) Delete(ctx context.Context, actor auth.Identity, id string) error {
	if err := s.authorize(actor, OpDelete, true); err != nil {
		return err
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

// ListFilter narrows listings; both fields are optional.
type ListFilter struct {
	Status string
	Search string
}

// ListAll returns every assignment with joined party names. Admin only.
func (s *Service) ListAll(ctx context.Context, actor auth.Identity, filter ListFilter) ([]domain.Assignment, error) {
	if err := s.authorize(actor, OpListAll, true); err != nil {
		return nil, err
	}
	return s.store.List(ctx, repo.AssignmentFilter{
		Status: normalizeStatusFilter(filter.Status),
		Search: strings.TrimSpace(filter.Search),
	})
}

// ListMine returns the caller's own view: a client's posted assignments, or
// a writer's assigned work with PENDING records excluded.
func (s *Service) ListMine(ctx context.Context, actor auth.Identity, filter ListFilter) ([]domain.Assignment, error) {
	if err := s.authorize(actor, OpListMine, true); err != nil {
		return nil, err
	}

	f := repo.AssignmentFilter{
		Status: normalizeStatusFilter(filter.Status),
		Search: strings.TrimSpace(filter.Search),
	}
	switch strings.ToUpper(actor.Role) {
	case string(domain.RoleClient):
		f.ClientID = actor.ID
	case string(domain.RoleWriter):
		f.WriterID = actor.ID
		f.ExcludePending = true
	}
	return s.store.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, actor auth.Identity, id string) (domain.Assignment, error) {
	assignment, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Assignment{}, err
	}
	if err := s.authorize(actor, OpGet, isOwner(assignment, actor)); err != nil {
		return domain.Assignment{}, err
	}
	return assignment, nil
}

// History returns the audit trail in chronological order, under the same
// ownership rule as Get.
func (s *Service) History(ctx context.Context, actor auth.Identity, id string) ([]domain.HistoryEntry, error) {
	assignment, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, OpHistory, isOwner(assignment, actor)); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, id)
}

func (s *Service) authorize(actor auth.Identity, operation string, owner bool) error {
	decision := policy.Evaluate(s.access, policy.Input{
		Authenticated: actor.ID > 0,
		Role:          actor.Role,
		Operation:     operation,
		Owner:         owner,
	})
	if !decision.Allow {
		return fmt.Errorf("%w: %s", ErrForbidden, decision.Reason)
	}
	return nil
}

func isOwner(a domain.Assignment, actor auth.Identity) bool {
	switch strings.ToUpper(actor.Role) {
	case string(domain.RoleClient):
		return a.ClientID == actor.ID
	case string(domain.RoleWriter):
		return isAssignedWriter(a, actor.ID)
	default:
		return false
	}
}

func isAssignedWriter(a domain.Assignment, userID int64) bool {
	return a.AssignedWriterID != nil && *a.AssignedWriterID == userID
}

func normalizeStatusFilter(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return ""
	}
	return strings.ToUpper(raw)
}
