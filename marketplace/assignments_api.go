package main

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
	"github.com/lancehub-labs/lancehub-go/internal/platform/auth"
	"github.com/lancehub-labs/lancehub-go/internal/service/assignments"
)

type assignmentAPI struct {
	logger *slog.Logger
	engine *assignments.Service
}

func newAssignmentAPI(logger *slog.Logger, engine *assignments.Service) *assignmentAPI {
	return &assignmentAPI{logger: logger, engine: engine}
}

func (api *assignmentAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/assignments", api.handleListAll)
	mux.HandleFunc("GET /api/assignments/my", api.handleListMine)
	mux.HandleFunc("POST /api/assignments", api.handleCreate)
	mux.HandleFunc("POST /api/assignments/bulk-assign", api.handleBulkAssign)
	mux.HandleFunc("POST /api/assignments/bulk-delete", api.handleBulkDelete)

	mux.HandleFunc("GET /api/assignments/{id}", api.handleGet)
	mux.HandleFunc("GET /api/assignments/{id}/history", api.handleHistory)
	mux.HandleFunc("PUT /api/assignments/{id}/assign", api.handleAssignWriter)
	mux.HandleFunc("PUT /api/assignments/{id}/status", api.handleUpdateStatus)
	mux.HandleFunc("DELETE /api/assignments/{id}", api.handleDelete)
}

type createAssignmentRequest struct {
	Title        string  `json:"title" validate:"required,min=3"`
	Description  string  `json:"description" validate:"required,min=10"`
	Amount       float64 `json:"amount" validate:"required,min=50"`
	Deadline     string  `json:"deadline" validate:"required"`
	Requirements string  `json:"requirements" validate:"omitempty"`
}

type assignWriterRequest struct {
	WriterID   int64  `json:"writer_id" validate:"required,gt=0"`
	WriterName string `json:"writer_name" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING ASSIGNED IN_PROGRESS COMPLETED PAID"`
	Notes  string `json:"notes" validate:"omitempty,max=500"`
}

type bulkAssignRequest struct {
	AssignmentIDs []string `json:"assignment_ids" validate:"required,min=1,dive,required"`
	WriterID      int64    `json:"writer_id" validate:"required,gt=0"`
	WriterName    string   `json:"writer_name" validate:"required"`
}

type bulkDeleteRequest struct {
	AssignmentIDs []string `json:"assignment_ids" validate:"required,min=1,dive,required"`
}

// assignmentJSON serializes an assignment. When ownerView is set the status
// reflects payment: a paid assignment always presents as PAID.
func assignmentJSON(a domain.Assignment, ownerView bool) map[string]any {
	status := a.Status
	if ownerView {
		status = a.DisplayStatus()
	}
	body := map[string]any{
		"id":           a.ID,
		"client_id":    a.ClientID,
		"title":        a.Title,
		"description":  a.Description,
		"status":       status,
		"amount":       a.Amount,
		"deadline":     a.Deadline.UTC().Format(time.RFC3339),
		"requirements": a.Requirements,
		"paid":         a.Paid,
		"created_at":   a.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":   a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.AssignedWriterID != nil {
		body["assigned_writer_id"] = *a.AssignedWriterID
		body["writer_name"] = a.WriterName
	}
	if a.PaidAt != nil {
		body["paid_at"] = a.PaidAt.UTC().Format(time.RFC3339)
	}
	if a.ClientName != "" {
		body["client_name"] = a.ClientName
		body["client_email"] = a.ClientEmail
	}
	if a.WriterEmail != "" {
		body["writer_email"] = a.WriterEmail
	}
	return body
}

func historyJSON(entries []domain.HistoryEntry) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"id":            e.ID,
			"assignment_id": e.AssignmentID,
			"status":        e.Status,
			"changed_by":    e.ChangedBy,
			"notes":         e.Notes,
			"created_at":    e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func identityOr401(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, r, http.StatusUnauthorized, "Authentication required")
	}
	return identity, ok
}

func (api *assignmentAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	var req createAssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		deadline, err = time.Parse("2006-01-02", req.Deadline)
	}
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	created, err := api.engine.Create(r.Context(), actor, assignments.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Amount:       req.Amount,
		Deadline:     deadline,
		Requirements: req.Requirements,
	})
	if err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Assignment created successfully",
		"assignment": assignmentJSON(created, true),
	})
}

func (api *assignmentAPI) handleListAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	list, err := api.engine.ListAll(r.Context(), actor, assignments.ListFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(list))
	for _, a := range list {
		out = append(out, assignmentJSON(a, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": out})
}

func (api *assignmentAPI) handleListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	list, err := api.engine.ListMine(r.Context(), actor, assignments.ListFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	ownerView := strings.EqualFold(actor.Role, string(domain.RoleClient))
	out := make([]map[string]any, 0, len(list))
	for _, a := range list {
		out = append(out, assignmentJSON(a, ownerView))
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": out})
}

func (api *assignmentAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	a, err := api.engine.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	ownerView := strings.EqualFold(actor.Role, string(domain.RoleClient))
	writeJSON(w, http.StatusOK, map[string]any{"assignment": assignmentJSON(a, ownerView)})
}

func (api *assignmentAPI) handleHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	entries, err := api.engine.History(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": historyJSON(entries)})
}

func (api *assignmentAPI) handleAssignWriter(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	var req assignWriterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	if err := api.engine.AssignWriter(r.Context(), actor, r.PathValue("id"), req.WriterID, req.WriterName); err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "Writer assigned successfully")
}

func (api *assignmentAPI) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	status, err := domain.ParseAssignmentStatus(req.Status)
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	if err := api.engine.UpdateStatus(r.Context(), actor, r.PathValue("id"), status, req.Notes); err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "Status updated successfully")
}

func (api *assignmentAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	if err := api.engine.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, "Assignment deleted successfully")
}

func (api *assignmentAPI) handleBulkAssign(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	var req bulkAssignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	result, err := api.engine.BulkAssign(r.Context(), actor, req.AssignmentIDs, req.WriterID, req.WriterName)
	if err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Bulk assignment processed",
		"result":  result,
	})
}

func (api *assignmentAPI) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	deleted, err := api.engine.BulkDelete(r.Context(), actor, req.AssignmentIDs)
	if err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Assignments deleted successfully",
		"deleted": deleted,
	})
}
