package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
	"github.com/lancehub-labs/lancehub-go/internal/repo"
	"github.com/lancehub-labs/lancehub-go/internal/service/users"
)

type writerAPI struct {
	logger *slog.Logger
	users  *users.Service
}

func newWriterAPI(logger *slog.Logger, users *users.Service) *writerAPI {
	return &writerAPI{logger: logger, users: users}
}

func (api *writerAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/writers", api.handleList)
	mux.HandleFunc("GET /api/writers/pending", api.handleListPending)
	mux.HandleFunc("PUT /api/writers/{id}/approve", api.handleApprove)
	mux.HandleFunc("PUT /api/writers/{id}/reject", api.handleReject)
}

func writerProfileJSON(p domain.WriterProfile) map[string]any {
	return map[string]any{
		"user_id":            p.UserID,
		"name":               p.Name,
		"email":              p.Email,
		"rating":             p.Rating,
		"bio":                p.Bio,
		"specialties":        p.Specialties,
		"active_assignments": p.ActiveAssignments,
		"status":             p.Status,
		"created_at":         p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (api *writerAPI) list(w http.ResponseWriter, r *http.Request, pendingOnly bool) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	profiles, err := api.users.ListWriters(r.Context(), actor, pendingOnly)
	if err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, writerProfileJSON(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"writers": out})
}

func (api *writerAPI) handleList(w http.ResponseWriter, r *http.Request) {
	api.list(w, r, false)
}

func (api *writerAPI) handleListPending(w http.ResponseWriter, r *http.Request) {
	api.list(w, r, true)
}

func (api *writerAPI) review(w http.ResponseWriter, r *http.Request, approve bool) {
	actor, ok := identityOr401(w, r)
	if !ok {
		return
	}

	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || userID <= 0 {
		writeMessage(w, r, http.StatusBadRequest, "Invalid writer id")
		return
	}

	if err := api.users.ReviewWriter(r.Context(), actor, userID, approve); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeMessage(w, r, http.StatusNotFound, "Writer not found")
			return
		}
		writeServiceError(api.logger, w, r, err)
		return
	}
	if approve {
		writeMessage(w, r, http.StatusOK, "Writer approved successfully")
		return
	}
	writeMessage(w, r, http.StatusOK, "Writer rejected")
}

func (api *writerAPI) handleApprove(w http.ResponseWriter, r *http.Request) {
	api.review(w, r, true)
}

func (api *writerAPI) handleReject(w http.ResponseWriter, r *http.Request) {
	api.review(w, r, false)
}
