package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/lancehub-labs/lancehub-go/internal/platform/httpserver"
	"github.com/lancehub-labs/lancehub-go/internal/repo"
	"github.com/lancehub-labs/lancehub-go/internal/service/assignments"
	"github.com/lancehub-labs/lancehub-go/internal/service/users"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	body := map[string]any{"message": message}
	if id, ok := httpserver.RequestIDFromContext(r.Context()); ok {
		body["request_id"] = id
	}
	writeJSON(w, status, body)
}

func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	body := map[string]any{"message": "Invalid request", "error": err.Error()}
	if id, ok := httpserver.RequestIDFromContext(r.Context()); ok {
		body["request_id"] = id
	}
	writeJSON(w, http.StatusBadRequest, body)
}

// writeServiceError maps service sentinels onto status codes; anything
// unrecognized is logged and surfaced as a generic 500.
func writeServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		writeMessage(w, r, http.StatusNotFound, "Assignment not found")
	case errors.Is(err, assignments.ErrForbidden), errors.Is(err, users.ErrForbidden):
		writeMessage(w, r, http.StatusForbidden, "Access denied")
	case errors.Is(err, assignments.ErrInvalidTransition):
		writeMessage(w, r, http.StatusBadRequest, "Invalid status transition")
	case errors.Is(err, assignments.ErrValidation), errors.Is(err, users.ErrValidation):
		writeValidationError(w, r, err)
	case errors.Is(err, repo.ErrEmailTaken):
		writeMessage(w, r, http.StatusBadRequest, "User already exists")
	case errors.Is(err, users.ErrInvalidRole):
		writeMessage(w, r, http.StatusBadRequest, "Role must be CLIENT or WRITER")
	case errors.Is(err, users.ErrInvalidCredentials):
		writeMessage(w, r, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, users.ErrWriterNotApproved):
		writeMessage(w, r, http.StatusForbidden, "Writer account pending approval")
	default:
		requestID, _ := httpserver.RequestIDFromContext(r.Context())
		logger.Error("request failed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeMessage(w, r, http.StatusInternalServerError, "Server error")
	}
}
