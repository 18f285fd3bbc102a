package main

import (
	"log/slog"
	"net/http"

	"github.com/lancehub-labs/lancehub-go/internal/domain"
	"github.com/lancehub-labs/lancehub-go/internal/platform/auth"
	"github.com/lancehub-labs/lancehub-go/internal/service/users"
)

type authAPI struct {
	logger *slog.Logger
	users  *users.Service
}

func newAuthAPI(logger *slog.Logger, users *users.Service) *authAPI {
	return &authAPI{logger: logger, users: users}
}

func (api *authAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", api.handleRegister)
	mux.HandleFunc("POST /api/auth/login", api.handleLogin)
	mux.HandleFunc("GET /api/auth/me", api.handleMe)
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=2"`
	Role     string `json:"role" validate:"required,oneof=CLIENT WRITER client writer"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func userJSON(u domain.User) map[string]any {
	return map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"role":  u.Role,
	}
}

func (api *authAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	session, err := api.users.Register(r.Context(), users.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}

	body := map[string]any{
		"message": "User registered successfully",
		"token":   session.Token,
		"user":    userJSON(session.User),
	}
	if session.User.Role == domain.RoleWriter {
		body["message"] = "Registration received, awaiting approval"
	}
	writeJSON(w, http.StatusCreated, body)
}

func (api *authAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	session, err := api.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   session.Token,
		"user":    userJSON(session.User),
	})
}

func (api *authAPI) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	account, err := api.users.Me(r.Context(), identity.ID)
	if err != nil {
		writeServiceError(api.logger, w, r, err)
		return
	}

	body := userJSON(account.User)
	if account.Writer != nil {
		body["writer"] = map[string]any{
			"rating":             account.Writer.Rating,
			"bio":                account.Writer.Bio,
			"specialties":        account.Writer.Specialties,
			"active_assignments": account.Writer.ActiveAssignments,
			"status":             account.Writer.Status,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": body})
}
