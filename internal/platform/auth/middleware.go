package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lancehub-labs/lancehub-go/internal/platform/httpserver"
)

// Middleware resolves the acting identity for every request and rejects
// requests without a valid credential. Paths under SkipPrefixes pass
// through unauthenticated (health checks, registration, login).
type Middleware struct {
	Logger        *slog.Logger
	Authenticator Authenticator
	SkipPrefixes  []string
}

func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range m.SkipPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		identity, err := m.Authenticator.Authenticate(r.Context(), r)
		if err != nil {
			if m.Logger != nil && !errors.Is(err, ErrUnauthenticated) {
				m.Logger.Warn("authentication failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()))
			}
			writeUnauthorized(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"message": "Authentication required"}
	if id, ok := httpserver.RequestIDFromContext(r.Context()); ok {
		body["request_id"] = id
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(body)
}
