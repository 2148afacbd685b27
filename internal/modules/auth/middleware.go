package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/georgemunganga/shelfwise/internal/modules/user"
)

// Authenticate resolves the bearer token to a local user and stores it in the request context.
func Authenticate(tokens Service, users user.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				unauthorized(w)
				return
			}
			id, err := tokens.Verify(r.Context(), raw)
			if err != nil {
				unauthorized(w)
				return
			}

			u, err := users.GetOrCreateUser(r.Context(), id.Subject, id.Email)
			switch {
			case errors.Is(err, user.ErrUnauthenticated):
				unauthorized(w)
				return
			case errors.Is(err, user.ErrEmailRequired):
				respond(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
				return
			case err != nil:
				log.Printf("auth: resolve subject %s: %v", id.Subject, err)
				respond(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
				return
			}

			next.ServeHTTP(w, r.WithContext(user.NewContext(r.Context(), u)))
		})
	}
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := CurrentUser(r.Context())
			if u == nil {
				unauthorized(w)
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respond(w, http.StatusForbidden, map[string]string{"message": "Forbidden - Insufficient permissions"})
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func unauthorized(w http.ResponseWriter) {
	respond(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
