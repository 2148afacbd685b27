package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the user routes; r must already run the authentication middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/me", h.me)
	r.Put("/api/users/role", h.updateRole)
	r.Get("/api/users", h.listUsers)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u := FromContext(r.Context())
	if u == nil {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "user": u})
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	u := FromContext(r.Context())
	if u == nil {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Role string `json:"role" validate:"required,oneof=ADMIN STAFF VENDOR_VIEW_ONLY"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid role")
		return
	}

	updated, err := h.service.UpdateRole(r.Context(), u.ID.String(), req.Role)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidRole) {
			code = http.StatusBadRequest
		}
		fail(w, code, err.Error())
		return
	}
	if updated == nil {
		fail(w, http.StatusNotFound, "Not found")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "user": updated})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	if !FromContext(r.Context()).IsAdmin() {
		fail(w, http.StatusForbidden, "Forbidden - Admin only")
		return
	}
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "users": users})
}

func fail(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]interface{}{"success": false, "message": message})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
