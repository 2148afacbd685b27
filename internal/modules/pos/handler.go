package pos

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/georgemunganga/shelfwise/internal/modules/auth"
	"github.com/georgemunganga/shelfwise/internal/modules/order"
	"github.com/georgemunganga/shelfwise/internal/modules/user"
)

var validate = validator.New()

// Handler exposes register HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/pos", func(r chi.Router) {
		r.Use(auth.RequireRole(user.RoleAdmin, user.RoleStaff))
		r.Post("/checkout", h.checkout)
		r.Post("/park", h.park)
		r.Post("/hold", h.hold)
		r.Get("/parked", h.listParked)
		r.Post("/parked/{id}/resume", h.resume)
		r.Get("/scan/{barcode}", h.scan)
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decode(w, r, &req, false) {
		return
	}
	sale, err := h.service.Checkout(r.Context(), auth.CurrentUser(r.Context()).ID, req)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	respond(w, http.StatusCreated, sale)
}

func (h *Handler) park(w http.ResponseWriter, r *http.Request) {
	var req order.CreateOrderRequest
	if !decode(w, r, &req, false) {
		return
	}
	o, err := h.service.Park(r.Context(), auth.CurrentUser(r.Context()).ID, req)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) hold(w http.ResponseWriter, r *http.Request) {
	var req order.CreateOrderRequest
	if !decode(w, r, &req, false) {
		return
	}
	o, err := h.service.Hold(r.Context(), auth.CurrentUser(r.Context()).ID, req)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) listParked(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListParked(r.Context(), auth.CurrentUser(r.Context()).ID)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) resume(w http.ResponseWriter, r *http.Request) {
	var req ResumeRequest
	if !decode(w, r, &req, true) {
		return
	}
	o, err := h.service.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	if o == nil {
		fail(w, http.StatusNotFound, "Order not found")
		return
	}
	if !auth.CanAccessOrder(auth.CurrentUser(r.Context()), o.UserID) {
		fail(w, http.StatusForbidden, "Forbidden")
		return
	}

	sale, err := h.service.Resume(r.Context(), o, req)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	if sale == nil {
		fail(w, http.StatusNotFound, "Order not found")
		return
	}
	respond(w, http.StatusOK, sale)
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Scan(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	if res == nil {
		fail(w, http.StatusNotFound, "Product not found")
		return
	}
	respond(w, http.StatusOK, res)
}

// decode reads a JSON body into dst; an empty body is accepted when optional.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}, optional bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !(optional && errors.Is(err, io.EOF)) {
		fail(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, order.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrProductMissing):
		return http.StatusNotFound
	case errors.Is(err, ErrNotResumable), errors.Is(err, order.ErrStatusChanged):
		return http.StatusConflict
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
