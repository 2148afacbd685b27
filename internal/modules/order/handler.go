package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/georgemunganga/shelfwise/internal/modules/auth"
	"github.com/georgemunganga/shelfwise/internal/modules/user"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Handler exposes order HTTP endpoints.
type Handler struct {
	service     Service
	multiTenant bool
}

// NewHandler creates an order handler. With multiTenant set, lists and stats
// only ever cover the calling user's orders.
func NewHandler(service Service, multiTenant bool) *Handler {
	return &Handler{service: service, multiTenant: multiTenant}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Get("/", h.listOrders) // ?status=CONFIRMED
		r.Get("/draft", h.listDrafts)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.getOrder)
		r.Get("/{id}/pdf", h.getReceipt)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(user.RoleAdmin, user.RoleStaff))
			r.Post("/", h.createOrder)
			r.Post("/draft", h.createDraft)
			r.Post("/hold", h.createHeld)
			r.Put("/{id}", h.updateOrder)
			r.Delete("/{id}", h.deleteOrder)
		})
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	u := auth.CurrentUser(r.Context())
	f := Filter{
		UserID: h.tenant(u),
		Status: OrderStatus(strings.ToUpper(r.URL.Query().Get("status"))),
	}
	orders, err := h.service.ListOrders(r.Context(), f)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) listDrafts(w http.ResponseWriter, r *http.Request) {
	u := auth.CurrentUser(r.Context())
	orders, err := h.service.ListDraftOrders(r.Context(), u.ID)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.GetOrderStats(r.Context(), h.tenant(auth.CurrentUser(r.Context())))
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"stats": st})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) getReceipt(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := RenderReceipt(&buf, o); err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=order_%s.pdf", o.OrderNumber))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.service.CreateOrder)
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.service.CreateDraftOrder)
}

func (h *Handler) createHeld(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.service.CreateHeldOrder)
}

type createFunc func(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*Order, error)

func (h *Handler) create(w http.ResponseWriter, r *http.Request, fn createFunc) {
	var req CreateOrderRequest
	if !decode(w, r, &req) {
		return
	}
	o, err := fn(r.Context(), auth.CurrentUser(r.Context()).ID, req)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.loadOrder(w, r); !ok {
		return
	}
	var req UpdateOrderRequest
	if !decode(w, r, &req) {
		return
	}
	o, err := h.service.UpdateOrder(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	if o == nil {
		fail(w, http.StatusNotFound, "Order not found")
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.loadOrder(w, r); !ok {
		return
	}
	deleted, err := h.service.DeleteOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	if !deleted {
		fail(w, http.StatusNotFound, "Order not found")
		return
	}
	respond(w, http.StatusOK, map[string]bool{"success": true})
}

// loadOrder fetches the {id} order and checks the caller may see it.
func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request) (*Order, bool) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return nil, false
	}
	if o == nil {
		fail(w, http.StatusNotFound, "Order not found")
		return nil, false
	}
	if !auth.CanAccessOrder(auth.CurrentUser(r.Context()), o.UserID) {
		fail(w, http.StatusForbidden, "Forbidden")
		return nil, false
	}
	return o, true
}

// tenant returns the user filter for lists and stats: the caller in
// multi-tenant mode, otherwise nobody for admins and the caller for everyone else.
func (h *Handler) tenant(u *user.User) *uuid.UUID {
	if !h.multiTenant && u.IsAdmin() {
		return nil
	}
	id := u.ID
	return &id
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
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
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrProductMissing):
		return http.StatusNotFound
	case errors.Is(err, ErrStatusChanged):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition):
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
