package inventory

import (
	"encoding/json"
	"errors"
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

// Handler exposes inventory HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/shelves", func(r chi.Router) {
		r.Post("/", h.createShelf)
		r.Get("/", h.listShelves) // ?vendorId=...
		r.Get("/{id}", h.getShelf)
		r.Put("/{id}", h.updateShelf)
		r.With(auth.RequireRole(user.RoleAdmin)).Delete("/{id}", h.deleteShelf)
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Post("/", h.createProduct)
		r.Get("/", h.listProducts) // ?vendorId=&lowStockOnly=true&category=
		r.Get("/barcode/{barcode}", h.getProductByBarcode)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
		r.Patch("/{id}/stock", h.updateStock)
	})
}

// ---- Shelves ----

func (h *Handler) createShelf(w http.ResponseWriter, r *http.Request) {
	var req CreateShelfRequest
	if !decode(w, r, &req) {
		return
	}
	if !canWriteVendor(r, req.VendorID) {
		fail(w, http.StatusForbidden, "Forbidden")
		return
	}
	shelf, err := h.service.CreateShelf(r.Context(), req)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{"success": true, "shelf": shelf})
}

func (h *Handler) listShelves(w http.ResponseWriter, r *http.Request) {
	vendorIDs, ok := vendorScope(w, r)
	if !ok {
		return
	}
	shelves, err := h.service.ListShelves(r.Context(), vendorIDs)
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "shelves": shelves})
}

func (h *Handler) getShelf(w http.ResponseWriter, r *http.Request) {
	shelf, ok := h.loadShelf(w, r, false)
	if !ok {
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "shelf": shelf})
}

func (h *Handler) updateShelf(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.loadShelf(w, r, true); !ok {
		return
	}
	var req UpdateShelfRequest
	if !decode(w, r, &req) {
		return
	}
	shelf, err := h.service.UpdateShelf(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	if shelf == nil {
		fail(w, http.StatusNotFound, "Not found")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "shelf": shelf})
}

func (h *Handler) deleteShelf(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteShelf(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		fail(w, http.StatusNotFound, "Not found")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) loadShelf(w http.ResponseWriter, r *http.Request, write bool) (*Shelf, bool) {
	shelf, err := h.service.GetShelf(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if shelf == nil {
		fail(w, http.StatusNotFound, "Not found")
		return nil, false
	}
	if !allowed(r, shelf.VendorID, write) {
		fail(w, http.StatusForbidden, "Forbidden")
		return nil, false
	}
	return shelf, true
}

// ---- Products ----

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decode(w, r, &req) {
		return
	}
	if !canWriteVendor(r, req.VendorID) {
		fail(w, http.StatusForbidden, "Forbidden")
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{"success": true, "product": p})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	vendorIDs, ok := vendorScope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	products, err := h.service.ListProducts(r.Context(), ProductFilter{
		VendorIDs:    vendorIDs,
		LowStockOnly: q.Get("lowStockOnly") == "true",
		Category:     q.Get("category"),
	})
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "products": products})
}

// getProductByBarcode serves the register scanner, so any signed-in user may look up any vendor's product.
func (h *Handler) getProductByBarcode(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProductByBarcode(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		fail(w, http.StatusNotFound, "Not found")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "product": p})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProduct(w, r, false)
	if !ok {
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "product": p})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.loadProduct(w, r, true); !ok {
		return
	}
	var req UpdateProductRequest
	if !decode(w, r, &req) {
		return
	}
	if req.VendorID != nil && !canWriteVendor(r, *req.VendorID) {
		fail(w, http.StatusForbidden, "Forbidden")
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	if p == nil {
		fail(w, http.StatusNotFound, "Not found")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "product": p})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.loadProduct(w, r, true); !ok {
		return
	}
	deleted, err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, statusFor(err), err.Error())
		return
	}
	if !deleted {
		fail(w, http.StatusNotFound, "Not found")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Delta *int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Delta == nil {
		fail(w, http.StatusBadRequest, "Missing delta")
		return
	}
	if _, ok := h.loadProduct(w, r, true); !ok {
		return
	}
	p, err := h.service.UpdateStock(r.Context(), chi.URLParam(r, "id"), *body.Delta)
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		fail(w, http.StatusNotFound, "Not found")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "product": p})
}

func (h *Handler) loadProduct(w http.ResponseWriter, r *http.Request, write bool) (*Product, bool) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if p == nil {
		fail(w, http.StatusNotFound, "Not found")
		return nil, false
	}
	if !allowed(r, p.VendorID, write) {
		fail(w, http.StatusForbidden, "Forbidden")
		return nil, false
	}
	return p, true
}

// ---- helpers ----

// allowed checks vendor ownership, and for writes also that the role is not read-only.
func allowed(r *http.Request, vendorID uuid.UUID, write bool) bool {
	u := auth.CurrentUser(r.Context())
	if write && !auth.CanWrite(u) {
		return false
	}
	return auth.CanAccessVendor(u, vendorID)
}

func canWriteVendor(r *http.Request, vendorID string) bool {
	id, err := uuid.Parse(vendorID)
	if err != nil {
		// let validation report the malformed id
		return true
	}
	return allowed(r, id, true)
}

// vendorScope resolves which vendors a list request may see: admins get all
// (or ?vendorId=), everyone else only the vendors they own.
func vendorScope(w http.ResponseWriter, r *http.Request) ([]uuid.UUID, bool) {
	u := auth.CurrentUser(r.Context())
	if u == nil {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	if !auth.IsAdmin(u) {
		return append([]uuid.UUID{}, u.VendorIDs...), true
	}
	raw := r.URL.Query().Get("vendorId")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid vendorId")
		return nil, false
	}
	return []uuid.UUID{id}, true
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "required" {
			fail(w, http.StatusBadRequest, "Missing required fields: "+verrs[0].Field())
			return false
		}
		fail(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnknownVendor):
		return http.StatusBadRequest
	case errors.Is(err, ErrProductInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]interface{}{"success": false, "message": message})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
