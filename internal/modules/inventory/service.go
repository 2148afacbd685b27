package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/shelfwise/internal/platform/database"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrUnknownVendor = errors.New("vendor does not exist")
	ErrProductInUse  = errors.New("product is referenced by orders")
)

// Service defines inventory business logic for shelves and products.
type Service interface {
	// Shelf operations
	CreateShelf(ctx context.Context, req CreateShelfRequest) (*Shelf, error)
	GetShelf(ctx context.Context, id string) (*Shelf, error)
	ListShelves(ctx context.Context, vendorIDs []uuid.UUID) ([]*Shelf, error)
	UpdateShelf(ctx context.Context, id string, req UpdateShelfRequest) (*Shelf, error)
	DeleteShelf(ctx context.Context, id string) (bool, error)

	// Product operations
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id string) (bool, error)
	// UpdateStock applies delta clamped to [0, 2147483647]; it never rejects a delta.
	UpdateStock(ctx context.Context, productID string, delta int) (*Product, error)
}

// CreateShelfRequest holds data for creating a shelf.
type CreateShelfRequest struct {
	VendorID string      `json:"vendorId" validate:"required,uuid"`
	Name     string      `json:"name" validate:"required"`
	Status   ShelfStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// UpdateShelfRequest is a partial shelf update.
type UpdateShelfRequest struct {
	Name   *string      `json:"name" validate:"omitempty,min=1"`
	Status *ShelfStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// CreateProductRequest holds data for creating a product.
type CreateProductRequest struct {
	VendorID    string           `json:"vendorId" validate:"required,uuid"`
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Stock       *int             `json:"stock" validate:"required,gte=0,lte=2147483647"`
	LowStockAt  *int             `json:"lowStockAt" validate:"omitempty,gte=0,lte=2147483647"`
	Barcode     string           `json:"barcode"`
	Category    string           `json:"category"`
}

// UpdateProductRequest is a partial product update.
type UpdateProductRequest struct {
	VendorID    *string          `json:"vendorId" validate:"omitempty,uuid"`
	Name        *string          `json:"name" validate:"omitempty,min=1"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0,lte=2147483647"`
	LowStockAt  *int             `json:"lowStockAt" validate:"omitempty,gte=0,lte=2147483647"`
	Barcode     *string          `json:"barcode"`
	Category    *string          `json:"category"`
}

type service struct {
	shelfRepo   ShelfRepository
	productRepo ProductRepository
}

// NewService creates a new inventory service.
func NewService(shelfRepo ShelfRepository, productRepo ProductRepository) Service {
	return &service{
		shelfRepo:   shelfRepo,
		productRepo: productRepo,
	}
}

func (s *service) CreateShelf(ctx context.Context, req CreateShelfRequest) (*Shelf, error) {
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid vendorId", ErrValidation)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	status := req.Status
	if status == "" {
		status = ShelfActive
	}
	if status != ShelfActive && status != ShelfInactive {
		return nil, fmt.Errorf("%w: status must be ACTIVE or INACTIVE", ErrValidation)
	}

	shelf := &Shelf{
		ID:       uuid.New(),
		VendorID: vendorID,
		Name:     name,
		Status:   status,
	}
	if err := s.shelfRepo.CreateShelf(ctx, shelf); err != nil {
		return nil, mapWriteError(err)
	}
	return shelf, nil
}

func (s *service) GetShelf(ctx context.Context, id string) (*Shelf, error) {
	return s.shelfRepo.GetShelf(ctx, id)
}

func (s *service) ListShelves(ctx context.Context, vendorIDs []uuid.UUID) ([]*Shelf, error) {
	if vendorIDs != nil && len(vendorIDs) == 0 {
		return []*Shelf{}, nil
	}
	return s.shelfRepo.ListShelves(ctx, vendorIDs)
}

func (s *service) UpdateShelf(ctx context.Context, id string, req UpdateShelfRequest) (*Shelf, error) {
	shelf, err := s.shelfRepo.GetShelf(ctx, id)
	if err != nil || shelf == nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		shelf.Name = name
	}
	if req.Status != nil {
		if *req.Status != ShelfActive && *req.Status != ShelfInactive {
			return nil, fmt.Errorf("%w: status must be ACTIVE or INACTIVE", ErrValidation)
		}
		shelf.Status = *req.Status
	}
	if err := s.shelfRepo.UpdateShelf(ctx, shelf); err != nil {
		return nil, err
	}
	return shelf, nil
}

func (s *service) DeleteShelf(ctx context.Context, id string) (bool, error) {
	return s.shelfRepo.DeleteShelf(ctx, id)
}

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid vendorId", ErrValidation)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Price == nil || req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be zero or more", ErrValidation)
	}
	if req.Stock == nil || *req.Stock < 0 || *req.Stock > maxStock {
		return nil, fmt.Errorf("%w: stock must be between 0 and %d", ErrValidation, maxStock)
	}
	lowStockAt := defaultLowStockAt
	if req.LowStockAt != nil {
		if *req.LowStockAt < 0 {
			return nil, fmt.Errorf("%w: lowStockAt must be zero or more", ErrValidation)
		}
		lowStockAt = *req.LowStockAt
	}

	p := &Product{
		ID:          uuid.New(),
		VendorID:    vendorID,
		Name:        name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Stock:       *req.Stock,
		LowStockAt:  lowStockAt,
		Barcode:     strings.TrimSpace(req.Barcode),
		Category:    req.Category,
	}
	if err := s.productRepo.CreateProduct(ctx, p); err != nil {
		return nil, mapWriteError(err)
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.productRepo.GetProduct(ctx, id)
}

func (s *service) GetProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, nil
	}
	return s.productRepo.GetProductByBarcode(ctx, barcode)
}

func (s *service) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error) {
	if f.VendorIDs != nil && len(f.VendorIDs) == 0 {
		return []*Product{}, nil
	}
	return s.productRepo.ListProducts(ctx, f)
}

func (s *service) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	p, err := s.productRepo.GetProduct(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}

	if req.VendorID != nil {
		vendorID, err := uuid.Parse(*req.VendorID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid vendorId", ErrValidation)
		}
		p.VendorID = vendorID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		p.Name = name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be zero or more", ErrValidation)
		}
		p.Price = req.Price.Round(2)
	}
	if req.Stock != nil {
		if *req.Stock < 0 || *req.Stock > maxStock {
			return nil, fmt.Errorf("%w: stock must be between 0 and %d", ErrValidation, maxStock)
		}
		p.Stock = *req.Stock
	}
	if req.LowStockAt != nil {
		if *req.LowStockAt < 0 {
			return nil, fmt.Errorf("%w: lowStockAt must be zero or more", ErrValidation)
		}
		p.LowStockAt = *req.LowStockAt
	}
	if req.Barcode != nil {
		p.Barcode = strings.TrimSpace(*req.Barcode)
	}
	if req.Category != nil {
		p.Category = *req.Category
	}

	if err := s.productRepo.UpdateProduct(ctx, p); err != nil {
		return nil, mapWriteError(err)
	}
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) (bool, error) {
	ok, err := s.productRepo.DeleteProduct(ctx, id)
	if err != nil && database.IsForeignKeyViolation(err) {
		return false, ErrProductInUse
	}
	return ok, err
}

func (s *service) UpdateStock(ctx context.Context, productID string, delta int) (*Product, error) {
	p, previous, err := s.productRepo.AdjustStock(ctx, productID, delta)
	if err != nil || p == nil {
		return nil, err
	}
	if delta < -previous || delta > maxStock-previous {
		log.Printf("inventory: stock for product %s clamped at %d (had %d, delta %d)", p.ID, p.Stock, previous, delta)
	}
	return p, nil
}

func mapWriteError(err error) error {
	if database.IsForeignKeyViolation(err) {
		return ErrUnknownVendor
	}
	return err
}
