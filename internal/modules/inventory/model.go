package inventory

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ShelfStatus string

const (
	ShelfActive   ShelfStatus = "ACTIVE"
	ShelfInactive ShelfStatus = "INACTIVE"
)

// Shelf is a display location belonging to one vendor.
type Shelf struct {
	ID        uuid.UUID   `json:"id"`
	VendorID  uuid.UUID   `json:"vendorId"`
	Name      string      `json:"name"`
	Status    ShelfStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Product is a vendor's sellable item. Stock never drops below zero through
// direct adjustments; order confirmation may still oversell.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	VendorID    uuid.UUID       `json:"vendorId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	LowStockAt  int             `json:"lowStockAt"`
	Barcode     string          `json:"barcode,omitempty"`
	Category    string          `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// maxStock is the largest value the stock column holds.
const maxStock = math.MaxInt32

// clampStock returns current+delta limited to [0, maxStock] without overflowing.
func clampStock(current, delta int) int {
	switch {
	case delta <= -maxStock:
		return 0
	case delta >= maxStock:
		return maxStock
	}
	return min(maxStock, max(0, current+delta))
}

// IsLowStock reports whether stock has reached the product's threshold.
func (p *Product) IsLowStock() bool { return p.Stock <= p.LowStockAt }

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	// VendorIDs nil lists every vendor; an empty non-nil slice matches nothing.
	VendorIDs    []uuid.UUID
	LowStockOnly bool
	Category     string
}

const defaultLowStockAt = 5
