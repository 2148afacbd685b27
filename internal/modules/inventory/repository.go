package inventory

import (
	"context"

	"github.com/google/uuid"
)

// ShelfRepository defines shelf data storage.
// Lookups return (nil, nil) when no row matches.
type ShelfRepository interface {
	CreateShelf(ctx context.Context, s *Shelf) error
	GetShelf(ctx context.Context, id string) (*Shelf, error)
	// ListShelves follows the same vendorIDs convention as ProductFilter.
	ListShelves(ctx context.Context, vendorIDs []uuid.UUID) ([]*Shelf, error)
	UpdateShelf(ctx context.Context, s *Shelf) error
	DeleteShelf(ctx context.Context, id string) (bool, error)
}

// ProductRepository defines product data storage.
// Lookups return (nil, nil) when no row matches.
type ProductRepository interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) (bool, error)
	// AdjustStock applies max(0, stock+delta) in one statement and returns the
	// updated product with the stock it had before.
	AdjustStock(ctx context.Context, id string, delta int) (*Product, int, error)
}
