package order

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines data access for orders.
// Lookups return (nil, nil) when no row matches.
type Repository interface {
	// CreateOrder persists the order and its items in one transaction. With
	// decrementStock each item's quantity is subtracted from its product in the
	// same transaction, without a floor.
	CreateOrder(ctx context.Context, o *Order, decrementStock bool) error

	// GetOrder retrieves an order with its items, product summaries and creator.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// ListOrders returns matching orders, newest first, with items and product summaries.
	ListOrders(ctx context.Context, f Filter) ([]*Order, error)

	// UpdateOrder writes o.Status and o.CustomerName provided the stored status
	// is still prevStatus. With decrementStock the items of o are subtracted from
	// stock in the same transaction. It reports false when the order is gone.
	UpdateOrder(ctx context.Context, o *Order, prevStatus OrderStatus, decrementStock bool) (bool, error)

	// DeleteOrder removes the order's items and then the order. Stock is untouched.
	DeleteOrder(ctx context.Context, id string) (bool, error)

	CountOrders(ctx context.Context, q StatsQuery) (int, error)
	SumRevenue(ctx context.Context, q StatsQuery) (decimal.Decimal, error)
}
