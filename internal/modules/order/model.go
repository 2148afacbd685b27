package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusDraft     OrderStatus = "DRAFT"
	StatusWaiting   OrderStatus = "WAITING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// Order is a sale recorded by a cashier. TotalAmount is fixed at creation.
type Order struct {
	ID           uuid.UUID       `json:"id"`
	OrderNumber  string          `json:"orderNumber"`
	Status       OrderStatus     `json:"status"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	UserID       uuid.UUID       `json:"userId"`
	CustomerName string          `json:"customerName,omitempty"`
	Items        []*OrderItem    `json:"items"`
	User         *UserSummary    `json:"user,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// OrderItem is a single line item. UnitPrice is a snapshot taken at order time.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
	Product   *ProductSummary `json:"product,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ProductSummary is the part of a product shown alongside its order lines.
type ProductSummary struct {
	ID       uuid.UUID `json:"id"`
	VendorID uuid.UUID `json:"vendorId"`
	Name     string    `json:"name"`
	Barcode  string    `json:"barcode,omitempty"`
}

// UserSummary identifies the cashier who created an order.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// ItemInput is one requested line of a new order.
type ItemInput struct {
	ProductID string          `json:"productId" validate:"required,uuid"`
	Quantity  int             `json:"quantity" validate:"gt=0,lte=2147483647"`
	Price     decimal.Decimal `json:"price"`
}

// CreateOrderRequest is the payload for the create, draft and hold endpoints.
type CreateOrderRequest struct {
	Items        []ItemInput `json:"items" validate:"dive"`
	CustomerName string      `json:"customerName" validate:"max=255"`
}

// UpdateOrderRequest changes status and/or customer name; nil fields are left alone.
type UpdateOrderRequest struct {
	Status       *string `json:"status"`
	CustomerName *string `json:"customerName" validate:"omitempty,max=255"`
}

// Filter narrows ListOrders. A nil UserID lists every user's orders.
type Filter struct {
	UserID *uuid.UUID
	Status OrderStatus
}

// StatsQuery selects the orders counted by one statistic.
type StatsQuery struct {
	UserID *uuid.UUID
	Status OrderStatus
	Since  time.Time
}

// Stats summarises orders for the dashboard. Sums are zero, never null, when nothing matches.
type Stats struct {
	TotalOrders      int             `json:"totalOrders"`
	ConfirmedCount   int             `json:"confirmedCount"`
	WaitingCount     int             `json:"waitingCount"`
	DraftCount       int             `json:"draftCount"`
	CancelledCount   int             `json:"cancelledCount"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	RevenueThisMonth decimal.Decimal `json:"revenueThisMonth"`
	OrdersThisMonth  int             `json:"ordersThisMonth"`
}
