package pos

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/shelfwise/internal/modules/inventory"
	"github.com/georgemunganga/shelfwise/internal/modules/order"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInsufficientTender = fmt.Errorf("%w: amount tendered is less than the total", ErrValidation)
	ErrNotResumable       = errors.New("only DRAFT or WAITING sales can be resumed")
)

// Orders is the part of the order service the register drives.
type Orders interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req order.CreateOrderRequest) (*order.Order, error)
	CreateDraftOrder(ctx context.Context, userID uuid.UUID, req order.CreateOrderRequest) (*order.Order, error)
	CreateHeldOrder(ctx context.Context, userID uuid.UUID, req order.CreateOrderRequest) (*order.Order, error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	ListDraftOrders(ctx context.Context, userID uuid.UUID) ([]*order.Order, error)
	UpdateOrder(ctx context.Context, id string, req order.UpdateOrderRequest) (*order.Order, error)
}

// Products looks up scanned items.
type Products interface {
	GetProductByBarcode(ctx context.Context, barcode string) (*inventory.Product, error)
}

// Service defines register operations.
type Service interface {
	Checkout(ctx context.Context, cashierID uuid.UUID, req CheckoutRequest) (*Sale, error)
	Park(ctx context.Context, cashierID uuid.UUID, req order.CreateOrderRequest) (*order.Order, error)
	Hold(ctx context.Context, cashierID uuid.UUID, req order.CreateOrderRequest) (*order.Order, error)
	ListParked(ctx context.Context, cashierID uuid.UUID) ([]*order.Order, error)
	GetSale(ctx context.Context, id string) (*order.Order, error)
	// Resume confirms a parked or held sale. It returns nil if the order was deleted meanwhile.
	Resume(ctx context.Context, o *order.Order, req ResumeRequest) (*Sale, error)
	Scan(ctx context.Context, barcode string) (*ScanResult, error)
}

type service struct {
	orders   Orders
	products Products
}

func NewService(orders Orders, products Products) Service {
	return &service{orders: orders, products: products}
}

func (s *service) Checkout(ctx context.Context, cashierID uuid.UUID, req CheckoutRequest) (*Sale, error) {
	sale, err := settle(req.Tender, quote(req.Items))
	if err != nil {
		return nil, err
	}
	sale.Order, err = s.orders.CreateOrder(ctx, cashierID, req.CreateOrderRequest)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *service) Park(ctx context.Context, cashierID uuid.UUID, req order.CreateOrderRequest) (*order.Order, error) {
	return s.orders.CreateDraftOrder(ctx, cashierID, req)
}

func (s *service) Hold(ctx context.Context, cashierID uuid.UUID, req order.CreateOrderRequest) (*order.Order, error) {
	return s.orders.CreateHeldOrder(ctx, cashierID, req)
}

func (s *service) ListParked(ctx context.Context, cashierID uuid.UUID) ([]*order.Order, error) {
	return s.orders.ListDraftOrders(ctx, cashierID)
}

func (s *service) GetSale(ctx context.Context, id string) (*order.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

func (s *service) Resume(ctx context.Context, o *order.Order, req ResumeRequest) (*Sale, error) {
	if o.Status != order.StatusDraft && o.Status != order.StatusWaiting {
		return nil, fmt.Errorf("%w: order %s is %s", ErrNotResumable, o.OrderNumber, o.Status)
	}
	sale, err := settle(req.Tender, o.TotalAmount)
	if err != nil {
		return nil, err
	}

	confirmed := string(order.StatusConfirmed)
	updated, err := s.orders.UpdateOrder(ctx, o.ID.String(), order.UpdateOrderRequest{Status: &confirmed})
	if err != nil || updated == nil {
		return nil, err
	}
	log.Printf("pos: resumed %s from %s", updated.OrderNumber, o.Status)
	sale.Order = updated
	return sale, nil
}

func (s *service) Scan(ctx context.Context, barcode string) (*ScanResult, error) {
	p, err := s.products.GetProductByBarcode(ctx, barcode)
	if err != nil || p == nil {
		return nil, err
	}
	return &ScanResult{Product: p, InStock: p.Stock > 0, LowStock: p.IsLowStock()}, nil
}

// quote prices the requested lines the same way the order service does.
func quote(items []order.ItemInput) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Round(2).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// settle validates the tender against total and fills in the payment details.
func settle(t Tender, total decimal.Decimal) (*Sale, error) {
	sale := &Sale{}
	method := strings.ToUpper(strings.TrimSpace(t.PaymentMethod))
	if method == "" {
		return sale, nil
	}

	sale.PaymentMethod = PaymentMethod(method)
	switch sale.PaymentMethod {
	case PaymentCash:
		if t.AmountTendered == nil {
			return nil, fmt.Errorf("%w: amountTendered is required for CASH", ErrValidation)
		}
		if t.AmountTendered.LessThan(total) {
			return nil, ErrInsufficientTender
		}
		change := t.AmountTendered.Sub(total)
		sale.AmountTendered = t.AmountTendered
		sale.Change = &change
	case PaymentCard, PaymentMobileMoney:
		paid := total
		sale.AmountTendered = &paid
	default:
		return nil, fmt.Errorf("%w: invalid paymentMethod %q (allowed: CASH, CARD, MOBILE_MONEY)", ErrValidation, t.PaymentMethod)
	}
	return sale, nil
}
