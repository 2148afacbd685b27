package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/shelfwise/internal/platform/database"
	"github.com/georgemunganga/shelfwise/internal/platform/telemetry"
)

const tracerName = "github.com/georgemunganga/shelfwise/internal/modules/order"

// column limits: quantity is an integer, amounts are numeric(12,2)
var maxAmount = decimal.RequireFromString("9999999999.99")

const (
	maxQuantity           = math.MaxInt32
	orderNumberConstraint = "orders_order_number_key"
	maxNumberAttempts     = 5
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrEmptyItems        = fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	ErrInvalidStatus     = fmt.Errorf("%w: unknown status", ErrValidation)
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrProductMissing    = errors.New("product not found")
	ErrStatusChanged     = errors.New("order status changed concurrently")
)

// Service defines the order lifecycle. Callers are expected to have checked
// access before calling; the service performs no authorization of its own.
type Service interface {
	// CreateOrder records a CONFIRMED sale and decrements stock for every item.
	CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*Order, error)

	// CreateDraftOrder parks a sale as DRAFT. Items are required; stock is untouched.
	CreateDraftOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*Order, error)

	// CreateHeldOrder records a WAITING order. Items are required; stock is untouched.
	CreateHeldOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*Order, error)

	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, f Filter) ([]*Order, error)
	ListDraftOrders(ctx context.Context, userID uuid.UUID) ([]*Order, error)

	// UpdateOrder applies a status transition and/or a customer name change.
	// Entering CONFIRMED from any other status decrements stock in the same
	// transaction as the status write. Returns nil when the order does not exist.
	UpdateOrder(ctx context.Context, id string, req UpdateOrderRequest) (*Order, error)

	// DeleteOrder removes the order and its items without restoring stock.
	DeleteOrder(ctx context.Context, id string) (bool, error)

	// GetOrderStats aggregates counts and CONFIRMED revenue, optionally for one user.
	GetOrderStats(ctx context.Context, userID *uuid.UUID) (*Stats, error)
}

type service struct {
	repo    Repository
	numbers NumberGenerator
	now     func() time.Time
}

// NewService creates a new order service.
func NewService(repo Repository, numbers NumberGenerator) Service {
	return &service{repo: repo, numbers: numbers, now: time.Now}
}

// validTransitions defines the allowed status state machine.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusDraft:     {StatusWaiting, StatusConfirmed, StatusCancelled},
	StatusWaiting:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
}

func canTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// willDecrementStock reports whether moving from -> to is a confirmation.
func willDecrementStock(from, to OrderStatus) bool {
	return to == StatusConfirmed && from != StatusConfirmed
}

func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (o *Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "order.CreateOrder")
	defer func() { telemetry.EndSpan(span, err) }()

	return s.create(ctx, userID, req, StatusConfirmed)
}

func (s *service) CreateDraftOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (o *Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "order.CreateDraftOrder")
	defer func() { telemetry.EndSpan(span, err) }()

	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	return s.create(ctx, userID, req, StatusDraft)
}

func (s *service) CreateHeldOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (o *Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "order.CreateHeldOrder")
	defer func() { telemetry.EndSpan(span, err) }()

	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	return s.create(ctx, userID, req, StatusWaiting)
}

// create builds and persists an order in the given initial status. Only a
// CONFIRMED order touches stock.
func (s *service) create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest, status OrderStatus) (*Order, error) {
	items, total, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:           uuid.New(),
		Status:       status,
		TotalAmount:  total,
		UserID:       userID,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Items:        items,
	}
	for _, item := range items {
		item.OrderID = o.ID
	}

	// a counter reset can hand out a number already stored; draw again
	for attempt := 1; ; attempt++ {
		o.OrderNumber, err = s.numbers.Next(ctx)
		if err != nil {
			return nil, err
		}
		err = s.repo.CreateOrder(ctx, o, status == StatusConfirmed)
		if err == nil {
			break
		}
		if database.IsDuplicateKeyOn(err, orderNumberConstraint) && attempt < maxNumberAttempts {
			log.Printf("order: number %s already taken, retrying (attempt %d)", o.OrderNumber, attempt)
			continue
		}
		if database.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrProductMissing, err)
		}
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	if status == StatusConfirmed && len(items) > 0 {
		log.Printf("order: %s confirmed at checkout, stock decremented for %d item(s)", o.OrderNumber, len(items))
	}
	return o, nil
}

// buildItems validates requested lines and computes the order total from
// price snapshots rounded to cents.
func buildItems(in []ItemInput) ([]*OrderItem, decimal.Decimal, error) {
	items := make([]*OrderItem, 0, len(in))
	total := decimal.Zero
	for i, ci := range in {
		pid, err := uuid.Parse(ci.ProductID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("%w: items[%d].productId must be a UUID", ErrValidation, i)
		}
		if ci.Quantity <= 0 || ci.Quantity > maxQuantity {
			return nil, decimal.Zero, fmt.Errorf("%w: items[%d].quantity must be between 1 and %d", ErrValidation, i, maxQuantity)
		}
		if ci.Price.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("%w: items[%d].price must not be negative", ErrValidation, i)
		}

		unitPrice := ci.Price.Round(2)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(ci.Quantity)))
		total = total.Add(lineTotal)
		if total.GreaterThan(maxAmount) {
			return nil, decimal.Zero, fmt.Errorf("%w: order total exceeds %s", ErrValidation, maxAmount)
		}

		items = append(items, &OrderItem{
			ID:        uuid.New(),
			ProductID: pid,
			Quantity:  ci.Quantity,
			UnitPrice: unitPrice,
			Total:     lineTotal,
		})
	}
	return items, total, nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *service) ListOrders(ctx context.Context, f Filter) ([]*Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListOrders(ctx, f)
}

func (s *service) ListDraftOrders(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	return s.repo.ListOrders(ctx, Filter{UserID: &userID, Status: StatusDraft})
}

func (s *service) UpdateOrder(ctx context.Context, id string, req UpdateOrderRequest) (o *Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "order.UpdateOrder")
	defer func() { telemetry.EndSpan(span, err) }()

	o, err = s.repo.GetOrder(ctx, id)
	if err != nil || o == nil {
		return nil, err
	}

	prev := o.Status
	if req.Status != nil {
		next := OrderStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		if !next.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *req.Status)
		}
		if !canTransition(prev, next) {
			return nil, fmt.Errorf("%w: cannot transition order from %s to %s", ErrInvalidTransition, prev, next)
		}
		o.Status = next
	}
	if req.CustomerName != nil {
		o.CustomerName = strings.TrimSpace(*req.CustomerName)
	}

	decrement := willDecrementStock(prev, o.Status)
	ok, err := s.repo.UpdateOrder(ctx, o, prev, decrement)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if decrement {
		log.Printf("order: %s %s -> %s, stock decremented for %d item(s)", o.OrderNumber, prev, o.Status, len(o.Items))
	}
	return o, nil
}

func (s *service) DeleteOrder(ctx context.Context, id string) (ok bool, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "order.DeleteOrder")
	defer func() { telemetry.EndSpan(span, err) }()

	return s.repo.DeleteOrder(ctx, id)
}

func (s *service) GetOrderStats(ctx context.Context, userID *uuid.UUID) (st *Stats, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "order.GetOrderStats")
	defer func() { telemetry.EndSpan(span, err) }()

	// month boundaries follow the server's local time zone
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	st = &Stats{TotalRevenue: decimal.Zero, RevenueThisMonth: decimal.Zero}
	g, gctx := errgroup.WithContext(ctx)

	count := func(dst *int, q StatsQuery) {
		g.Go(func() (err error) {
			*dst, err = s.repo.CountOrders(gctx, q)
			return err
		})
	}
	sum := func(dst *decimal.Decimal, q StatsQuery) {
		g.Go(func() (err error) {
			*dst, err = s.repo.SumRevenue(gctx, q)
			return err
		})
	}

	count(&st.TotalOrders, StatsQuery{UserID: userID})
	count(&st.ConfirmedCount, StatsQuery{UserID: userID, Status: StatusConfirmed})
	count(&st.WaitingCount, StatsQuery{UserID: userID, Status: StatusWaiting})
	count(&st.DraftCount, StatsQuery{UserID: userID, Status: StatusDraft})
	count(&st.CancelledCount, StatsQuery{UserID: userID, Status: StatusCancelled})
	sum(&st.TotalRevenue, StatsQuery{UserID: userID, Status: StatusConfirmed})
	sum(&st.RevenueThisMonth, StatsQuery{UserID: userID, Status: StatusConfirmed, Since: monthStart})
	count(&st.OrdersThisMonth, StatsQuery{UserID: userID, Since: monthStart})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return st, nil
}
