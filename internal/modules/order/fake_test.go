package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// memRepo is an in-memory Repository. Products are modelled by their stock
// alone; a decrement touching an unknown product fails the whole write.
type memRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*Order
	stock  map[uuid.UUID]int
	now    func() time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders: map[uuid.UUID]*Order{},
		stock:  map[uuid.UUID]int{},
		now:    time.Now,
	}
}

func (m *memRepo) addProduct(stock int) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.stock[id] = stock
	return id
}

func (m *memRepo) stockOf(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[id]
}

func (m *memRepo) removeProduct(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stock, id)
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// decrement applies every item or none; callers hold mu.
func (m *memRepo) decrement(items []*OrderItem) error {
	for _, item := range items {
		if _, ok := m.stock[item.ProductID]; !ok {
			return fmt.Errorf("%w: %s", ErrProductMissing, item.ProductID)
		}
	}
	for _, item := range items {
		m.stock[item.ProductID] -= item.Quantity
	}
	return nil
}

func (m *memRepo) CreateOrder(ctx context.Context, o *Order, decrementStock bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return fmt.Errorf("insert order: %w", &pq.Error{Code: "23505", Constraint: "orders_order_number_key"})
		}
	}
	if decrementStock {
		if err := m.decrement(o.Items); err != nil {
			return err
		}
	}
	o.CreatedAt = m.now()
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *memRepo) GetOrder(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[uid]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (m *memRepo) ListOrders(ctx context.Context, f Filter) ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Order{}
	for _, o := range m.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (m *memRepo) UpdateOrder(ctx context.Context, o *Order, prevStatus OrderStatus, decrementStock bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok {
		return false, nil
	}
	if stored.Status != prevStatus {
		return false, ErrStatusChanged
	}
	if decrementStock {
		if err := m.decrement(stored.Items); err != nil {
			return false, err
		}
	}
	stored.Status = o.Status
	stored.CustomerName = o.CustomerName
	stored.UpdatedAt = m.now()
	o.UpdatedAt = stored.UpdatedAt
	return true, nil
}

func (m *memRepo) DeleteOrder(ctx context.Context, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[uid]; !ok {
		return false, nil
	}
	delete(m.orders, uid)
	return true, nil
}

func (m *memRepo) matching(q StatsQuery) []*Order {
	var out []*Order
	for _, o := range m.orders {
		if q.UserID != nil && o.UserID != *q.UserID {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		if !q.Since.IsZero() && o.CreatedAt.Before(q.Since) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (m *memRepo) CountOrders(ctx context.Context, q StatsQuery) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(q)), nil
}

func (m *memRepo) SumRevenue(ctx context.Context, q StatsQuery) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, o := range m.matching(q) {
		sum = sum.Add(o.TotalAmount)
	}
	return sum, nil
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = make([]*OrderItem, len(o.Items))
	for i, item := range o.Items {
		it := *item
		cp.Items[i] = &it
	}
	return &cp
}

// fixedNumbers replays the given numbers, repeating the last one.
type fixedNumbers struct {
	mu      sync.Mutex
	numbers []string
	calls   int
}

func (f *fixedNumbers) Next(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.numbers[min(f.calls, len(f.numbers)-1)]
	f.calls++
	return n, nil
}

// seqNumbers hands out ORD-<day>-NNNNNN numbers from a local counter.
type seqNumbers struct {
	mu  sync.Mutex
	n   int64
	err error
}

func (s *seqNumbers) Next(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.n++
	return formatNumber("20260101", s.n), nil
}
