package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// memStore implements both repositories in memory.
type memStore struct {
	mu         sync.Mutex
	shelves    map[uuid.UUID]*Shelf
	products   map[uuid.UUID]*Product
	vendors    map[uuid.UUID]bool
	referenced map[uuid.UUID]bool
}

func newMemStore() *memStore {
	return &memStore{
		shelves:    map[uuid.UUID]*Shelf{},
		products:   map[uuid.UUID]*Product{},
		vendors:    map[uuid.UUID]bool{},
		referenced: map[uuid.UUID]bool{},
	}
}

func (m *memStore) addVendor() uuid.UUID {
	id := uuid.New()
	m.vendors[id] = true
	return id
}

func fkViolation() error { return &pq.Error{Code: "23503"} }

func inScope(ids []uuid.UUID, id uuid.UUID) bool {
	if ids == nil {
		return true
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (m *memStore) CreateShelf(ctx context.Context, s *Shelf) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.vendors[s.VendorID] {
		return fkViolation()
	}
	s.CreatedAt, s.UpdatedAt = time.Now(), time.Now()
	cp := *s
	m.shelves[s.ID] = &cp
	return nil
}

func (m *memStore) GetShelf(ctx context.Context, id string) (*Shelf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	s, ok := m.shelves[uid]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListShelves(ctx context.Context, vendorIDs []uuid.UUID) ([]*Shelf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Shelf{}
	for _, s := range m.shelves {
		if inScope(vendorIDs, s.VendorID) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) UpdateShelf(ctx context.Context, s *Shelf) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.shelves[s.ID] = &cp
	return nil
}

func (m *memStore) DeleteShelf(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	if _, ok := m.shelves[uid]; !ok {
		return false, nil
	}
	delete(m.shelves, uid)
	return true, nil
}

func (m *memStore) CreateProduct(ctx context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.vendors[p.VendorID] {
		return fkViolation()
	}
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) GetProduct(ctx context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	p, ok := m.products[uid]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Barcode == barcode {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Product{}
	for _, p := range m.products {
		if !inScope(f.VendorIDs, p.VendorID) {
			continue
		}
		if f.LowStockOnly && !p.IsLowStock() {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdateProduct(ctx context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.vendors[p.VendorID] {
		return fkViolation()
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) DeleteProduct(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	if m.referenced[uid] {
		return false, fkViolation()
	}
	if _, ok := m.products[uid]; !ok {
		return false, nil
	}
	delete(m.products, uid)
	return true, nil
}

func (m *memStore) AdjustStock(ctx context.Context, id string, delta int) (*Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, 0, nil
	}
	p, ok := m.products[uid]
	if !ok {
		return nil, 0, nil
	}
	previous := p.Stock
	p.Stock = clampStock(p.Stock, delta)
	cp := *p
	return &cp, previous, nil
}
