package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ---- Shelf ----

type shelfPostgres struct{ db *sql.DB }

func NewShelfPostgresRepository(db *sql.DB) ShelfRepository { return &shelfPostgres{db: db} }

const shelfColumns = `id,vendor_id,name,status,created_at,updated_at`

func (r *shelfPostgres) CreateShelf(ctx context.Context, s *Shelf) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO shelves (id,vendor_id,name,status) VALUES ($1,$2,$3,$4)
		RETURNING created_at,updated_at`,
		s.ID, s.VendorID, s.Name, s.Status).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *shelfPostgres) GetShelf(ctx context.Context, id string) (*Shelf, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	s, err := scanShelf(r.db.QueryRowContext(ctx,
		`SELECT `+shelfColumns+` FROM shelves WHERE id=$1`, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *shelfPostgres) ListShelves(ctx context.Context, vendorIDs []uuid.UUID) ([]*Shelf, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shelfColumns+` FROM shelves
		WHERE ($1::uuid[] IS NULL OR vendor_id = ANY($1::uuid[]))
		ORDER BY created_at DESC`, uuidArray(vendorIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shelves := []*Shelf{}
	for rows.Next() {
		s, err := scanShelf(rows)
		if err != nil {
			return nil, err
		}
		shelves = append(shelves, s)
	}
	return shelves, rows.Err()
}

func (r *shelfPostgres) UpdateShelf(ctx context.Context, s *Shelf) error {
	return r.db.QueryRowContext(ctx, `
		UPDATE shelves SET vendor_id=$2, name=$3, status=$4, updated_at=NOW()
		WHERE id=$1 RETURNING updated_at`,
		s.ID, s.VendorID, s.Name, s.Status).
		Scan(&s.UpdatedAt)
}

func (r *shelfPostgres) DeleteShelf(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, `DELETE FROM shelves WHERE id=$1`, id)
}

func scanShelf(row rowScanner) (*Shelf, error) {
	s := &Shelf{}
	if err := row.Scan(&s.ID, &s.VendorID, &s.Name, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

// ---- Product ----

type productPostgres struct{ db *sql.DB }

func NewProductPostgresRepository(db *sql.DB) ProductRepository { return &productPostgres{db: db} }

const productColumns = `id,vendor_id,name,description,price,stock,low_stock_at,barcode,category,created_at,updated_at`

func (r *productPostgres) CreateProduct(ctx context.Context, p *Product) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO products (id,vendor_id,name,description,price,stock,low_stock_at,barcode,category)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at,updated_at`,
		p.ID, p.VendorID, p.Name, p.Description, p.Price,
		p.Stock, p.LowStockAt, nullString(p.Barcode), p.Category).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *productPostgres) GetProduct(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, uid)
}

func (r *productPostgres) GetProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	return r.getOne(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE barcode=$1 ORDER BY created_at ASC LIMIT 1`, barcode)
}

func (r *productPostgres) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE ($1::uuid[] IS NULL OR vendor_id = ANY($1::uuid[]))
		  AND ($2 = FALSE OR stock <= low_stock_at)
		  AND ($3 = '' OR category = $3)
		ORDER BY name ASC`,
		uuidArray(f.VendorIDs), f.LowStockOnly, f.Category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *productPostgres) UpdateProduct(ctx context.Context, p *Product) error {
	return r.db.QueryRowContext(ctx, `
		UPDATE products
		SET vendor_id=$2, name=$3, description=$4, price=$5, stock=$6,
		    low_stock_at=$7, barcode=$8, category=$9, updated_at=NOW()
		WHERE id=$1 RETURNING updated_at`,
		p.ID, p.VendorID, p.Name, p.Description, p.Price, p.Stock,
		p.LowStockAt, nullString(p.Barcode), p.Category).
		Scan(&p.UpdatedAt)
}

func (r *productPostgres) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, `DELETE FROM products WHERE id=$1`, id)
}

func (r *productPostgres) AdjustStock(ctx context.Context, id string, delta int) (*Product, int, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, 0, nil
	}
	// the row lock taken by the subselect serialises concurrent adjustments;
	// the sum is taken in numeric so any int64 delta saturates instead of overflowing
	row := r.db.QueryRowContext(ctx, `
		UPDATE products p
		SET stock = GREATEST(0, LEAST(2147483647, old.stock::numeric + $2::numeric))::int, updated_at = NOW()
		FROM (SELECT id, stock FROM products WHERE id = $1 FOR UPDATE) old
		WHERE p.id = old.id
		RETURNING p.id,p.vendor_id,p.name,p.description,p.price,p.stock,p.low_stock_at,
		          p.barcode,p.category,p.created_at,p.updated_at,old.stock`,
		uid, delta)

	p := &Product{}
	var barcode sql.NullString
	var previous int
	err = row.Scan(&p.ID, &p.VendorID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.LowStockAt, &barcode, &p.Category, &p.CreatedAt, &p.UpdatedAt, &previous)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	p.Barcode = barcode.String
	return p, previous, nil
}

func (r *productPostgres) getOne(ctx context.Context, query string, arg interface{}) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func scanProduct(row rowScanner) (*Product, error) {
	p := &Product{}
	var barcode sql.NullString
	if err := row.Scan(&p.ID, &p.VendorID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.LowStockAt, &barcode, &p.Category, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Barcode = barcode.String
	return p, nil
}

// ---- helpers ----

func deleteByID(ctx context.Context, db *sql.DB, query, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	res, err := db.ExecContext(ctx, query, uid)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// uuidArray encodes ids for a uuid[] parameter; nil stays SQL NULL.
func uuidArray(ids []uuid.UUID) interface{} {
	if ids == nil {
		return pq.StringArray(nil)
	}
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
