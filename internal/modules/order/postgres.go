package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `o.id,o.order_number,o.status,o.total_amount,o.user_id,o.customer_name,o.created_at,o.updated_at`

// CreateOrder inserts the order and all its items inside a single transaction.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order, decrementStock bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, order_number, status, total_amount, user_id, customer_name)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderNumber, o.Status, o.TotalAmount, o.UserID, o.CustomerName).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, total)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING created_at`,
			item.ID, o.ID, item.ProductID, item.Quantity, item.UnitPrice, item.Total).
			Scan(&item.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if decrementStock {
		if err := decrementItems(ctx, tx, o.Items); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *postgresRepo) GetOrder(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	o := &Order{}
	var email sql.NullString
	err = r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`, u.email
		FROM orders o LEFT JOIN users u ON u.id = o.user_id
		WHERE o.id=$1`, uid).
		Scan(&o.ID, &o.OrderNumber, &o.Status, &o.TotalAmount, &o.UserID,
			&o.CustomerName, &o.CreatedAt, &o.UpdatedAt, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if email.Valid {
		o.User = &UserSummary{ID: o.UserID, Email: email.String}
	}
	if err := r.attachItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListOrders(ctx context.Context, f Filter) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE ($1::uuid IS NULL OR o.user_id = $1::uuid)
		  AND ($2::text = '' OR o.status = $2)
		ORDER BY o.created_at DESC`,
		nullUUID(f.UserID), string(f.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o := &Order{}
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Status, &o.TotalAmount, &o.UserID,
			&o.CustomerName, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) UpdateOrder(ctx context.Context, o *Order, prevStatus OrderStatus, decrementStock bool) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		UPDATE orders SET status=$2, customer_name=$3, updated_at=NOW()
		WHERE id=$1 AND status=$4
		RETURNING updated_at`,
		o.ID, o.Status, o.CustomerName, prevStatus).
		Scan(&o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, o.ID).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, nil
		}
		return false, ErrStatusChanged
	}
	if err != nil {
		return false, fmt.Errorf("update order: %w", err)
	}

	if decrementStock {
		if err := decrementItems(ctx, tx, o.Items); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteOrder removes the items first, then the order, in one transaction.
func (r *postgresRepo) DeleteOrder(ctx context.Context, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id=$1`, uid); err != nil {
		return false, fmt.Errorf("delete order_items: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id=$1`, uid)
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	return true, tx.Commit()
}

func (r *postgresRepo) CountOrders(ctx context.Context, q StatsQuery) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE ($1::uuid IS NULL OR user_id = $1::uuid)
		  AND ($2::text = '' OR status = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3::timestamptz)`,
		nullUUID(q.UserID), string(q.Status), nullTime(q)).Scan(&n)
	return n, err
}

func (r *postgresRepo) SumRevenue(ctx context.Context, q StatsQuery) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0) FROM orders
		WHERE ($1::uuid IS NULL OR user_id = $1::uuid)
		  AND ($2::text = '' OR status = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3::timestamptz)`,
		nullUUID(q.UserID), string(q.Status), nullTime(q)).Scan(&sum)
	return sum, err
}

// ── helpers ──────────────────────────────────────────────────────────────────

// decrementItems subtracts each item's quantity from its product. A missing
// product aborts the surrounding transaction.
func decrementItems(ctx context.Context, tx *sql.Tx, items []*OrderItem) error {
	for _, item := range items {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1`,
			item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrProductMissing, item.ProductID)
		}
	}
	return nil
}

// attachItems loads the items of every order in one query.
func (r *postgresRepo) attachItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Order, len(orders))
	ids := make(pq.StringArray, 0, len(orders))
	for _, o := range orders {
		o.Items = []*OrderItem{}
		byID[o.ID] = o
		ids = append(ids, o.ID.String())
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.unit_price, i.total, i.created_at,
		       p.id, p.vendor_id, p.name, p.barcode
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1::uuid[])
		ORDER BY i.created_at ASC, i.id ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		item := &OrderItem{}
		var productID, vendorID uuid.NullUUID
		var name, barcode sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.Total, &item.CreatedAt,
			&productID, &vendorID, &name, &barcode); err != nil {
			return err
		}
		if productID.Valid {
			item.Product = &ProductSummary{
				ID:       productID.UUID,
				VendorID: vendorID.UUID,
				Name:     name.String,
				Barcode:  barcode.String,
			}
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullTime(q StatsQuery) sql.NullTime {
	return sql.NullTime{Time: q.Since, Valid: !q.Since.IsZero()}
}
