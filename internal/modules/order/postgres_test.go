package order

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/shelfwise/internal/platform/database/dbtest"
)

func seedProduct(t *testing.T, db *sql.DB, vendorID uuid.UUID, stock int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO products (id, vendor_id, name, price, stock) VALUES ($1, $2, $3, 10, $4)`,
		id, vendorID, "product "+id.String()[:8], stock)
	require.NoError(t, err)
	return id
}

func stockOf(t *testing.T, db *sql.DB, id uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), `SELECT stock FROM products WHERE id=$1`, id).Scan(&n))
	return n
}

func TestPostgres_DraftConfirmDelete(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	userID, vendorID := dbtest.SeedVendor(t, db)
	p := seedProduct(t, db, vendorID, 5)
	svc := NewService(NewPostgresRepository(db), NewSequenceNumberGenerator(db))

	draft, err := svc.CreateDraftOrder(ctx, userID, CreateOrderRequest{Items: []ItemInput{item(p, 2, "10")}})
	require.NoError(t, err)
	assert.Equal(t, 5, stockOf(t, db, p))

	got, err := svc.GetOrder(ctx, draft.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.TotalAmount.Equal(dec("20")))
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, vendorID, got.Items[0].Product.VendorID)
	require.NotNil(t, got.User)

	_, err = svc.UpdateOrder(ctx, draft.ID.String(), UpdateOrderRequest{Status: strPtr("CONFIRMED")})
	require.NoError(t, err)
	assert.Equal(t, 3, stockOf(t, db, p))
	_, err = svc.UpdateOrder(ctx, draft.ID.String(), UpdateOrderRequest{Status: strPtr("CONFIRMED")})
	require.NoError(t, err)
	assert.Equal(t, 3, stockOf(t, db, p))

	ok, err := svc.DeleteOrder(ctx, draft.ID.String())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, stockOf(t, db, p))

	var orphans int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_items WHERE order_id=$1`, draft.ID).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestPostgres_ConfirmRollsBackWhenDecrementFails(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	userID, vendorID := dbtest.SeedVendor(t, db)
	ok, refused := seedProduct(t, db, vendorID, 10), seedProduct(t, db, vendorID, 10)
	svc := NewService(NewPostgresRepository(db), NewSequenceNumberGenerator(db))

	draft, err := svc.CreateDraftOrder(ctx, userID, CreateOrderRequest{
		Items: []ItemInput{item(ok, 2, "1"), item(refused, 3, "1")},
	})
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		CREATE OR REPLACE FUNCTION refuse_stock_update() RETURNS trigger AS $$
		BEGIN RAISE EXCEPTION 'stock update refused'; END $$ LANGUAGE plpgsql`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TRIGGER refuse_stock_update BEFORE UPDATE ON products
		FOR EACH ROW WHEN (OLD.id = '%s') EXECUTE FUNCTION refuse_stock_update()`, refused))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.ExecContext(context.Background(), `DROP TRIGGER IF EXISTS refuse_stock_update ON products`)
	})

	_, err = svc.UpdateOrder(ctx, draft.ID.String(), UpdateOrderRequest{Status: strPtr("CONFIRMED")})
	require.Error(t, err)

	stored, err := svc.GetOrder(ctx, draft.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Equal(t, 10, stockOf(t, db, ok))
	assert.Equal(t, 10, stockOf(t, db, refused))
}

func TestPostgres_CreateOrderOversells(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	userID, vendorID := dbtest.SeedVendor(t, db)
	p := seedProduct(t, db, vendorID, 1)
	svc := NewService(NewPostgresRepository(db), NewSequenceNumberGenerator(db))

	o, err := svc.CreateOrder(ctx, userID, CreateOrderRequest{Items: []ItemInput{item(p, 3, "2.50")}})
	require.NoError(t, err)
	assert.Equal(t, -2, stockOf(t, db, p))
	assert.Regexp(t, `^ORD-\d{8}-\d{6}$`, o.OrderNumber)

	_, err = svc.CreateOrder(ctx, userID, CreateOrderRequest{Items: []ItemInput{item(uuid.New(), 1, "1")}})
	assert.ErrorIs(t, err, ErrProductMissing)
}

func TestPostgres_StatsWithoutOrders(t *testing.T) {
	db := dbtest.Open(t)
	userID, _ := dbtest.SeedVendor(t, db)
	svc := NewService(NewPostgresRepository(db), NewSequenceNumberGenerator(db))

	for _, scope := range []*uuid.UUID{nil, &userID} {
		st, err := svc.GetOrderStats(context.Background(), scope)
		require.NoError(t, err)
		assert.Zero(t, st.TotalOrders)
		assert.Zero(t, st.OrdersThisMonth)
		assert.True(t, st.TotalRevenue.IsZero())
		assert.True(t, st.RevenueThisMonth.IsZero())
	}
}

func TestPostgres_ListOrdersFilters(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	me, vendorID := dbtest.SeedVendor(t, db)
	other, _ := dbtest.SeedVendor(t, db)
	p := seedProduct(t, db, vendorID, 100)
	svc := NewService(NewPostgresRepository(db), NewSequenceNumberGenerator(db))
	req := CreateOrderRequest{Items: []ItemInput{item(p, 1, "1")}}

	_, err := svc.CreateOrder(ctx, me, req)
	require.NoError(t, err)
	_, err = svc.CreateDraftOrder(ctx, me, req)
	require.NoError(t, err)
	_, err = svc.CreateDraftOrder(ctx, other, req)
	require.NoError(t, err)

	all, err := svc.ListOrders(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := svc.ListOrders(ctx, Filter{UserID: &me})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	drafts, err := svc.ListDraftOrders(ctx, me)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Len(t, drafts[0].Items, 1)
}

func TestPostgres_TakenOrderNumberIsRetried(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	userID, vendorID := dbtest.SeedVendor(t, db)
	p := seedProduct(t, db, vendorID, 10)
	numbers := &fixedNumbers{numbers: []string{"ORD-20260101-000001", "ORD-20260101-000001", "ORD-20260101-000002"}}
	svc := NewService(NewPostgresRepository(db), numbers)
	req := CreateOrderRequest{Items: []ItemInput{item(p, 1, "1")}}

	_, err := svc.CreateOrder(ctx, userID, req)
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, userID, req)
	require.NoError(t, err)

	assert.Equal(t, "ORD-20260101-000002", second.OrderNumber)
	assert.Equal(t, 8, stockOf(t, db, p))
}
