package inventory

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/shelfwise/internal/platform/database/dbtest"
)

func TestPostgres_AdjustStockClampsUnderConcurrency(t *testing.T) {
	db := dbtest.Open(t)
	_, vendorID := dbtest.SeedVendor(t, db)
	repo := NewProductPostgresRepository(db)
	svc := NewService(NewShelfPostgresRepository(db), repo)

	p, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		VendorID: vendorID.String(), Name: "Flour", Price: price("3.10"), Stock: intPtr(10), Barcode: "777",
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateStock(context.Background(), p.ID.String(), -1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetProduct(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	byBarcode, err := repo.GetProductByBarcode(context.Background(), "777")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byBarcode.ID)

	missing, _, err := repo.AdjustStock(context.Background(), "9b0f3d36-0000-4000-8000-000000000000", 1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgres_AdjustStockSaturatesOutOfRangeDeltas(t *testing.T) {
	db := dbtest.Open(t)
	_, vendorID := dbtest.SeedVendor(t, db)
	svc := NewService(NewShelfPostgresRepository(db), NewProductPostgresRepository(db))

	p, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		VendorID: vendorID.String(), Name: "Salt", Price: price("0.80"), Stock: intPtr(12),
	})
	require.NoError(t, err)

	for _, c := range []struct{ delta, want int }{
		{math.MinInt32 - 1, 0},
		{-5000000000, 0},
		{5000000000, math.MaxInt32},
		{1, math.MaxInt32},
		{math.MinInt64, 0},
		{math.MaxInt64, math.MaxInt32},
	} {
		got, err := svc.UpdateStock(context.Background(), p.ID.String(), c.delta)
		require.NoError(t, err, "delta=%d", c.delta)
		assert.Equal(t, c.want, got.Stock, "delta=%d", c.delta)
	}
}

func TestPostgres_ListProductsFilters(t *testing.T) {
	db := dbtest.Open(t)
	_, a := dbtest.SeedVendor(t, db)
	_, b := dbtest.SeedVendor(t, db)
	svc := NewService(NewShelfPostgresRepository(db), NewProductPostgresRepository(db))

	for _, c := range []struct {
		vendor   string
		name     string
		stock    int
		category string
	}{
		{a.String(), "Low", 1, "dry"},
		{a.String(), "High", 40, "dry"},
		{b.String(), "Other", 0, "fresh"},
	} {
		_, err := svc.CreateProduct(context.Background(), CreateProductRequest{
			VendorID: c.vendor, Name: c.name, Price: price("1"), Stock: intPtr(c.stock), Category: c.category,
		})
		require.NoError(t, err)
	}

	all, err := svc.ListProducts(context.Background(), ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	low, err := svc.ListProducts(context.Background(), ProductFilter{LowStockOnly: true})
	require.NoError(t, err)
	assert.Len(t, low, 2)

	dry, err := svc.ListProducts(context.Background(), ProductFilter{Category: "dry", VendorIDs: nil})
	require.NoError(t, err)
	assert.Len(t, dry, 2)

	scoped, err := svc.ListProducts(context.Background(), ProductFilter{VendorIDs: []uuid.UUID{b}})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Other", scoped[0].Name)
}
