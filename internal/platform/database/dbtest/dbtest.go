// Package dbtest opens a migrated PostgreSQL database for repository tests.
package dbtest

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/shelfwise/internal/platform/database"
)

// Open connects to TEST_DATABASE_URL, applies migrations and empties every
// table. The test is skipped when the variable is unset.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, database.Migrate(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE order_items, orders, products, shelves, vendors, users CASCADE`)
	require.NoError(t, err)
	return db
}

// SeedVendor inserts a user and a vendor owned by it and returns both ids.
func SeedVendor(t *testing.T, db *sql.DB) (userID, vendorID uuid.UUID) {
	t.Helper()
	userID, vendorID = uuid.New(), uuid.New()
	ctx := context.Background()
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, subject_id, email, role) VALUES ($1, $2, $3, 'STAFF')`,
		userID, "sub_"+userID.String(), userID.String()+"@example.com")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO vendors (id, user_id, name) VALUES ($1, $2, $3)`,
		vendorID, userID, "vendor "+vendorID.String()[:8])
	require.NoError(t, err)
	return userID, vendorID
}
