package order

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisNumberGenerator_DailySequence(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	day := time.Date(2026, 5, 4, 9, 30, 0, 0, time.Local)
	gen := NewRedisNumberGenerator(client)
	gen.now = func() time.Time { return day }

	first, err := gen.Next(context.Background())
	require.NoError(t, err)
	second, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260504-000001", first)
	assert.Equal(t, "ORD-20260504-000002", second)
	assert.Equal(t, dailyKeyTTL, mr.TTL("orders:seq:20260504"))

	gen.now = func() time.Time { return day.AddDate(0, 0, 1) }
	next, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260505-000001", next)
}

func TestRedisNumberGenerator_Unique(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	gen := NewRedisNumberGenerator(client)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		n, err := gen.Next(context.Background())
		require.NoError(t, err)
		require.False(t, seen[n], "duplicate %s", n)
		seen[n] = true
	}
}

func TestRedisNumberGenerator_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	_, err := NewRedisNumberGenerator(client).Next(context.Background())
	assert.ErrorContains(t, err, "order number counter")
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "ORD-20261231-000042", formatNumber("20261231", 42))
	assert.Equal(t, "ORD-20261231-1234567", formatNumber("20261231", 1234567))
}
