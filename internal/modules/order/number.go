package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NumberGenerator issues human-readable order numbers of the form ORD-YYYYMMDD-NNNNNN.
type NumberGenerator interface {
	Next(ctx context.Context) (string, error)
}

const dailyKeyTTL = 48 * time.Hour

// RedisNumberGenerator numbers orders from a per-day counter, so each day starts at 1.
type RedisNumberGenerator struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedisNumberGenerator(client redis.Cmdable) *RedisNumberGenerator {
	return &RedisNumberGenerator{client: client, prefix: "orders:seq:", now: time.Now}
}

func (g *RedisNumberGenerator) Next(ctx context.Context) (string, error) {
	day := g.now().Format("20060102")
	key := g.prefix + day

	pipe := g.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, dailyKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("order number counter: %w", err)
	}
	return formatNumber(day, incr.Val()), nil
}

// SequenceNumberGenerator numbers orders from the order_number_seq database sequence.
type SequenceNumberGenerator struct {
	db  *sql.DB
	now func() time.Time
}

func NewSequenceNumberGenerator(db *sql.DB) *SequenceNumberGenerator {
	return &SequenceNumberGenerator{db: db, now: time.Now}
}

func (g *SequenceNumberGenerator) Next(ctx context.Context) (string, error) {
	var n int64
	if err := g.db.QueryRowContext(ctx, `SELECT nextval('order_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("order number sequence: %w", err)
	}
	return formatNumber(g.now().Format("20060102"), n), nil
}

func formatNumber(day string, n int64) string {
	return fmt.Sprintf("ORD-%s-%06d", day, n)
}
