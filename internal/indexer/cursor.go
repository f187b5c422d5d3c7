package indexer

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisCursorBlock = "fellas-indexer:cursor:block"
	redisProcessed   = "fellas-indexer:log:"
	processedTTL     = 7 * 24 * time.Hour
)

// Cursor persists indexer progress.
type Cursor interface {
	Load(ctx context.Context) (block uint64, ok bool, err error)
	Save(ctx context.Context, block uint64) error
	Seen(ctx context.Context, key string) (bool, error)
	MarkSeen(ctx context.Context, key, value string) error
}

type RedisCursor struct {
	rdb *redis.Client
}

func NewRedisCursor(rdb *redis.Client) *RedisCursor {
	return &RedisCursor{rdb: rdb}
}

func (c *RedisCursor) Load(ctx context.Context) (uint64, bool, error) {
	val, err := c.rdb.Get(ctx, redisCursorBlock).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	block, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return block, true, nil
}

func (c *RedisCursor) Save(ctx context.Context, block uint64) error {
	return c.rdb.Set(ctx, redisCursorBlock, strconv.FormatUint(block, 10), 0).Err()
}

func (c *RedisCursor) Seen(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, redisProcessed+key).Result()
	return n > 0, err
}

func (c *RedisCursor) MarkSeen(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, redisProcessed+key, value, processedTTL).Err()
}
