package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	KeyAdds    = "cart:activity:adds"
	KeyRemoves = "cart:activity:removes"
	KeyClears  = "cart:activity:clears"
)

type Counters struct {
	rdb redis.Cmdable
}

func NewCounters(rdb redis.Cmdable) *Counters {
	return &Counters{rdb: rdb}
}

func (c *Counters) AddUnits(ctx context.Context, itemID int, n int64) error {
	return c.rdb.HIncrBy(ctx, KeyAdds, strconv.Itoa(itemID), n).Err()
}

func (c *Counters) RemoveUnits(ctx context.Context, itemID int, n int64) error {
	return c.rdb.HIncrBy(ctx, KeyRemoves, strconv.Itoa(itemID), n).Err()
}

func (c *Counters) Cleared(ctx context.Context) error {
	return c.rdb.Incr(ctx, KeyClears).Err()
}
