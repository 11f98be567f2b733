package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/grocery-cart/pkg/outbox"
)

// claim takes expired in-flight ids first, then tops the batch up from the
// pending list, and leases every returned id until ARGV[2].
var claim = redis.NewScript(`
local now = tonumber(ARGV[1])
local deadline = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ids = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', now, 'LIMIT', 0, limit)
local room = limit - #ids
if room > 0 then
	local fresh = redis.call('LPOP', KEYS[1], room)
	if fresh then
		for _, id in ipairs(fresh) do table.insert(ids, id) end
	end
end
for _, id in ipairs(ids) do
	redis.call('ZADD', KEYS[2], deadline, id)
end
return ids
`)

type OutboxStore struct {
	log *slog.Logger
	rdb redis.UniversalClient
	now func() time.Time
}

func NewOutboxStore(log *slog.Logger, rdb redis.UniversalClient) *OutboxStore {
	return &OutboxStore{log: log, rdb: rdb, now: time.Now}
}

func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	now := s.now()
	ids, err := claim.Run(ctx, s.rdb, []string{keyPending, keyInflight},
		now.UnixMilli(), now.Add(lease).UnixMilli(), batchSize).StringSlice()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	raw, err := s.rdb.HMGet(ctx, keyEvents, ids...).Result()
	if err != nil {
		return nil, err
	}
	events := make([]outbox.Event, 0, len(ids))
	for i, v := range raw {
		str, ok := v.(string)
		if !ok {
			s.log.Warn("outbox event body missing", "id", ids[i])
			s.rdb.ZRem(ctx, keyInflight, ids[i])
			continue
		}
		var ev outbox.Event
		if err := json.Unmarshal([]byte(str), &ev); err != nil {
			s.log.Warn("outbox event undecodable", "id", ids[i], "err", err)
			s.rdb.ZRem(ctx, keyInflight, ids[i])
			continue
		}
		ev.Status = outbox.StatusInProgress
		ev.RelayID = relayID
		events = append(events, ev)
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	fields := toFields(ids)
	members := make([]any, len(fields))
	for i, f := range fields {
		members[i] = f
	}
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRem(ctx, keyInflight, members...)
		p.HDel(ctx, keyEvents, fields...)
		return nil
	})
	return err
}

// MarkFailed parks the event on the failed list with its error recorded.
func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	field := strconv.FormatInt(id, 10)
	raw, err := s.rdb.HGet(ctx, keyEvents, field).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	var ev outbox.Event
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return err
		}
	}
	ev.Status = outbox.StatusFailed
	ev.RetryCount++
	ev.LastError = &errMsg
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRem(ctx, keyInflight, field)
		p.HSet(ctx, keyEvents, field, body)
		p.RPush(ctx, keyFailed, field)
		return nil
	})
	return err
}

func (s *OutboxStore) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	deadline := float64(s.now().Add(lease).UnixMilli())
	members := make([]redis.Z, 0, len(ids))
	for _, f := range toFields(ids) {
		members = append(members, redis.Z{Score: deadline, Member: f})
	}
	if len(members) == 0 {
		return nil
	}
	if err := s.rdb.ZAddXX(ctx, keyInflight, members...).Err(); err != nil {
		return err
	}
	s.log.Debug("outbox lease extended", "relay_id", relayID, "count", len(members))
	return nil
}

func toFields(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}
