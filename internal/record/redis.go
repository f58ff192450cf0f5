package record

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"payment-failure-monitor/internal/activity"
	"payment-failure-monitor/internal/types"
)

const DefaultStreamMaxLen = 10000

// StreamAdder is the slice of the redis client the stream recorder needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStream stores one stream entry per failed payment, trimmed to roughly MaxLen entries.
type RedisStream struct {
	RDB    StreamAdder
	Stream string
	MaxLen int64
	Log    *activity.Log
}

func NewRedisStream(rdb StreamAdder, stream string, log *activity.Log) *RedisStream {
	return &RedisStream{
		RDB:    rdb,
		Stream: stream,
		MaxLen: DefaultStreamMaxLen,
		Log:    log,
	}
}

// Values flattens rec into ordered stream field/value pairs.
func Values(rec types.FailureRecord) []any {
	return []any{
		ColumnEmail, rec.Email,
		ColumnCustomerID, rec.CustomerID,
		ColumnAmount, rec.MajorAmount().StringFixed(2),
		ColumnMethod, rec.Method,
		ColumnReason, rec.Reason,
		ColumnDate, types.ISOTime(rec.Date),
		ColumnChargeID, rec.ChargeID,
		ColumnStatus, StatusFailed,
	}
}

func (r *RedisStream) AppendFailureRow(ctx context.Context, rec types.FailureRecord) error {
	id, err := r.RDB.XAdd(ctx, &redis.XAddArgs{
		Stream: r.Stream,
		MaxLen: r.MaxLen,
		Approx: true,
		Values: Values(rec),
	}).Result()
	if err != nil {
		err = fmt.Errorf("redis xadd %s: %w", r.Stream, err)
		r.Log.Recordf("Redis error: %v", err)
		return err
	}
	r.Log.Recordf("Added to Redis stream: %s", id)
	return nil
}
