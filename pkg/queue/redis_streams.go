package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"multi-rpc-gateway/pkg/config"
	"multi-rpc-gateway/pkg/gateway"
)

type RedisStreams struct {
	rdb    *redis.Client
	stream config.RedisStreamConfig
}

func NewRedisStreams(cfg config.RedisConfig) (*RedisStreams, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &RedisStreams{rdb: rdb, stream: cfg.Stream}, nil
}

func (q *RedisStreams) Close() error { return q.rdb.Close() }

func (q *RedisStreams) PushEvaluation(ctx context.Context, ev gateway.EvaluationEvent) (string, error) {
	return q.rdb.XAdd(ctx, q.args(evaluationFields(ev))).Result()
}

func (q *RedisStreams) PushBroadcast(ctx context.Context, ev gateway.BroadcastEvent) (string, error) {
	return q.rdb.XAdd(ctx, q.args(broadcastFields(ev))).Result()
}

func (q *RedisStreams) args(fields map[string]interface{}) *redis.XAddArgs {
	args := &redis.XAddArgs{
		Stream: q.stream.Key,
		Values: fields,
	}
	if q.stream.MaxLen > 0 {
		args.MaxLen = q.stream.MaxLen
		args.Approx = true
	}
	return args
}

func evaluationFields(ev gateway.EvaluationEvent) map[string]interface{} {
	fields := map[string]interface{}{
		"type":           "evaluation",
		"network":        ev.Network.Name,
		"chain_id":       fmt.Sprintf("%d", ev.Network.ChainID),
		"endpoint":       ev.Endpoint,
		"failure_rate":   fmt.Sprintf("%d", ev.Record.FailureRate),
		"evaluated_at":   ev.Record.LastEvaluated.UTC().Format(time.RFC3339Nano),
		"latency_millis": "",
		"error":          "",
	}
	if ev.Record.Latency != gateway.UnmeasuredLatency {
		fields["latency_millis"] = fmt.Sprintf("%d", ev.Record.Latency.Milliseconds())
	}
	if ev.Err != nil {
		fields["error"] = ev.Err.Error()
	}
	return fields
}

func broadcastFields(ev gateway.BroadcastEvent) map[string]interface{} {
	accepted := 0
	for _, a := range ev.Attempts {
		if a.Err == nil {
			accepted++
		}
	}
	return map[string]interface{}{
		"type":        "broadcast",
		"trace_id":    ev.TraceID.String(),
		"network":     ev.Network.Name,
		"chain_id":    fmt.Sprintf("%d", ev.Network.ChainID),
		"hash":        ev.Hash,
		"endpoints":   fmt.Sprintf("%d", len(ev.Attempts)),
		"accepted":    fmt.Sprintf("%d", accepted),
		"duration_ms": fmt.Sprintf("%d", ev.Settled.Sub(ev.Started).Milliseconds()),
	}
}
