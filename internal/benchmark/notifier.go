package benchmark

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"freightbench/internal/model"
)

// Notifier announces completed benchmarks to downstream consumers.
type Notifier interface {
	Notify(ctx context.Context, r *model.BenchmarkResult) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *model.BenchmarkResult) error { return nil }

// Completion is the message published for every computed benchmark.
type Completion struct {
	BenchmarkID    string               `json:"benchmark_id"`
	ShipmentID     string               `json:"shipment_id,omitempty"`
	TenantID       string               `json:"tenant_id"`
	Classification model.Classification `json:"classification"`
	DeltaPct       float64              `json:"delta_pct"`
	Timestamp      int64                `json:"timestamp"`
}

func completionOf(r *model.BenchmarkResult) Completion {
	return Completion{
		BenchmarkID:    r.ID.String(),
		ShipmentID:     r.ShipmentID,
		TenantID:       r.TenantID,
		Classification: r.Classification,
		DeltaPct:       r.DeltaPct,
		Timestamp:      r.CreatedAt.Unix(),
	}
}

// RedisNotifier publishes Completion messages on a Redis channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier connects to Redis and verifies the connection.
func NewRedisNotifier(ctx context.Context, addr, password string, db int, channel string) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisNotifier{client: client, channel: channel}, nil
}

func (n *RedisNotifier) Notify(ctx context.Context, r *model.BenchmarkResult) error {
	msg, err := json.Marshal(completionOf(r))
	if err != nil {
		return fmt.Errorf("failed to marshal completion: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, msg).Err(); err != nil {
		return fmt.Errorf("failed to publish completion: %w", err)
	}
	return nil
}

// Subscribe opens a subscription on the notifier channel.
func (n *RedisNotifier) Subscribe(ctx context.Context) *redis.PubSub {
	return n.client.Subscribe(ctx, n.channel)
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
