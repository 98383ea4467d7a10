package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AlertStream is the Redis stream alerts are appended to.
const AlertStream = "ncaa.alerts"

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStream appends alerts to a Redis stream for downstream consumers.
type RedisStream struct {
	client streamAdder
	closer func() error
	stream string
	now    func() time.Time
}

// NewRedisStream connects to redisURL and verifies the connection.
func NewRedisStream(ctx context.Context, redisURL string) (*RedisStream, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStream{
		client: client,
		closer: client.Close,
		stream: AlertStream,
		now:    time.Now,
	}, nil
}

// Close closes the Redis connection
func (r *RedisStream) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// Send appends one alert.
func (r *RedisStream) Send(ctx context.Context, alert Alert) error {
	args, err := r.xaddArgs(alert)
	if err != nil {
		return err
	}
	return r.client.XAdd(ctx, args).Err()
}

func (r *RedisStream) xaddArgs(alert Alert) (*redis.XAddArgs, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("marshaling alert: %w", err)
	}
	return &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{
			"severity":  string(alert.Severity),
			"data":      string(data),
			"timestamp": r.now().Unix(),
		},
	}, nil
}
