package store

import (
	"context"
	"fmt"
	"sort"

	"tally-cli/internal/model"

	"github.com/redis/go-redis/v9"
)

// Redis keeps a namespace in one hash: field = id, value = JSON record.
type Redis struct {
	rdb  *redis.Client
	key  string
	owns bool
}

func redisKey(namespace string) string {
	return "tally:" + namespace + ":todos"
}

// NewRedis wraps an existing client. Close leaves the client open.
func NewRedis(rdb *redis.Client, namespace string) *Redis {
	return &Redis{rdb: rdb, key: redisKey(namespace)}
}

// DialRedis connects to url (redis://...) and pings it.
func DialRedis(ctx context.Context, url, namespace string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	r := NewRedis(rdb, namespace)
	r.owns = true
	return r, nil
}

func (r *Redis) LoadAll(ctx context.Context) ([]model.Task, error) {
	vals, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(vals))
	for id, raw := range vals {
		rec, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", id, err)
		}
		rec.ID = id
		out = append(out, rec)
	}
	// Hash order is random.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Redis) Save(ctx context.Context, id string, rec model.Task) error {
	rec.ID = id
	b, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return r.rdb.HSet(ctx, r.key, id, b).Err()
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.rdb.HDel(ctx, r.key, id).Err()
}

func (r *Redis) Close() error {
	if !r.owns {
		return nil
	}
	return r.rdb.Close()
}
