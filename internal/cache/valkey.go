package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const lotsListKey = "lots:list"

// ValkeyClient caches the lot availability snapshot consumed by the lot list
// endpoint. Entries carry a short TTL; lot mutations invalidate eagerly.
type ValkeyClient struct {
	client  *redis.Client
	lotsTTL time.Duration
}

type Config struct {
	Addr     string
	Password string
	LotsTTL  time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ttl := cfg.LotsTTL
	if ttl == 0 {
		ttl = 10 * time.Second
	}

	return &ValkeyClient{client: rdb, lotsTTL: ttl}, nil
}

// GetLotsListRaw returns the cached lot list as raw JSON, avoiding an
// unmarshal/marshal round trip on the hot read path.
func (v *ValkeyClient) GetLotsListRaw(ctx context.Context) ([]byte, error) {
	raw, err := v.client.Get(ctx, lotsListKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("lot list not in cache")
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	return raw, nil
}

func (v *ValkeyClient) SetLotsList(ctx context.Context, lots interface{}) error {
	payload, err := json.Marshal(lots)
	if err != nil {
		return fmt.Errorf("failed to marshal lot list: %w", err)
	}
	return v.client.Set(ctx, lotsListKey, payload, v.lotsTTL).Err()
}

// InvalidateLots drops the cached snapshot after any lot or counter mutation.
func (v *ValkeyClient) InvalidateLots(ctx context.Context) error {
	return v.client.Del(ctx, lotsListKey).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
