package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tenant_service/internal/models"
	"tenant_service/internal/storage"
)

type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func New(ctx context.Context, addr, pass string, db int, ttl time.Duration) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(client, ttl), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *RedisRepo {
	return &RedisRepo{
		client: client,
		ttl:    ttl,
	}
}

// Keys are namespaced by tenant so a lookup can never cross tenants.
func productKey(tenantID string, id int64) string {
	return fmt.Sprintf("product:%s:%d", tenantID, id)
}

func (r *RedisRepo) Product(ctx context.Context, tenantID string, id int64) (models.Product, error) {
	const op = "storage.redis.Product"

	raw, err := r.client.Get(ctx, productKey(tenantID, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Product{}, storage.ErrCacheMiss
		}
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	var cached cachedProduct
	if err := json.Unmarshal(raw, &cached); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p := models.Product(cached)
	p.TenantID = tenantID

	return p, nil
}

func (r *RedisRepo) SetProduct(ctx context.Context, p models.Product) error {
	const op = "storage.redis.SetProduct"

	raw, err := json.Marshal(cachedProduct(p))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.client.Set(ctx, productKey(p.TenantID, p.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) InvalidateProduct(ctx context.Context, tenantID string, id int64) error {
	const op = "storage.redis.InvalidateProduct"

	if err := r.client.Del(ctx, productKey(tenantID, id)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) Close() {
	r.client.Close()
}

// cachedProduct mirrors models.Product with every field serialised.
type cachedProduct struct {
	ID          int64             `json:"id"`
	TenantID    string            `json:"tenant_id"`
	Name        string            `json:"name"`
	SKU         string            `json:"sku"`
	Category    string            `json:"category"`
	Price       string            `json:"price"`
	Description *string           `json:"description,omitempty"`
	Features    map[string]string `json:"features,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
