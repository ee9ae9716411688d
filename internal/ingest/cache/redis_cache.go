package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/odds-settlement-core/internal/canonical"
)

// RedisCache guarda o snapshot corrente de odds de um evento no Redis.
// Write-through: a ingestão grava após persistir; a API lê antes do banco.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// key gera a chave Redis para odds correntes de um evento
func key(eventID string) string { return "odds:current:" + eventID }

// SetCurrentRows substitui o snapshot de odds correntes do evento
func (r *RedisCache) SetCurrentRows(ctx context.Context, eventID string, rows []canonical.Row) error {
	b, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(eventID), b, r.TTL).Err()
}

// GetCurrentRows lê o snapshot do cache; found=false em cache miss
func (r *RedisCache) GetCurrentRows(ctx context.Context, eventID string) ([]canonical.Row, bool, error) {
	b, err := r.Client.Get(ctx, key(eventID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rows []canonical.Row
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, false, err
	}
	return rows, true, nil
}
