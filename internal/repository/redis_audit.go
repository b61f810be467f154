package repository

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/GoParadex/paragate/internal/config"
	"github.com/GoParadex/paragate/internal/history"
)

// OrderAudit keeps a capped redis list of submitted orders, newest
// first. It is optional infrastructure: the gateway works without redis
// and falls back to in-memory history only.
type OrderAudit struct {
	client  *redis.Client
	listKey string
	listMax int64
}

func NewOrderAudit(cfg config.RedisConfig) *OrderAudit {
	listKey := cfg.AuditListKey
	if listKey == "" {
		listKey = "order_audit"
	}
	listMax := int64(cfg.AuditListMax)
	if listMax <= 0 {
		listMax = 10000
	}
	return &OrderAudit{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		listKey: listKey,
		listMax: listMax,
	}
}

func (a *OrderAudit) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

func (a *OrderAudit) Insert(ctx context.Context, entry history.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := a.client.LPush(ctx, a.listKey, payload).Err(); err != nil {
		return err
	}
	return a.client.LTrim(ctx, a.listKey, 0, a.listMax-1).Err()
}

func (a *OrderAudit) List(ctx context.Context, limit int) ([]history.Entry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	raws, err := a.client.LRange(ctx, a.listKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]history.Entry, 0, len(raws))
	for _, raw := range raws {
		var e history.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (a *OrderAudit) Close() error {
	return a.client.Close()
}
