package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	apperrors "github.com/Meldroq8/trivia-game-sub006/internal/pkg/errors"
)

const (
	fieldUsageData   = "usage_data"
	fieldPoolSize    = "pool_size"
	fieldLastUpdated = "last_updated"
)

// UsageStore реализует repository.UsageStore поверх Redis.
// Документ аккаунта хранится как hash: поле usage_data содержит JSON карты
// использования, pool_size и last_updated — отдельные поля, поэтому запись
// одного поля не затрагивает остальные (частичное обновление документа).
type UsageStore struct {
	client redis.UniversalClient
	ctx    context.Context
}

// NewUsageStore создает новое удаленное хранилище документов использования
func NewUsageStore(client redis.UniversalClient) (*UsageStore, error) {
	if client == nil {
		return nil, fmt.Errorf("Redis client cannot be nil for UsageStore")
	}
	return &UsageStore{
		client: client,
		ctx:    context.Background(),
	}, nil
}

func usageKey(accountID string) string {
	return "rotation:usage:" + accountID
}

// LoadDocument читает документ аккаунта целиком
func (r *UsageStore) LoadDocument(accountID string) (*entity.UsageDocument, error) {
	fields, err := r.client.HGetAll(r.ctx, usageKey(accountID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, apperrors.ErrNotFound
	}

	doc := entity.NewUsageDocument()
	if raw, ok := fields[fieldUsageData]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc.UsageData); err != nil {
			return nil, fmt.Errorf("failed to decode usage_data for account %s: %w", accountID, err)
		}
	}
	if raw, ok := fields[fieldPoolSize]; ok {
		if size, convErr := strconv.Atoi(raw); convErr == nil {
			doc.PoolSize = size
		}
	}
	if raw, ok := fields[fieldLastUpdated]; ok {
		if unix, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil {
			doc.LastUpdated = time.Unix(unix, 0)
		}
	}
	return doc, nil
}

// SaveUsageData записывает карту использования, не трогая pool_size
func (r *UsageStore) SaveUsageData(accountID string, usage map[string]int) error {
	data, err := json.Marshal(usage)
	if err != nil {
		return err
	}
	return r.client.HSet(r.ctx, usageKey(accountID),
		fieldUsageData, data,
		fieldLastUpdated, time.Now().Unix(),
	).Err()
}

// LoadPoolSize читает сохраненный размер пула
func (r *UsageStore) LoadPoolSize(accountID string) (int, error) {
	raw, err := r.client.HGet(r.ctx, usageKey(accountID), fieldPoolSize).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, apperrors.ErrNotFound
		}
		return 0, err
	}
	return strconv.Atoi(raw)
}

// SavePoolSize записывает размер пула, не трогая карту использования
func (r *UsageStore) SavePoolSize(accountID string, size int) error {
	return r.client.HSet(r.ctx, usageKey(accountID),
		fieldPoolSize, size,
		fieldLastUpdated, time.Now().Unix(),
	).Err()
}

// Clear удаляет документ аккаунта целиком
func (r *UsageStore) Clear(accountID string) error {
	return r.client.Del(r.ctx, usageKey(accountID)).Err()
}
