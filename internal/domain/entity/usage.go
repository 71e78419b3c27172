package entity

import "time"

// UsageDocument — документ использования вопросов одного аккаунта.
// UsageData отображает идентификатор вопроса в счётчик использования:
// 0 — вопрос ещё не показывался с последнего сброса, >0 — показывался.
// Движок никогда не увеличивает счётчик выше 1: состояние строго бинарное.
type UsageDocument struct {
	UsageData   map[string]int `json:"usage_data"`
	PoolSize    int            `json:"pool_size"`
	LastUpdated time.Time      `json:"last_updated"`
}

// NewUsageDocument создает пустой документ использования
func NewUsageDocument() *UsageDocument {
	return &UsageDocument{
		UsageData: make(map[string]int),
	}
}

// UsedCount возвращает число вопросов, отмеченных использованными
func (d *UsageDocument) UsedCount() int {
	used := 0
	for _, count := range d.UsageData {
		if count > 0 {
			used++
		}
	}
	return used
}

// Clone возвращает глубокую копию документа.
// Кеш в памяти отдает наружу только копии, чтобы вызывающий код
// не мог изменить закешированное состояние мимо путей записи.
func (d *UsageDocument) Clone() *UsageDocument {
	clone := &UsageDocument{
		UsageData:   make(map[string]int, len(d.UsageData)),
		PoolSize:    d.PoolSize,
		LastUpdated: d.LastUpdated,
	}
	for id, count := range d.UsageData {
		clone.UsageData[id] = count
	}
	return clone
}

// UsageStats — статистика прохождения текущего цикла ротации
type UsageStats struct {
	PoolSize          int     `json:"pool_size"`
	UsedCount         int     `json:"used_count"`
	UnusedCount       int     `json:"unused_count"`
	CompletionPercent float64 `json:"completion_percent"`
	CycleComplete     bool    `json:"cycle_complete"`
}

// BuildUsageStats вычисляет статистику по документу использования
func BuildUsageStats(doc *UsageDocument, poolSize int) UsageStats {
	used := doc.UsedCount()
	stats := UsageStats{
		PoolSize:  poolSize,
		UsedCount: used,
	}
	if poolSize > 0 {
		stats.UnusedCount = poolSize - used
		if stats.UnusedCount < 0 {
			stats.UnusedCount = 0
		}
		stats.CompletionPercent = float64(used) / float64(poolSize) * 100
		stats.CycleComplete = used >= poolSize
	}
	return stats
}

// MigrationReport — результат миграции записей старого формата
type MigrationReport struct {
	Migrated  int `json:"migrated"`
	Discarded int `json:"discarded"`
}
