package repository

import (
	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
)

// UsageStore определяет методы работы с документом использования вопросов.
// Документ хранится per-account; поля usage_data и pool_size обновляются
// независимо (частичное обновление), чтобы запись карты использования
// не затирала размер пула и наоборот.
type UsageStore interface {
	// LoadDocument читает документ аккаунта целиком.
	// Возвращает apperrors.ErrNotFound, если документа еще нет.
	LoadDocument(accountID string) (*entity.UsageDocument, error)

	// SaveUsageData записывает только карту использования (и last_updated)
	SaveUsageData(accountID string, usage map[string]int) error

	// LoadPoolSize читает сохраненный размер пула.
	// Возвращает apperrors.ErrNotFound, если значение еще не записывалось.
	LoadPoolSize(accountID string) (int, error)

	// SavePoolSize записывает только размер пула (и last_updated)
	SavePoolSize(accountID string, size int) error

	// Clear удаляет документ аккаунта целиком (административная операция)
	Clear(accountID string) error
}
