package fallback

import (
	"errors"
	"log"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	"github.com/Meldroq8/trivia-game-sub006/internal/domain/repository"
	apperrors "github.com/Meldroq8/trivia-game-sub006/internal/pkg/errors"
)

// UsageStore объединяет удаленное и локальное хранилище документов использования.
// Чтение и запись идут в удаленное хранилище; при его недоступности или при
// отсутствии привязанного аккаунта операции выполняются в локальном хранилище,
// чтобы данные не терялись (fail-open, ошибки транспортного уровня не пробрасываются).
type UsageStore struct {
	remote repository.UsageStore
	local  repository.UsageStore
}

// New создает композитное хранилище remote-with-local-fallback
func New(remote, local repository.UsageStore) *UsageStore {
	return &UsageStore{remote: remote, local: local}
}

// LoadDocument читает документ: удаленно, при сбое — локально.
// ErrNotFound от удаленного хранилища — это не сбой, а пустое состояние.
func (s *UsageStore) LoadDocument(accountID string) (*entity.UsageDocument, error) {
	if accountID == "" {
		return s.local.LoadDocument(accountID)
	}

	doc, err := s.remote.LoadDocument(accountID)
	if err == nil || errors.Is(err, apperrors.ErrNotFound) {
		return doc, err
	}

	log.Printf("[FallbackStore] Удаленное чтение документа для аккаунта %s не удалось: %v. Читаю локальное хранилище.", accountID, err)
	return s.local.LoadDocument(accountID)
}

// SaveUsageData пишет карту использования: удаленно, при сбое — локально
func (s *UsageStore) SaveUsageData(accountID string, usage map[string]int) error {
	if accountID == "" {
		return s.local.SaveUsageData(accountID, usage)
	}

	if err := s.remote.SaveUsageData(accountID, usage); err != nil {
		log.Printf("[FallbackStore] Удаленная запись usage_data для аккаунта %s не удалась: %v. Сохраняю локально.", accountID, err)
		return s.local.SaveUsageData(accountID, usage)
	}
	return nil
}

// LoadPoolSize читает размер пула. Ноль из удаленного хранилища означает
// "неизвестно", поэтому в этом случае дополнительно опрашивается локальное.
func (s *UsageStore) LoadPoolSize(accountID string) (int, error) {
	if accountID == "" {
		return s.local.LoadPoolSize(accountID)
	}

	size, err := s.remote.LoadPoolSize(accountID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[FallbackStore] Удаленное чтение pool_size для аккаунта %s не удалось: %v. Читаю локальное хранилище.", accountID, err)
		return s.local.LoadPoolSize(accountID)
	}
	if size == 0 {
		if localSize, localErr := s.local.LoadPoolSize(accountID); localErr == nil && localSize > 0 {
			return localSize, nil
		}
	}
	return size, err
}

// SavePoolSize пишет размер пула: удаленно и дублирует локально.
// Локальная копия нужна, чтобы LoadPoolSize мог восстановить значение,
// когда удаленное хранилище вернет ноль.
func (s *UsageStore) SavePoolSize(accountID string, size int) error {
	if accountID == "" {
		return s.local.SavePoolSize(accountID, size)
	}

	if err := s.local.SavePoolSize(accountID, size); err != nil {
		log.Printf("[FallbackStore] Локальная запись pool_size для аккаунта %s не удалась: %v", accountID, err)
	}
	if err := s.remote.SavePoolSize(accountID, size); err != nil {
		log.Printf("[FallbackStore] Удаленная запись pool_size для аккаунта %s не удалась: %v. Значение сохранено локально.", accountID, err)
	}
	return nil
}

// Clear удаляет документ в обоих хранилищах
func (s *UsageStore) Clear(accountID string) error {
	if err := s.local.Clear(accountID); err != nil {
		log.Printf("[FallbackStore] Локальная очистка для аккаунта %s не удалась: %v", accountID, err)
	}
	if accountID == "" {
		return nil
	}
	return s.remote.Clear(accountID)
}
