package service

import (
	"sync"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	apperrors "github.com/Meldroq8/trivia-game-sub006/internal/pkg/errors"
)

// ============================================================================
// Фейки для тестов сервисного слоя
// ============================================================================

// fakeGameRepo — репозиторий истории игр в памяти
type fakeGameRepo struct {
	mu     sync.Mutex
	games  []entity.Game
	nextID uint
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{nextID: 1}
}

func (f *fakeGameRepo) Create(game *entity.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	game.ID = f.nextID
	f.nextID++
	f.games = append(f.games, *game)
	return nil
}

func (f *fakeGameRepo) GetByID(id uint) (*entity.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.games {
		if f.games[i].ID == id {
			game := f.games[i]
			return &game, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeGameRepo) ListByAccount(accountID string) ([]entity.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []entity.Game
	for _, game := range f.games {
		if game.AccountID == accountID {
			result = append(result, game)
		}
	}
	return result, nil
}

func (f *fakeGameRepo) Delete(id uint, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, game := range f.games {
		if game.ID == id && game.AccountID == accountID {
			f.games = append(f.games[:i], f.games[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// fakeUsageStore — хранилище документов использования в памяти
type fakeUsageStore struct {
	mu        sync.Mutex
	usage     map[string]map[string]int
	poolSizes map[string]int
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{
		usage:     make(map[string]map[string]int),
		poolSizes: make(map[string]int),
	}
}

func (f *fakeUsageStore) LoadDocument(accountID string) (*entity.UsageDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	usage, ok := f.usage[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	doc := entity.NewUsageDocument()
	for id, count := range usage {
		doc.UsageData[id] = count
	}
	doc.PoolSize = f.poolSizes[accountID]
	return doc, nil
}

func (f *fakeUsageStore) SaveUsageData(accountID string, usage map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := make(map[string]int, len(usage))
	for id, count := range usage {
		snapshot[id] = count
	}
	f.usage[accountID] = snapshot
	return nil
}

func (f *fakeUsageStore) LoadPoolSize(accountID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	size, ok := f.poolSizes[accountID]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	return size, nil
}

func (f *fakeUsageStore) SavePoolSize(accountID string, size int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.poolSizes[accountID] = size
	return nil
}

func (f *fakeUsageStore) Clear(accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.usage, accountID)
	delete(f.poolSizes, accountID)
	return nil
}

func (f *fakeUsageStore) savedUsage(accountID string) map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usage[accountID]
}
