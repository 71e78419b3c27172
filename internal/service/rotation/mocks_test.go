package rotation

import (
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	apperrors "github.com/Meldroq8/trivia-game-sub006/internal/pkg/errors"
)

// ============================================================================
// Моки и фейки для тестов движка ротации
// ============================================================================

// MockUsageStore реализует repository.UsageStore через testify/mock
type MockUsageStore struct {
	mock.Mock
}

func (m *MockUsageStore) LoadDocument(accountID string) (*entity.UsageDocument, error) {
	args := m.Called(accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UsageDocument), args.Error(1)
}

func (m *MockUsageStore) SaveUsageData(accountID string, usage map[string]int) error {
	args := m.Called(accountID, usage)
	return args.Error(0)
}

func (m *MockUsageStore) LoadPoolSize(accountID string) (int, error) {
	args := m.Called(accountID)
	return args.Int(0), args.Error(1)
}

func (m *MockUsageStore) SavePoolSize(accountID string, size int) error {
	args := m.Called(accountID, size)
	return args.Error(0)
}

func (m *MockUsageStore) Clear(accountID string) error {
	args := m.Called(accountID)
	return args.Error(0)
}

// fakeUsageStore — хранилище в памяти с подсчетом записей.
// Удобен для сквозных тестов компонентов, где важно итоговое состояние,
// а не последовательность вызовов.
type fakeUsageStore struct {
	mu         sync.Mutex
	usage      map[string]map[string]int
	poolSizes  map[string]int
	usageSaves int
	poolSaves  int
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
	f.usageSaves++
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
	f.poolSaves++
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

func (f *fakeUsageStore) usageSaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usageSaves
}

// recordingNotifier запоминает отправленные уведомления
type recordingNotifier struct {
	mu     sync.Mutex
	events []entity.UsageStats
}

func (n *recordingNotifier) NotifyCycleComplete(accountID string, stats entity.UsageStats) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, stats)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

// testConfig возвращает конфигурацию с короткими интервалами для тестов
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.WriteInterval = 30 * time.Millisecond
	cfg.CycleCheckDelay = 40 * time.Millisecond
	return cfg
}

// newTestStore собирает Store поверх фейкового хранилища
func newTestStore(fake *fakeUsageStore) *Store {
	return NewStore(testConfig(), &Dependencies{
		UsageStore: fake,
		Notifier:   NoOpNotifier{},
	})
}
