package rotation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	apperrors "github.com/Meldroq8/trivia-game-sub006/internal/pkg/errors"
)

// ============================================================================
// Тесты Store: оптимистичный кеш, read-your-writes, деградация при сбоях
// ============================================================================

func TestStore_LoadMissingDocumentReturnsEmptyUsableState(t *testing.T) {
	mockStore := new(MockUsageStore)
	mockStore.On("LoadDocument", "acc1").Return(nil, apperrors.ErrNotFound)

	s := NewStore(testConfig(), &Dependencies{UsageStore: mockStore, Notifier: NoOpNotifier{}})

	doc := s.Load("acc1")
	require.NotNil(t, doc)
	assert.NotNil(t, doc.UsageData)
	assert.Empty(t, doc.UsageData)

	// Документ закеширован: повторное чтение не ходит в хранилище
	s.Load("acc1")
	mockStore.AssertNumberOfCalls(t, "LoadDocument", 1)
}

func TestStore_RemoteFailureDegradesToEmptyState(t *testing.T) {
	mockStore := new(MockUsageStore)
	mockStore.On("LoadDocument", "acc1").Return(nil, errors.New("connection refused"))

	s := NewStore(testConfig(), &Dependencies{UsageStore: mockStore, Notifier: NoOpNotifier{}})

	// Транспортный сбой не всплывает наружу: вызывающий код получает
	// пригодный пустой документ
	doc := s.Load("acc1")
	require.NotNil(t, doc)
	assert.Empty(t, doc.UsageData)
}

func TestStore_ReadYourWrites(t *testing.T) {
	fake := newFakeUsageStore()
	s := newTestStore(fake)

	s.Save("acc1", map[string]int{"q1": 1}, false)
	s.Save("acc1", map[string]int{"q1": 1, "q2": 1}, false) // отложена коалесером

	// Чтение видит вторую запись, даже пока она ждет в коалесере
	doc := s.Load("acc1")
	assert.Equal(t, map[string]int{"q1": 1, "q2": 1}, doc.UsageData)
	assert.NotEqual(t, map[string]int{"q1": 1, "q2": 1}, fake.savedUsage("acc1"))

	s.Flush("acc1")
	assert.Equal(t, map[string]int{"q1": 1, "q2": 1}, fake.savedUsage("acc1"))
}

func TestStore_LoadReturnsClone(t *testing.T) {
	fake := newFakeUsageStore()
	s := newTestStore(fake)

	s.Save("acc1", map[string]int{"q1": 1}, true)

	doc := s.Load("acc1")
	doc.UsageData["q1"] = 0
	doc.UsageData["hacked"] = 1

	// Мутации возвращенной копии не задевают кеш
	fresh := s.Load("acc1")
	assert.Equal(t, map[string]int{"q1": 1}, fresh.UsageData)
}

func TestStore_PoolSizeCachedAfterLoad(t *testing.T) {
	mockStore := new(MockUsageStore)
	mockStore.On("LoadDocument", "acc1").Return(&entity.UsageDocument{
		UsageData: map[string]int{"q1": 1},
		PoolSize:  3,
	}, nil)

	s := NewStore(testConfig(), &Dependencies{UsageStore: mockStore, Notifier: NoOpNotifier{}})

	s.Load("acc1")
	assert.Equal(t, 3, s.LoadPoolSize("acc1"))
	// Размер взят из кешированного документа, LoadPoolSize не вызывался
	mockStore.AssertNotCalled(t, "LoadPoolSize", "acc1")
}

func TestStore_SavePoolSizeBypassesCoalescer(t *testing.T) {
	fake := newFakeUsageStore()
	s := newTestStore(fake)

	s.SavePoolSize("acc1", 42)

	size, err := fake.LoadPoolSize("acc1")
	require.NoError(t, err)
	assert.Equal(t, 42, size)
	assert.Equal(t, 42, s.LoadPoolSize("acc1"))
}

func TestStore_ClearRemovesCacheAndPersistentData(t *testing.T) {
	fake := newFakeUsageStore()
	s := newTestStore(fake)

	s.Save("acc1", map[string]int{"q1": 1}, true)
	s.SavePoolSize("acc1", 5)

	s.Clear("acc1")

	assert.Nil(t, fake.savedUsage("acc1"))
	doc := s.Load("acc1")
	assert.Empty(t, doc.UsageData)
	assert.Equal(t, 0, s.LoadPoolSize("acc1"))
}

// gateStore блокирует первую удаленную запись до явного сигнала
type gateStore struct {
	*fakeUsageStore
	mu      sync.Mutex
	gated   bool
	entered chan struct{}
	release chan struct{}
}

func newGateStore(fake *fakeUsageStore) *gateStore {
	return &gateStore{
		fakeUsageStore: fake,
		gated:          true,
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (g *gateStore) SaveUsageData(accountID string, usage map[string]int) error {
	g.mu.Lock()
	first := g.gated
	g.gated = false
	g.mu.Unlock()

	if first {
		close(g.entered)
		<-g.release
	}
	return g.fakeUsageStore.SaveUsageData(accountID, usage)
}

func TestStore_ConcurrentSavesCommitInOrder(t *testing.T) {
	fake := newFakeUsageStore()
	gate := newGateStore(fake)
	s := NewStore(testConfig(), &Dependencies{UsageStore: gate, Notifier: NoOpNotifier{}})

	firstDone := make(chan struct{})
	go func() {
		s.Save("acc1", map[string]int{"q": 1}, true)
		close(firstDone)
	}()
	<-gate.entered // первая запись висит в удаленном хранилище

	secondDone := make(chan struct{})
	go func() {
		s.Save("acc1", map[string]int{"q": 2}, true)
		close(secondDone)
	}()

	// Вторая запись обязана дождаться завершения первой: иначе хранилище
	// могло бы закоммитить устаревшую карту поверх более новой
	select {
	case <-secondDone:
		t.Fatal("вторая запись обогнала незавершенную первую")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	<-firstDone
	<-secondDone

	assert.Equal(t, map[string]int{"q": 2}, fake.savedUsage("acc1"))
	assert.Equal(t, map[string]int{"q": 2}, s.Load("acc1").UsageData)
}

func TestStore_ResetSessionFlushesPendingAndDropsCache(t *testing.T) {
	fake := newFakeUsageStore()
	s := newTestStore(fake)

	s.Save("acc1", map[string]int{"q1": 1}, true)
	s.Save("acc1", map[string]int{"q1": 1, "q2": 1}, false) // отложена

	s.ResetSession("acc1")

	// Отложенная запись доехала до хранилища, кеш перечитается заново
	assert.Equal(t, map[string]int{"q1": 1, "q2": 1}, fake.savedUsage("acc1"))
	doc := s.Load("acc1")
	assert.Equal(t, map[string]int{"q1": 1, "q2": 1}, doc.UsageData)
}
