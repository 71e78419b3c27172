package rotation

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	apperrors "github.com/Meldroq8/trivia-game-sub006/internal/pkg/errors"
)

// Store — персистентное хранилище счетчиков использования с оптимистичным
// кешем в памяти. Кеш обновляется синхронно при каждой записи, поэтому
// последующие чтения того же процесса видят записанное значение, даже пока
// удаленная запись еще ждет в коалесере (read-your-writes).
// Наружу Store никогда не возвращает ошибок: транспортные сбои логируются,
// а вызывающий код всегда получает пригодный (возможно пустой) документ.
type Store struct {
	deps      *Dependencies
	coalescer *WriteCoalescer

	mu    sync.Mutex
	cache map[string]*entity.UsageDocument

	// saveLocks сериализует путь записи по аккаунту: обновление кеша и
	// передача коалесеру должны происходить в одном порядке, иначе две
	// параллельные записи могут закоммитить в хранилище устаревшую карту
	// поверх более новой
	saveMu    sync.Mutex
	saveLocks map[string]*sync.Mutex
}

// NewStore создает хранилище счетчиков с кешем и коалесером записей
func NewStore(config *Config, deps *Dependencies) *Store {
	s := &Store{
		deps:      deps,
		cache:     make(map[string]*entity.UsageDocument),
		saveLocks: make(map[string]*sync.Mutex),
	}
	s.coalescer = NewWriteCoalescer(config, s.commitUsage)
	return s
}

// Coalescer возвращает коалесер записей (для Flush при завершении процесса)
func (s *Store) Coalescer() *WriteCoalescer {
	return s.coalescer
}

// Load возвращает документ использования аккаунта.
// Сначала кеш, затем хранилище; отсутствие документа — это пустое состояние,
// а не ошибка: документ создается лениво при первом обращении.
func (s *Store) Load(accountID string) *entity.UsageDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.cache[accountID]; ok {
		return doc.Clone()
	}

	doc, err := s.deps.UsageStore.LoadDocument(accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[UsageStore] Не удалось прочитать документ аккаунта %s: %v. Использую пустое состояние.", accountID, err)
		}
		doc = entity.NewUsageDocument()
	}
	if doc.UsageData == nil {
		doc.UsageData = make(map[string]int)
	}

	s.cache[accountID] = doc
	return doc.Clone()
}

// saveLock возвращает мьютекс пути записи аккаунта
func (s *Store) saveLock(accountID string) *sync.Mutex {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	lock, ok := s.saveLocks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.saveLocks[accountID] = lock
	}
	return lock
}

// Save записывает карту использования: кеш обновляется синхронно,
// персистентная запись идет через коалесер (или сразу при immediate).
// Записи одного аккаунта сериализованы: порядок коммитов в хранилище
// совпадает с порядком обновлений кеша.
func (s *Store) Save(accountID string, usage map[string]int, immediate bool) {
	lock := s.saveLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	snapshot := make(map[string]int, len(usage))
	for id, count := range usage {
		snapshot[id] = count
	}

	s.mu.Lock()
	doc, ok := s.cache[accountID]
	if !ok {
		doc = entity.NewUsageDocument()
		s.cache[accountID] = doc
	}
	doc.UsageData = snapshot
	doc.LastUpdated = time.Now()
	s.mu.Unlock()

	// Коалесеру отдается отдельная копия: кеш может меняться дальше
	payload := make(map[string]int, len(snapshot))
	for id, count := range snapshot {
		payload[id] = count
	}
	s.coalescer.Save(accountID, payload, immediate)
}

// LoadPoolSize возвращает размер пула аккаунта (0 — еще не известен)
func (s *Store) LoadPoolSize(accountID string) int {
	s.mu.Lock()
	if doc, ok := s.cache[accountID]; ok && doc.PoolSize > 0 {
		size := doc.PoolSize
		s.mu.Unlock()
		return size
	}
	s.mu.Unlock()

	size, err := s.deps.UsageStore.LoadPoolSize(accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[UsageStore] Не удалось прочитать размер пула аккаунта %s: %v", accountID, err)
		}
		return 0
	}

	s.mu.Lock()
	if doc, ok := s.cache[accountID]; ok {
		doc.PoolSize = size
	}
	s.mu.Unlock()
	return size
}

// SavePoolSize записывает размер пула. Запись редкая (раз на загрузку пула),
// поэтому идет в хранилище сразу, минуя коалесер.
func (s *Store) SavePoolSize(accountID string, size int) {
	s.mu.Lock()
	doc, ok := s.cache[accountID]
	if !ok {
		doc = entity.NewUsageDocument()
		s.cache[accountID] = doc
	}
	doc.PoolSize = size
	doc.LastUpdated = time.Now()
	s.mu.Unlock()

	if err := s.deps.UsageStore.SavePoolSize(accountID, size); err != nil {
		log.Printf("[UsageStore] Не удалось записать размер пула аккаунта %s: %v", accountID, err)
	}
}

// Flush синхронно выполняет отложенную запись аккаунта
func (s *Store) Flush(accountID string) {
	s.coalescer.Flush(accountID)
}

// Clear полностью удаляет данные аккаунта (административная операция)
func (s *Store) Clear(accountID string) {
	s.coalescer.Reset(accountID)

	s.mu.Lock()
	delete(s.cache, accountID)
	s.mu.Unlock()

	if err := s.deps.UsageStore.Clear(accountID); err != nil {
		log.Printf("[UsageStore] Не удалось очистить документ аккаунта %s: %v", accountID, err)
	}
}

// ResetSession сбрасывает состояние процесса для аккаунта: кеш и троттлинг.
// Персистентные данные не трогаются. Вызывается при смене активного аккаунта,
// чтобы данные не перетекали между аккаунтами на общем устройстве.
func (s *Store) ResetSession(accountID string) {
	s.coalescer.Flush(accountID)
	s.coalescer.Reset(accountID)

	s.mu.Lock()
	delete(s.cache, accountID)
	s.mu.Unlock()
}

// commitUsage — точка фактической записи для коалесера
func (s *Store) commitUsage(accountID string, usage map[string]int) {
	if err := s.deps.UsageStore.SaveUsageData(accountID, usage); err != nil {
		// Композитное хранилище уже сделало локальный фолбэк; сюда попадают
		// только ошибки, при которых не удалась и локальная запись
		log.Printf("[UsageStore] Запись usage_data аккаунта %s не удалась: %v", accountID, err)
	}
}
