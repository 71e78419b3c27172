package rotation

import (
	"log"
	"sync"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
)

// PoolManager ведет учет размера текущего пула вопросов.
// Размер пула пересчитывается при загрузке выбора категорий новой игры и
// замещает предыдущее значение (не накапливается).
type PoolManager struct {
	store    *Store
	resolver *Resolver

	mu sync.Mutex
	// updated — аккаунты, для которых пул уже пересчитан в этой сессии
	updated map[string]bool
	// running — аккаунты, для которых пересчет выполняется прямо сейчас
	running map[string]bool
}

// NewPoolManager создает новый менеджер пула
func NewPoolManager(store *Store, resolver *Resolver) *PoolManager {
	return &PoolManager{
		store:    store,
		resolver: resolver,
		updated:  make(map[string]bool),
		running:  make(map[string]bool),
	}
}

// UpdatePool пересчитывает размер пула и заводит нулевые записи для новых
// вопросов (существующие ненулевые счетчики не перезаписываются).
// Операция выполняется не более одного раза за сессию аккаунта; параллельный
// повторный вызов — тихий no-op. Возвращает размер пула и признак того,
// что пересчет действительно выполнялся.
func (p *PoolManager) UpdatePool(accountID string, pool entity.QuestionPool) (int, bool) {
	p.mu.Lock()
	if p.updated[accountID] || p.running[accountID] {
		p.mu.Unlock()
		log.Printf("[PoolManager] Пул аккаунта %s уже пересчитан в этой сессии, пропускаю", accountID)
		return p.store.LoadPoolSize(accountID), false
	}
	p.running[accountID] = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running[accountID] = false
		p.updated[accountID] = true
		p.mu.Unlock()
	}()

	poolSize := pool.TotalCount()
	p.store.SavePoolSize(accountID, poolSize)

	doc := p.store.Load(accountID)
	added := 0
	for categoryID, questions := range pool {
		for _, q := range questions {
			id := p.resolver.Resolve(q, categoryID)
			if _, exists := doc.UsageData[id]; !exists {
				doc.UsageData[id] = 0
				added++
			}
		}
	}

	if added > 0 {
		p.store.Save(accountID, doc.UsageData, false)
	}
	log.Printf("[PoolManager] Пул аккаунта %s: размер %d, новых записей %d", accountID, poolSize, added)

	return poolSize, true
}

// ResetSession сбрасывает сессионный гард пересчета пула
func (p *PoolManager) ResetSession(accountID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.updated, accountID)
	delete(p.running, accountID)
}
