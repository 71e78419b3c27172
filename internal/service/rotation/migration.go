package rotation

import (
	"log"
	"sync"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
)

// MigrationAgent переводит записи использования со старой схемы
// идентификаторов на актуальную, сохраняя признак "использован".
// Старые ключи, которым не нашлось соответствия среди текущих вопросов,
// считаются протухшими и отбрасываются.
type MigrationAgent struct {
	store    *Store
	resolver *Resolver

	mu   sync.Mutex
	done map[string]bool
}

// NewMigrationAgent создает нового агента миграции
func NewMigrationAgent(store *Store, resolver *Resolver) *MigrationAgent {
	return &MigrationAgent{
		store:    store,
		resolver: resolver,
		done:     make(map[string]bool),
	}
}

// Migrate сканирует документ аккаунта и переносит записи старого формата.
// Выполняется не более одного раза за сессию аккаунта; результат записывается
// сразу, минуя коалесер: это редкая и ценная коррекция данных.
func (m *MigrationAgent) Migrate(accountID string, pool entity.QuestionPool) entity.MigrationReport {
	m.mu.Lock()
	if m.done[accountID] {
		m.mu.Unlock()
		return entity.MigrationReport{}
	}
	m.done[accountID] = true
	m.mu.Unlock()

	doc := m.store.Load(accountID)
	if len(doc.UsageData) == 0 {
		return entity.MigrationReport{}
	}

	// Сопоставление старый идентификатор -> актуальный по всем вопросам пула.
	// Отдельно запоминаем множество актуальных идентификаторов: ключ,
	// уже записанный в актуальной схеме, мигрировать не нужно, даже если
	// он содержит арабский текст (контентная идентичность).
	legacyToCurrent := make(map[string]string)
	currentIDs := make(map[string]bool)
	for categoryID, questions := range pool {
		for _, q := range questions {
			currentID := m.resolver.Resolve(q, categoryID)
			legacyToCurrent[m.resolver.ResolveLegacy(q, categoryID)] = currentID
			currentIDs[currentID] = true
		}
	}

	report := entity.MigrationReport{}
	for key, count := range doc.UsageData {
		if !IsLegacyKey(key) || currentIDs[key] {
			continue
		}

		// Старый ключ удаляется безусловно; признак использования
		// переносится, только если нашлось соответствие
		delete(doc.UsageData, key)
		if currentID, ok := legacyToCurrent[key]; ok && count > 0 {
			doc.UsageData[currentID] = count
			report.Migrated++
		} else {
			report.Discarded++
		}
	}

	if report.Migrated > 0 || report.Discarded > 0 {
		m.store.Save(accountID, doc.UsageData, true)
		log.Printf("[MigrationAgent] Аккаунт %s: перенесено %d, отброшено %d записей старого формата",
			accountID, report.Migrated, report.Discarded)
	}
	return report
}

// ResetSession сбрасывает сессионный гард миграции
func (m *MigrationAgent) ResetSession(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.done, accountID)
}
