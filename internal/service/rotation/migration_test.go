package rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
)

// ============================================================================
// Тесты MigrationAgent: перенос записей старого формата идентификаторов
// ============================================================================

func newTestMigrationAgent(fake *fakeUsageStore) (*MigrationAgent, *Store, *Resolver) {
	cfg := testConfig()
	store := NewStore(cfg, &Dependencies{UsageStore: fake, Notifier: NoOpNotifier{}})
	resolver := NewResolver(cfg)
	return NewMigrationAgent(store, resolver), store, resolver
}

func TestMigrationAgent_CarriesUsageToCurrentScheme(t *testing.T) {
	fake := newFakeUsageStore()
	agent, store, resolver := newTestMigrationAgent(fake)

	q := entity.Question{DocID: "docId12345", Text: "السؤال١", Answer: "جواب"}
	pool := entity.QuestionPool{"cat1": {q}}
	legacyKey := resolver.ResolveLegacy(q, "cat1")
	currentKey := resolver.Resolve(q, "cat1")
	require.NotEqual(t, legacyKey, currentKey)

	store.Save("acc1", map[string]int{legacyKey: 1}, true)

	report := agent.Migrate("acc1", pool)
	assert.Equal(t, 1, report.Migrated)
	assert.Equal(t, 0, report.Discarded)

	// Признак использования переехал на актуальный ключ, старый удален
	doc := store.Load("acc1")
	assert.Equal(t, 1, doc.UsageData[currentKey])
	_, stillThere := doc.UsageData[legacyKey]
	assert.False(t, stillThere)

	// Результат записан немедленно, минуя троттлинг
	assert.Equal(t, map[string]int{currentKey: 1}, fake.savedUsage("acc1"))
}

func TestMigrationAgent_CarriesKeyWithArabicAnswerOnly(t *testing.T) {
	fake := newFakeUsageStore()
	agent, store, resolver := newTestMigrationAgent(fake)

	// Текст вопроса ASCII, арабский только в сегменте ответа —
	// ключ все равно относится к старой схеме
	q := entity.Question{DocID: "docId12345", Text: "what is the capital", Answer: "باريس"}
	pool := entity.QuestionPool{"cat1": {q}}
	legacyKey := resolver.ResolveLegacy(q, "cat1")
	currentKey := resolver.Resolve(q, "cat1")
	require.True(t, IsLegacyKey(legacyKey))

	store.Save("acc1", map[string]int{legacyKey: 1}, true)

	report := agent.Migrate("acc1", pool)
	assert.Equal(t, 1, report.Migrated)
	assert.Equal(t, 0, report.Discarded)

	doc := store.Load("acc1")
	assert.Equal(t, 1, doc.UsageData[currentKey])
	_, stillThere := doc.UsageData[legacyKey]
	assert.False(t, stillThere)
}

func TestMigrationAgent_DiscardsStaleLegacyKeys(t *testing.T) {
	fake := newFakeUsageStore()
	agent, store, _ := newTestMigrationAgent(fake)

	// Старый ключ вопроса, которого больше нет в пуле
	store.Save("acc1", map[string]int{"cat1-سؤال_قديم-جواب": 1}, true)

	report := agent.Migrate("acc1", entity.QuestionPool{"cat1": {
		{DocID: "docId12345", Text: "السؤال١", Answer: "جواب"},
	}})
	assert.Equal(t, 0, report.Migrated)
	assert.Equal(t, 1, report.Discarded)

	doc := store.Load("acc1")
	assert.Empty(t, doc.UsageData)
}

func TestMigrationAgent_LeavesCurrentSchemeKeysUntouched(t *testing.T) {
	fake := newFakeUsageStore()
	agent, store, resolver := newTestMigrationAgent(fake)

	// Вопрос без пригодного DocID: актуальный ключ выводится из содержимого
	// и сам содержит арабский текст
	q := entity.Question{Text: "السؤال١", Answer: "جواب"}
	pool := entity.QuestionPool{"cat1": {q}}
	currentKey := resolver.Resolve(q, "cat1")

	store.Save("acc1", map[string]int{currentKey: 1}, true)

	report := agent.Migrate("acc1", pool)
	assert.Equal(t, 0, report.Migrated)
	assert.Equal(t, 0, report.Discarded)

	doc := store.Load("acc1")
	assert.Equal(t, 1, doc.UsageData[currentKey])
}

func TestMigrationAgent_IgnoresOpaqueCurrentKeys(t *testing.T) {
	fake := newFakeUsageStore()
	agent, store, resolver := newTestMigrationAgent(fake)

	q := entity.Question{DocID: "docId12345", Text: "السؤال١", Answer: "جواب"}
	pool := entity.QuestionPool{"cat1": {q}}
	currentKey := resolver.Resolve(q, "cat1")

	store.Save("acc1", map[string]int{currentKey: 1}, true)

	// Ключ в актуальной схеме (ASCII) миграции не подлежит
	report := agent.Migrate("acc1", pool)
	assert.Equal(t, 0, report.Migrated)
	assert.Equal(t, 0, report.Discarded)

	doc := store.Load("acc1")
	assert.Equal(t, 1, doc.UsageData[currentKey])
}

func TestMigrationAgent_RunsOncePerSession(t *testing.T) {
	fake := newFakeUsageStore()
	agent, store, resolver := newTestMigrationAgent(fake)

	q := entity.Question{DocID: "docId12345", Text: "السؤال١", Answer: "جواب"}
	pool := entity.QuestionPool{"cat1": {q}}
	legacyKey := resolver.ResolveLegacy(q, "cat1")

	store.Save("acc1", map[string]int{legacyKey: 1}, true)

	first := agent.Migrate("acc1", pool)
	assert.Equal(t, 1, first.Migrated)

	// Вторая миграция в той же сессии — no-op с пустым отчетом
	store.Save("acc1", map[string]int{legacyKey: 1}, true)
	second := agent.Migrate("acc1", pool)
	assert.Equal(t, entity.MigrationReport{}, second)

	// После сброса сессии миграция выполняется снова
	agent.ResetSession("acc1")
	third := agent.Migrate("acc1", pool)
	assert.Equal(t, 1, third.Migrated)
}

func TestMigrationAgent_EmptyDocumentIsNoOp(t *testing.T) {
	fake := newFakeUsageStore()
	agent, _, _ := newTestMigrationAgent(fake)

	report := agent.Migrate("acc1", threeQuestionPool())
	assert.Equal(t, entity.MigrationReport{}, report)
	assert.Equal(t, 0, fake.usageSaveCount())
}
