package service

import (
	"log"
	"sync"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	"github.com/Meldroq8/trivia-game-sub006/internal/domain/repository"
	"github.com/Meldroq8/trivia-game-sub006/internal/service/rotation"
)

// RotationService — фасад движка ротации вопросов.
// Один экземпляр на процесс; состояние каждого аккаунта живет в компонентах
// движка под ключом аккаунта, поэтому аккаунты изолированы и тестируемы
// по отдельности. Фасад следит за сменой активного аккаунта устройства
// и сбрасывает сессионные гарды, чтобы данные не перетекали между аккаунтами.
type RotationService struct {
	config     *rotation.Config
	store      *rotation.Store
	resolver   *rotation.Resolver
	pool       *rotation.PoolManager
	migration  *rotation.MigrationAgent
	controller *rotation.Controller
	reconciler *rotation.HistoryReconciler
	gameRepo   repository.GameRepository

	mu            sync.Mutex
	activeAccount string
}

// NewRotationService создает фасад движка ротации
func NewRotationService(
	config *rotation.Config,
	usageStore repository.UsageStore,
	gameRepo repository.GameRepository,
	notifier rotation.Notifier,
) *RotationService {
	deps := &rotation.Dependencies{
		UsageStore: usageStore,
		Notifier:   notifier,
	}
	store := rotation.NewStore(config, deps)
	resolver := rotation.NewResolver(config)

	return &RotationService{
		config:     config,
		store:      store,
		resolver:   resolver,
		pool:       rotation.NewPoolManager(store, resolver),
		migration:  rotation.NewMigrationAgent(store, resolver),
		controller: rotation.NewController(config, store, resolver, notifier),
		reconciler: rotation.NewHistoryReconciler(store, resolver),
		gameRepo:   gameRepo,
	}
}

// SetAccount привязывает активный аккаунт. При смене аккаунта сессионные
// гарды и кеш предыдущего аккаунта сбрасываются (отложенные записи
// предварительно доливаются в хранилище).
func (s *RotationService) SetAccount(accountID string) {
	s.mu.Lock()
	previous := s.activeAccount
	s.activeAccount = accountID
	s.mu.Unlock()

	if previous != "" && previous != accountID {
		log.Printf("[RotationService] Смена активного аккаунта %s -> %s, сбрасываю сессионное состояние", previous, accountID)
		s.resetSession(previous)
	}
}

// resetSession сбрасывает сессионное состояние всех компонентов для аккаунта
func (s *RotationService) resetSession(accountID string) {
	s.controller.ResetSession(accountID)
	s.pool.ResetSession(accountID)
	s.migration.ResetSession(accountID)
	s.reconciler.ResetSession(accountID)
	s.store.ResetSession(accountID)
}

// UpdatePool загружает пул вопросов новой игры: сначала оппортунистическая
// миграция записей старого формата, затем пересчет размера пула
func (s *RotationService) UpdatePool(accountID string, pool entity.QuestionPool) (int, entity.MigrationReport) {
	report := s.migration.Migrate(accountID, pool)
	size, _ := s.pool.UpdatePool(accountID, pool)
	return size, report
}

// MarkUsed отмечает вопрос использованным (троттлинг-путь)
func (s *RotationService) MarkUsed(accountID string, q entity.Question, categoryID string) bool {
	return s.controller.MarkUsed(accountID, q, categoryID)
}

// MarkBatchUsed отмечает набор назначений одной немедленной записью
func (s *RotationService) MarkBatchUsed(accountID string, assignments []entity.AssignedQuestion) {
	s.controller.MarkBatchUsed(accountID, assignments)
}

// CheckAndReset выполняет проверку завершения цикла немедленно
func (s *RotationService) CheckAndReset(accountID string) bool {
	return s.controller.CheckAndReset(accountID)
}

// AvailableQuestions возвращает еще не использованные вопросы пула
func (s *RotationService) AvailableQuestions(accountID string, pool entity.QuestionPool, difficulty, categoryID string) entity.QuestionPool {
	return s.controller.AvailableQuestions(accountID, pool, difficulty, categoryID)
}

// Stats возвращает статистику текущего цикла
func (s *RotationService) Stats(accountID string) entity.UsageStats {
	return s.controller.Stats(accountID)
}

// UsageSnapshot возвращает копию карты использования (для отчетов)
func (s *RotationService) UsageSnapshot(accountID string) map[string]int {
	return s.store.Load(accountID).UsageData
}

// ResolveIdentity возвращает идентификатор вопроса в актуальной схеме
func (s *RotationService) ResolveIdentity(q entity.Question, categoryID string) string {
	return s.resolver.Resolve(q, categoryID)
}

// ResetCategory сбрасывает счетчики одной категории
func (s *RotationService) ResetCategory(accountID, categoryID string, questions []entity.Question) int {
	return s.controller.ResetCategory(accountID, categoryID, questions)
}

// ResetAll сбрасывает все счетчики аккаунта
func (s *RotationService) ResetAll(accountID string) {
	s.controller.ResetAll(accountID)
}

// Reconcile сверяет карту использования с историей игр из БД
func (s *RotationService) Reconcile(accountID string) (int, error) {
	games, err := s.gameRepo.ListByAccount(accountID)
	if err != nil {
		// Сбой чтения истории не фатален: сверка самовосстановления
		// просто откладывается до следующей сессии
		log.Printf("[RotationService] Не удалось прочитать историю игр аккаунта %s: %v", accountID, err)
		return 0, err
	}
	return s.reconciler.Reconcile(accountID, games), nil
}

// InvalidateReconciliation снимает сессионный гард сверки
func (s *RotationService) InvalidateReconciliation(accountID string) {
	s.reconciler.Invalidate(accountID)
}

// Flush синхронно доливает отложенные записи аккаунта
func (s *RotationService) Flush(accountID string) {
	s.store.Flush(accountID)
}

// FlushAll доливает все отложенные записи (вызывается при завершении процесса)
func (s *RotationService) FlushAll() {
	s.store.Coalescer().FlushAll()
}

// Clear полностью удаляет данные аккаунта (административная операция)
func (s *RotationService) Clear(accountID string) {
	s.resetSession(accountID)
	s.store.Clear(accountID)
}
