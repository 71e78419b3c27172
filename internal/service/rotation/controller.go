package rotation

import (
	"log"
	"sync"
	"time"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
)

// Controller реализует гарантию ротации: пока пул не исчерпан целиком,
// ни один вопрос не показывается повторно. Когда число использованных
// вопросов достигает размера пула, все счетчики сбрасываются в ноль
// и испускается пользовательское уведомление.
type Controller struct {
	config   *Config
	store    *Store
	resolver *Resolver
	notifier Notifier

	mu sync.Mutex
	// checkTimers — отложенные фоновые проверки завершения цикла, по одной на аккаунт
	checkTimers map[string]*time.Timer
}

// NewController создает новый контроллер ротации
func NewController(config *Config, store *Store, resolver *Resolver, notifier Notifier) *Controller {
	if notifier == nil {
		notifier = NoOpNotifier{}
	}
	return &Controller{
		config:      config,
		store:       store,
		resolver:    resolver,
		notifier:    notifier,
		checkTimers: make(map[string]*time.Timer),
	}
}

// MarkUsed отмечает вопрос использованным. Идемпотентно: уже отмеченный
// вопрос не "досчитывается" повторно, счетчик никогда не превышает 1.
// Запись идет через троттлинг ради отзывчивости; проверка завершения цикла
// откладывается, чтобы не конкурировать с отложенной записью.
// Возвращает true, если состояние действительно изменилось.
func (c *Controller) MarkUsed(accountID string, q entity.Question, categoryID string) bool {
	id := c.resolver.Resolve(q, categoryID)

	doc := c.store.Load(accountID)
	if doc.UsageData[id] > 0 {
		return false
	}

	doc.UsageData[id] = 1
	c.store.Save(accountID, doc.UsageData, false)
	c.scheduleCycleCheck(accountID)
	return true
}

// MarkBatchUsed отмечает набор назначенных вопросов одной немедленной записью.
// Вызывается при создании игры: эта отметка сопутствует платному действию
// и не должна потеряться в троттлинге.
func (c *Controller) MarkBatchUsed(accountID string, assignments []entity.AssignedQuestion) {
	if len(assignments) == 0 {
		return
	}

	doc := c.store.Load(accountID)
	for _, a := range assignments {
		id := a.TrackingID
		if id == "" {
			id = sanitizeKey(a.CategoryID) + "-" + sanitizeKey(a.QuestionID)
		}
		doc.UsageData[id] = 1
	}
	c.store.Save(accountID, doc.UsageData, true)
	log.Printf("[RotationController] Аккаунт %s: пакетно отмечено %d вопросов", accountID, len(assignments))

	c.scheduleCycleCheck(accountID)
}

// CheckAndReset сравнивает число использованных вопросов с размером пула.
// При исчерпании пула все счетчики сбрасываются в ноль (немедленная запись)
// и испускается уведомление о завершении цикла. Нулевой (неизвестный)
// размер пула проверку отключает. Возвращает true при выполненном сбросе.
func (c *Controller) CheckAndReset(accountID string) bool {
	poolSize := c.store.LoadPoolSize(accountID)
	if poolSize <= 0 {
		return false
	}

	doc := c.store.Load(accountID)
	used := doc.UsedCount()
	if used < poolSize {
		return false
	}

	log.Printf("[RotationController] Аккаунт %s: цикл завершен (%d из %d), сбрасываю счетчики", accountID, used, poolSize)
	for id := range doc.UsageData {
		doc.UsageData[id] = 0
	}
	c.store.Save(accountID, doc.UsageData, true)

	// Статистика в уведомлении описывает завершившийся цикл нового круга:
	// пул прежний, использовано снова ноль
	c.notifier.NotifyCycleComplete(accountID, entity.UsageStats{
		PoolSize:      poolSize,
		UnusedCount:   poolSize,
		CycleComplete: true,
	})
	return true
}

// ResetCategory сбрасывает счетчики только одной категории
// (административный повтор категории)
func (c *Controller) ResetCategory(accountID, categoryID string, questions []entity.Question) int {
	doc := c.store.Load(accountID)
	reset := 0
	for _, q := range questions {
		id := c.resolver.Resolve(q, categoryID)
		if count, ok := doc.UsageData[id]; ok && count > 0 {
			doc.UsageData[id] = 0
			reset++
		}
	}
	if reset > 0 {
		c.store.Save(accountID, doc.UsageData, true)
	}
	log.Printf("[RotationController] Аккаунт %s: сброшено %d вопросов категории %s", accountID, reset, categoryID)
	return reset
}

// ResetAll сбрасывает все счетчики независимо от состояния цикла
// (явный пользовательский сброс)
func (c *Controller) ResetAll(accountID string) {
	doc := c.store.Load(accountID)
	for id := range doc.UsageData {
		doc.UsageData[id] = 0
	}
	c.store.Save(accountID, doc.UsageData, true)
	log.Printf("[RotationController] Аккаунт %s: полный сброс счетчиков", accountID)
}

// AvailableQuestions фильтрует пул: остаются вопросы, еще не использованные
// в текущем цикле, с необязательным отбором по сложности и категории
func (c *Controller) AvailableQuestions(accountID string, pool entity.QuestionPool, difficulty, categoryID string) entity.QuestionPool {
	doc := c.store.Load(accountID)

	available := make(entity.QuestionPool)
	for catID, questions := range pool {
		if categoryID != "" && catID != categoryID {
			continue
		}
		for _, q := range questions {
			if difficulty != "" && q.Difficulty != difficulty {
				continue
			}
			if doc.UsageData[c.resolver.Resolve(q, catID)] > 0 {
				continue
			}
			available[catID] = append(available[catID], q)
		}
	}
	return available
}

// Stats возвращает статистику прохождения текущего цикла
func (c *Controller) Stats(accountID string) entity.UsageStats {
	doc := c.store.Load(accountID)
	return entity.BuildUsageStats(doc, c.store.LoadPoolSize(accountID))
}

// scheduleCycleCheck взводит отложенную фоновую проверку завершения цикла.
// Уже взведенная проверка заменяется: достаточно одной после серии отметок.
func (c *Controller) scheduleCycleCheck(accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timer, ok := c.checkTimers[accountID]; ok {
		timer.Stop()
	}
	c.checkTimers[accountID] = time.AfterFunc(c.config.CycleCheckDelay, func() {
		c.mu.Lock()
		delete(c.checkTimers, accountID)
		c.mu.Unlock()
		c.CheckAndReset(accountID)
	})
}

// ResetSession отменяет отложенные проверки аккаунта
func (c *Controller) ResetSession(accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timer, ok := c.checkTimers[accountID]; ok {
		timer.Stop()
		delete(c.checkTimers, accountID)
	}
}
