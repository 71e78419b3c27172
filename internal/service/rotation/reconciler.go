package rotation

import (
	"log"
	"sync"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
)

// HistoryReconciler восстанавливает карту использования из авторитетной
// истории сыгранных игр. Выполняется раз за сессию аккаунта и устраняет
// расхождения, накопившиеся между устройствами.
type HistoryReconciler struct {
	store    *Store
	resolver *Resolver

	mu sync.Mutex
	// done — аккаунты, сверенные в этой сессии; running — сверка в полете
	done    map[string]bool
	running map[string]bool
}

// NewHistoryReconciler создает новый реконсилер истории
func NewHistoryReconciler(store *Store, resolver *Resolver) *HistoryReconciler {
	return &HistoryReconciler{
		store:    store,
		resolver: resolver,
		done:     make(map[string]bool),
		running:  make(map[string]bool),
	}
}

// Reconcile перестраивает карту использования по записям игр.
// Для каждой игры предпочитается послотовая запись назначений; для старых игр
// без нее используется плоский список ключей использованных слотов. Непустой
// результат целиком замещает текущую карту (немедленная запись); пустой
// результат намеренно оставляет состояние нетронутым, чтобы временно пустое
// чтение истории не стерло накопленные данные.
// Возвращает число восстановленных записей (0 — сверка пропущена или пуста).
func (r *HistoryReconciler) Reconcile(accountID string, games []entity.Game) int {
	r.mu.Lock()
	if r.done[accountID] || r.running[accountID] {
		r.mu.Unlock()
		log.Printf("[HistoryReconciler] Сверка для аккаунта %s уже выполнена в этой сессии, пропускаю", accountID)
		return 0
	}
	r.running[accountID] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running[accountID] = false
		r.done[accountID] = true
		r.mu.Unlock()
	}()

	rebuilt := make(map[string]int)
	for _, game := range games {
		if len(game.AssignedQuestions) > 0 {
			for _, a := range game.AssignedQuestions {
				id := a.TrackingID
				if id == "" {
					id = sanitizeKey(a.CategoryID) + "-" + sanitizeKey(a.QuestionID)
				}
				rebuilt[id] = 1
			}
			continue
		}
		// Игры старого формата: ключи слотов уже являются идентификаторами
		// вопросов (возможно, в старой схеме — их подхватит миграция)
		for _, key := range game.UsedQuestions {
			if key == "" {
				continue
			}
			rebuilt[sanitizeKey(key)] = 1
		}
	}

	if len(rebuilt) == 0 {
		log.Printf("[HistoryReconciler] История аккаунта %s пуста, существующее состояние не тронуто", accountID)
		return 0
	}

	r.store.Save(accountID, rebuilt, true)
	log.Printf("[HistoryReconciler] Аккаунт %s: восстановлено %d записей из %d игр", accountID, len(rebuilt), len(games))
	return len(rebuilt)
}

// Invalidate снимает сессионный гард: следующая сверка выполнится заново.
// Вызывается после действий, меняющих историю (например, удаления игры).
func (r *HistoryReconciler) Invalidate(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.done, accountID)
}

// ResetSession сбрасывает сессионное состояние реконсилера
func (r *HistoryReconciler) ResetSession(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.done, accountID)
	delete(r.running, accountID)
}
