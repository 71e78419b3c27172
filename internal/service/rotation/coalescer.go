package rotation

import (
	"log"
	"sync"
	"time"
)

// CommitFunc выполняет фактическую запись карты использования в хранилище
type CommitFunc func(accountID string, usage map[string]int)

// coalescerState — состояние троттлинга одного аккаунта
type coalescerState struct {
	// lastCommit — момент последней выполненной записи
	lastCommit time.Time

	// timer — отложенная запись; не более одной на аккаунт
	timer *time.Timer

	// pending — полезная нагрузка отложенной записи (побеждает последняя)
	pending map[string]int
}

// WriteCoalescer сливает и троттлит записи в удаленное хранилище.
// Серия быстрых отметок использования во время игры без троттлинга породила бы
// запись на каждую отметку и риск исчерпания квоты; коалесер ограничивает
// частоту записей, сохраняя итоговое состояние (промежуточные не в очереди).
type WriteCoalescer struct {
	config *Config
	commit CommitFunc

	mu       sync.Mutex
	accounts map[string]*coalescerState
}

// NewWriteCoalescer создает новый коалесер записей
func NewWriteCoalescer(config *Config, commit CommitFunc) *WriteCoalescer {
	return &WriteCoalescer{
		config:   config,
		commit:   commit,
		accounts: make(map[string]*coalescerState),
	}
}

func (c *WriteCoalescer) state(accountID string) *coalescerState {
	st, ok := c.accounts[accountID]
	if !ok {
		st = &coalescerState{}
		c.accounts[accountID] = st
	}
	return st
}

// Save принимает запрос на запись. При immediate запись выполняется
// синхронно в обход троттлинга (и отменяет отложенную). Иначе: если прошло
// больше WriteInterval с последней записи и ничего не запланировано — запись
// выполняется сразу; иначе планируется отложенная запись на остаток интервала,
// при этом уже запланированная запись заменяется новым значением.
func (c *WriteCoalescer) Save(accountID string, usage map[string]int, immediate bool) {
	c.mu.Lock()
	st := c.state(accountID)
	now := time.Now()

	if immediate {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		st.pending = nil
		st.lastCommit = now
		c.mu.Unlock()
		c.commit(accountID, usage)
		return
	}

	elapsed := now.Sub(st.lastCommit)
	if st.timer == nil && elapsed >= c.config.WriteInterval {
		st.lastCommit = now
		c.mu.Unlock()
		c.commit(accountID, usage)
		return
	}

	// Внутри интервала: заменяем полезную нагрузку, таймер (если уже взведен)
	// сохраняет исходный момент срабатывания
	st.pending = usage
	if st.timer == nil {
		delay := c.config.WriteInterval - elapsed
		if delay <= 0 {
			delay = time.Millisecond
		}
		st.timer = time.AfterFunc(delay, func() { c.fire(accountID) })
		log.Printf("[WriteCoalescer] Запись для аккаунта %s отложена на %v", accountID, delay)
	}
	c.mu.Unlock()
}

// fire выполняет отложенную запись по срабатыванию таймера
func (c *WriteCoalescer) fire(accountID string) {
	c.mu.Lock()
	st := c.state(accountID)
	st.timer = nil
	usage := st.pending
	st.pending = nil
	if usage != nil {
		st.lastCommit = time.Now()
	}
	c.mu.Unlock()

	if usage != nil {
		c.commit(accountID, usage)
	}
}

// Flush синхронно выполняет отложенную запись аккаунта, если она есть.
// Используется при завершении процесса и в тестах вместо ожидания таймера.
func (c *WriteCoalescer) Flush(accountID string) {
	c.mu.Lock()
	st := c.state(accountID)
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	usage := st.pending
	st.pending = nil
	if usage != nil {
		st.lastCommit = time.Now()
	}
	c.mu.Unlock()

	if usage != nil {
		c.commit(accountID, usage)
	}
}

// FlushAll синхронно выполняет все отложенные записи
func (c *WriteCoalescer) FlushAll() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.accounts))
	for accountID := range c.accounts {
		ids = append(ids, accountID)
	}
	c.mu.Unlock()

	for _, accountID := range ids {
		c.Flush(accountID)
	}
}

// Reset сбрасывает состояние троттлинга аккаунта, отбрасывая отложенную запись.
// Вызывается при смене активного аккаунта на устройстве.
func (c *WriteCoalescer) Reset(accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st, ok := c.accounts[accountID]; ok {
		if st.timer != nil {
			st.timer.Stop()
		}
		delete(c.accounts, accountID)
	}
}
