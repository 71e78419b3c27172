package rotation

import (
	"time"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	"github.com/Meldroq8/trivia-game-sub006/internal/domain/repository"
)

// Config содержит настройки движка ротации вопросов
type Config struct {
	// WriteInterval — минимальный интервал между записями в удаленное хранилище.
	// Частые отметки использования внутри интервала сливаются в одну запись.
	WriteInterval time.Duration

	// CycleCheckDelay — задержка фоновой проверки завершения цикла после
	// отметки вопроса. Должна превышать WriteInterval, чтобы проверка
	// не конкурировала с отложенной записью.
	CycleCheckDelay time.Duration

	// MinDocIDLength — минимальная длина внешнего идентификатора документа,
	// при которой он считается пригодным для построения идентичности вопроса
	MinDocIDLength int

	// TextKeyLength / AnswerKeyLength — границы усечения текста и ответа
	// при выводе идентичности из содержимого (актуальная схема)
	TextKeyLength   int
	AnswerKeyLength int

	// LegacyTextKeyLength / LegacyAnswerKeyLength — границы усечения
	// старой схемы. Используются только для распознавания старых записей.
	LegacyTextKeyLength   int
	LegacyAnswerKeyLength int
}

// DefaultConfig возвращает конфигурацию движка по умолчанию
func DefaultConfig() *Config {
	return &Config{
		WriteInterval:         5 * time.Second,
		CycleCheckDelay:       6 * time.Second,
		MinDocIDLength:        10,
		TextKeyLength:         100,
		AnswerKeyLength:       50,
		LegacyTextKeyLength:   50,
		LegacyAnswerKeyLength: 20,
	}
}

// Notifier получает пользовательские уведомления движка
type Notifier interface {
	// NotifyCycleComplete вызывается, когда все вопросы пула показаны
	// и счетчики сброшены для нового круга
	NotifyCycleComplete(accountID string, stats entity.UsageStats)
}

// NoOpNotifier — заглушка для окружений без канала уведомлений
type NoOpNotifier struct{}

// NotifyCycleComplete ничего не делает
func (NoOpNotifier) NotifyCycleComplete(accountID string, stats entity.UsageStats) {}

// Dependencies содержит внешние зависимости движка ротации
type Dependencies struct {
	// UsageStore — персистентное хранилище документов использования
	// (композиция удаленного и локального, см. internal/repository/fallback)
	UsageStore repository.UsageStore

	// Notifier — получатель уведомлений о завершении цикла
	Notifier Notifier
}
