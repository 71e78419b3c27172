package rotation

import (
	"regexp"
	"strings"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
)

// Resolver вычисляет стабильные идентификаторы вопросов.
// Для одной и той же пары (категория, вопрос) результат одинаков на любом
// устройстве и между перезапусками процесса: никакого времени и случайности.
// Это опора кросс-девайсной согласованности счетчиков использования.
type Resolver struct {
	config *Config
}

// NewResolver создает новый резолвер идентичности вопросов
func NewResolver(config *Config) *Resolver {
	return &Resolver{config: config}
}

// Resolve возвращает идентификатор вопроса в актуальной схеме.
// Предпочтительно используется внешний идентификатор документа; если он
// отсутствует или слишком короткий, идентичность выводится из содержимого.
func (r *Resolver) Resolve(q entity.Question, categoryID string) string {
	if len([]rune(q.DocID)) >= r.config.MinDocIDLength {
		return sanitizeKey(categoryID) + "-" + sanitizeKey(q.DocID)
	}
	return sanitizeKey(categoryID) +
		"-" + sanitizeKey(truncateRunes(q.Text, r.config.TextKeyLength)) +
		"-" + sanitizeKey(truncateRunes(q.Answer, r.config.AnswerKeyLength))
}

// ResolveLegacy возвращает идентификатор вопроса в старой схеме.
// Используется только MigrationAgent для сопоставления старых записей;
// новые идентификаторы в этой схеме никогда не создаются.
func (r *Resolver) ResolveLegacy(q entity.Question, categoryID string) string {
	return sanitizeKey(categoryID) +
		"-" + sanitizeKey(truncateRunes(q.Text, r.config.LegacyTextKeyLength)) +
		"-" + sanitizeKey(truncateRunes(q.Answer, r.config.LegacyAnswerKeyLength))
}

// legacyKeyPattern распознает ключи с внедренным естественным текстом:
// где-либо после префикса категории встречается не-ASCII символ (арабская
// буква) — в сегменте текста или в сегменте ответа. Непрозрачные
// идентификаторы документов целиком состоят из ASCII.
var legacyKeyPattern = regexp.MustCompile(`^[^-]+-.*[^\x00-\x7F]`)

// IsLegacyKey — чистый классификатор формата ключа.
// Выделен в именованный предикат, чтобы при появлении версионирования
// формата хранения его можно было заменить явной меткой версии схемы.
func IsLegacyKey(key string) bool {
	return legacyKeyPattern.MatchString(key)
}

// sanitizeKey приводит строку к безопасному для ключа хранилища набору
// символов: ASCII-буквы, цифры и арабские буквы; остальное заменяется на '_'
func sanitizeKey(s string) string {
	return strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return c
		case c >= 0x0600 && c <= 0x06FF: // арабский блок Unicode
			return c
		default:
			return '_'
		}
	}, s)
}

// truncateRunes усекает строку до n рун (не байтов: текст вопросов арабский)
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
