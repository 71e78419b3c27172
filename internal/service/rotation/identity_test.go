package rotation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
)

// ============================================================================
// Тесты Resolver: детерминизм, схемы идентичности, санитизация
// ============================================================================

func TestResolver_Resolve_PrefersDocID(t *testing.T) {
	resolver := NewResolver(DefaultConfig())

	q := entity.Question{
		DocID:  "abc123def456",
		Text:   "ما هي عاصمة فرنسا؟",
		Answer: "باريس",
	}

	id := resolver.Resolve(q, "cat1")
	assert.Equal(t, "cat1-abc123def456", id)
}

func TestResolver_Resolve_ShortDocIDFallsBackToContent(t *testing.T) {
	resolver := NewResolver(DefaultConfig())

	// DocID короче минимальной длины непригоден для идентичности
	q := entity.Question{
		DocID:  "short",
		Text:   "question text",
		Answer: "answer",
	}

	id := resolver.Resolve(q, "cat1")
	assert.Equal(t, "cat1-question_text-answer", id)
}

func TestResolver_Resolve_Deterministic(t *testing.T) {
	resolver := NewResolver(DefaultConfig())

	q := entity.Question{Text: "ما هي عاصمة فرنسا؟", Answer: "باريس"}

	first := resolver.Resolve(q, "cat1")
	second := resolver.Resolve(q, "cat1")
	assert.Equal(t, first, second)

	// Другой экземпляр резолвера дает тот же результат
	other := NewResolver(DefaultConfig())
	assert.Equal(t, first, other.Resolve(q, "cat1"))
}

func TestResolver_Resolve_SanitizesToKeySafeCharset(t *testing.T) {
	resolver := NewResolver(DefaultConfig())

	q := entity.Question{Text: "what is 2+2? (easy)", Answer: "it's 4!"}

	id := resolver.Resolve(q, "cat1")
	// Допустимы только ASCII-буквы, цифры, арабские буквы, '_' и разделители '-'
	for _, c := range id {
		ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || (c >= 0x0600 && c <= 0x06FF) ||
			c == '_' || c == '-'
		assert.True(t, ok, "недопустимый символ %q в идентификаторе %s", c, id)
	}
}

func TestResolver_Resolve_TruncatesByRunes(t *testing.T) {
	cfg := DefaultConfig()
	resolver := NewResolver(cfg)

	longText := strings.Repeat("س", 300)
	longAnswer := strings.Repeat("ج", 200)
	q := entity.Question{Text: longText, Answer: longAnswer}

	id := resolver.Resolve(q, "cat1")
	runes := []rune(id)
	// "cat1" + "-" + 100 рун текста + "-" + 50 рун ответа
	assert.Len(t, runes, 4+1+cfg.TextKeyLength+1+cfg.AnswerKeyLength)
}

func TestResolver_ResolveLegacy_UsesShorterBounds(t *testing.T) {
	cfg := DefaultConfig()
	resolver := NewResolver(cfg)

	longText := strings.Repeat("س", 300)
	longAnswer := strings.Repeat("ج", 200)
	q := entity.Question{Text: longText, Answer: longAnswer}

	legacyID := resolver.ResolveLegacy(q, "cat1")
	runes := []rune(legacyID)
	assert.Len(t, runes, 4+1+cfg.LegacyTextKeyLength+1+cfg.LegacyAnswerKeyLength)
}

func TestResolver_ResolveLegacy_IgnoresDocID(t *testing.T) {
	resolver := NewResolver(DefaultConfig())

	// Старая схема никогда не использовала идентификатор документа
	withDocID := entity.Question{DocID: "abc123def456", Text: "نص السؤال", Answer: "جواب"}
	withoutDocID := entity.Question{Text: "نص السؤال", Answer: "جواب"}

	assert.Equal(t,
		resolver.ResolveLegacy(withoutDocID, "cat1"),
		resolver.ResolveLegacy(withDocID, "cat1"),
	)
}

func TestIsLegacyKey(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		legacy bool
	}{
		{"ключ с арабским текстом", "cat1-السؤال١-جواب", true},
		{"арабский только в сегменте ответа", "cat1-what_is_the_capital-باريس", true},
		{"непрозрачный идентификатор документа", "cat1-abc123def456", false},
		{"подчеркивания и цифры", "cat1-question_text_42-answer", false},
		{"арабский глубже в ключе", "cat1-q1_السؤال-ج", true},
		{"пустая строка", "", false},
		{"без префикса категории", "abc123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.legacy, IsLegacyKey(tt.key))
		})
	}
}
