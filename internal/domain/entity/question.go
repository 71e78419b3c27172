package entity

// Question представляет вопрос из пула ротации.
// DocID — внешний долговечный идентификатор документа вопроса; может отсутствовать
// у старых вопросов, тогда идентичность выводится из текста и ответа.
type Question struct {
	DocID      string `json:"doc_id,omitempty"`
	Text       string `json:"text" binding:"required"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty,omitempty"`
}

// CategoryQuestions группирует вопросы одной категории.
// Используется как единица передачи пула от вызывающего слоя.
type CategoryQuestions struct {
	CategoryID string     `json:"category_id" binding:"required"`
	Questions  []Question `json:"questions"`
}

// QuestionPool — полный пул вопросов текущей игры, сгруппированный по категориям
type QuestionPool map[string][]Question

// TotalCount возвращает общее число вопросов во всех категориях пула
func (p QuestionPool) TotalCount() int {
	total := 0
	for _, questions := range p {
		total += len(questions)
	}
	return total
}

// PoolFromCategories собирает QuestionPool из списка категорий.
// Вопросы повторяющихся категорий объединяются.
func PoolFromCategories(categories []CategoryQuestions) QuestionPool {
	pool := make(QuestionPool, len(categories))
	for _, c := range categories {
		pool[c.CategoryID] = append(pool[c.CategoryID], c.Questions...)
	}
	return pool
}
