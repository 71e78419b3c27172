package dto

import (
	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
)

// UpdatePoolRequest — запрос на загрузку пула вопросов текущей игры
type UpdatePoolRequest struct {
	Categories []entity.CategoryQuestions `json:"categories" binding:"required,min=1,dive"`
}

// UpdatePoolResponse — результат пересчета пула
type UpdatePoolResponse struct {
	PoolSize  int                    `json:"pool_size"`
	Migration entity.MigrationReport `json:"migration"`
}

// MarkUsedRequest — запрос на отметку одного вопроса использованным
type MarkUsedRequest struct {
	CategoryID string          `json:"category_id" binding:"required"`
	Question   entity.Question `json:"question" binding:"required"`
}

// MarkUsedResponse сообщает, изменилось ли состояние
type MarkUsedResponse struct {
	Marked bool `json:"marked"`
}

// MarkBatchRequest — запрос на пакетную отметку назначенных вопросов
type MarkBatchRequest struct {
	Assignments []entity.AssignedQuestion `json:"assignments" binding:"required,min=1"`
}

// AvailableQuestionsRequest — запрос доступных (неиспользованных) вопросов.
// Difficulty и CategoryID — необязательные фильтры.
type AvailableQuestionsRequest struct {
	Categories []entity.CategoryQuestions `json:"categories" binding:"required,min=1,dive"`
	Difficulty string                     `json:"difficulty"`
	CategoryID string                     `json:"category_id"`
}

// AvailableQuestionsResponse — отфильтрованный пул
type AvailableQuestionsResponse struct {
	Categories []entity.CategoryQuestions `json:"categories"`
	Total      int                        `json:"total"`
}

// ResetCategoryRequest — запрос на сброс счетчиков одной категории
type ResetCategoryRequest struct {
	CategoryID string            `json:"category_id" binding:"required"`
	Questions  []entity.Question `json:"questions" binding:"required,min=1"`
}

// ResetCategoryResponse — число сброшенных записей
type ResetCategoryResponse struct {
	Reset int `json:"reset"`
}

// ReconcileResponse — результат сверки с историей игр
type ReconcileResponse struct {
	Restored int  `json:"restored"`
	Skipped  bool `json:"skipped"`
}

// CreateGameRequest — запрос на создание игры
type CreateGameRequest struct {
	Name       string              `json:"name" binding:"required,min=1,max=200"`
	Selections []GameSelectionItem `json:"selections" binding:"required,min=1,dive"`
}

// GameSelectionItem — вопрос, выбранный для игрового слота
type GameSelectionItem struct {
	CategoryID string          `json:"category_id" binding:"required"`
	Question   entity.Question `json:"question" binding:"required"`
}
