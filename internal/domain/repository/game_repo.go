package repository

import (
	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
)

// GameRepository определяет методы для работы с историей сыгранных игр
type GameRepository interface {
	Create(game *entity.Game) error
	GetByID(id uint) (*entity.Game, error)

	// ListByAccount возвращает все игры аккаунта, новые первыми
	ListByAccount(accountID string) ([]entity.Game, error)

	// Delete удаляет игру аккаунта. Возвращает apperrors.ErrNotFound,
	// если игра не существует или принадлежит другому аккаунту.
	Delete(id uint, accountID string) error
}
