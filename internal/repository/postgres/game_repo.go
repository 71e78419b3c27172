package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	apperrors "github.com/Meldroq8/trivia-game-sub006/internal/pkg/errors"
)

// GameRepo реализует repository.GameRepository
type GameRepo struct {
	db *gorm.DB
}

// NewGameRepo создает новый репозиторий истории игр
func NewGameRepo(db *gorm.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create создает запись игры
func (r *GameRepo) Create(game *entity.Game) error {
	return r.db.Create(game).Error
}

// GetByID возвращает игру по ID
func (r *GameRepo) GetByID(id uint) (*entity.Game, error) {
	var game entity.Game
	err := r.db.First(&game, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// ListByAccount возвращает все игры аккаунта, новые первыми
func (r *GameRepo) ListByAccount(accountID string) ([]entity.Game, error) {
	var games []entity.Game
	err := r.db.Where("account_id = ?", accountID).Order("created_at DESC").Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

// Delete удаляет игру аккаунта
func (r *GameRepo) Delete(id uint, accountID string) error {
	result := r.db.Where("id = ? AND account_id = ?", id, accountID).Delete(&entity.Game{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
