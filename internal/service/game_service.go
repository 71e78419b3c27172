package service

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	"github.com/Meldroq8/trivia-game-sub006/internal/domain/repository"
)

// GameSelection — выбранный для игрового слота вопрос
type GameSelection struct {
	CategoryID string
	Question   entity.Question
}

// GameService создает и удаляет записи истории игр.
// Создание игры — точка, где набор выбранных вопросов пакетно отмечается
// использованным; удаление инвалидирует сверку истории.
type GameService struct {
	gameRepo repository.GameRepository
	rotation *RotationService
}

// NewGameService создает новый сервис истории игр
func NewGameService(gameRepo repository.GameRepository, rotation *RotationService) *GameService {
	return &GameService{
		gameRepo: gameRepo,
		rotation: rotation,
	}
}

// CreateGame сохраняет запись игры с назначениями вопросов по слотам и
// пакетно отмечает вопросы использованными одной немедленной записью
func (s *GameService) CreateGame(accountID, name string, selections []GameSelection) (*entity.Game, error) {
	if len(selections) == 0 {
		return nil, fmt.Errorf("game must contain at least one question")
	}

	assignments := make(entity.AssignedQuestionMap, len(selections))
	batch := make([]entity.AssignedQuestion, 0, len(selections))
	for i, sel := range selections {
		assigned := entity.AssignedQuestion{
			TrackingID: s.rotation.ResolveIdentity(sel.Question, sel.CategoryID),
			CategoryID: sel.CategoryID,
			QuestionID: sel.Question.DocID,
		}
		assignments[fmt.Sprintf("slot%d", i+1)] = assigned
		batch = append(batch, assigned)
	}

	game := &entity.Game{
		PublicID:          uuid.New().String(),
		AccountID:         accountID,
		Name:              name,
		AssignedQuestions: assignments,
	}
	if err := s.gameRepo.Create(game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	s.rotation.MarkBatchUsed(accountID, batch)
	log.Printf("[GameService] Аккаунт %s: создана игра %s с %d вопросами", accountID, game.PublicID, len(batch))
	return game, nil
}

// ListGames возвращает историю игр аккаунта
func (s *GameService) ListGames(accountID string) ([]entity.Game, error) {
	return s.gameRepo.ListByAccount(accountID)
}

// DeleteGame удаляет игру и инвалидирует сверку истории:
// следующая сверка перечитает изменившуюся историю
func (s *GameService) DeleteGame(accountID string, id uint) error {
	if err := s.gameRepo.Delete(id, accountID); err != nil {
		return err
	}
	s.rotation.InvalidateReconciliation(accountID)
	return nil
}
