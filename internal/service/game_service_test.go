package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	apperrors "github.com/Meldroq8/trivia-game-sub006/internal/pkg/errors"
)

// ============================================================================
// Тесты GameService
// ============================================================================

func newTestGameService(usage *fakeUsageStore, games *fakeGameRepo) (*GameService, *RotationService) {
	rotationSvc := newTestRotationService(usage, games)
	return NewGameService(games, rotationSvc), rotationSvc
}

func TestGameService_CreateGamePersistsAssignmentsAndMarksUsage(t *testing.T) {
	usage := newFakeUsageStore()
	games := newFakeGameRepo()
	svc, rotationSvc := newTestGameService(usage, games)

	game, err := svc.CreateGame("acc1", "Пятничная игра", []GameSelection{
		{CategoryID: "history", Question: entity.Question{DocID: "histDoc0001", Text: "Вопрос А"}},
		{CategoryID: "science", Question: entity.Question{DocID: "sciDoc00001", Text: "Вопрос Б"}},
	})
	require.NoError(t, err)
	require.NotNil(t, game)
	assert.NotEmpty(t, game.PublicID)
	assert.Equal(t, "acc1", game.AccountID)

	// Послотовые назначения с идентификаторами актуальной схемы
	require.Len(t, game.AssignedQuestions, 2)
	assert.Equal(t, "history-histDoc0001", game.AssignedQuestions["slot1"].TrackingID)
	assert.Equal(t, "science-sciDoc00001", game.AssignedQuestions["slot2"].TrackingID)

	// Игра записана в репозиторий
	saved, err := games.GetByID(game.ID)
	require.NoError(t, err)
	assert.Equal(t, game.PublicID, saved.PublicID)

	// Вопросы пакетно отмечены использованными немедленной записью
	snapshot := rotationSvc.UsageSnapshot("acc1")
	assert.Equal(t, 1, snapshot["history-histDoc0001"])
	assert.Equal(t, 1, snapshot["science-sciDoc00001"])
	assert.Equal(t, 1, usage.savedUsage("acc1")["history-histDoc0001"])
}

func TestGameService_CreateGameRejectsEmptySelection(t *testing.T) {
	svc, _ := newTestGameService(newFakeUsageStore(), newFakeGameRepo())

	game, err := svc.CreateGame("acc1", "Пустая игра", nil)
	assert.Error(t, err)
	assert.Nil(t, game)
}

func TestGameService_DeleteGameChecksOwnership(t *testing.T) {
	usage := newFakeUsageStore()
	games := newFakeGameRepo()
	svc, _ := newTestGameService(usage, games)

	game, err := svc.CreateGame("acc1", "Игра", []GameSelection{
		{CategoryID: "history", Question: entity.Question{DocID: "histDoc0001"}},
	})
	require.NoError(t, err)

	// Чужой аккаунт не может удалить игру
	err = svc.DeleteGame("acc2", game.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.DeleteGame("acc1", game.ID))
	_, err = games.GetByID(game.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGameService_DeleteGameInvalidatesReconciliation(t *testing.T) {
	usage := newFakeUsageStore()
	games := newFakeGameRepo()
	svc, rotationSvc := newTestGameService(usage, games)

	first, err := svc.CreateGame("acc1", "Первая", []GameSelection{
		{CategoryID: "history", Question: entity.Question{DocID: "histDoc0001"}},
	})
	require.NoError(t, err)
	_, err = svc.CreateGame("acc1", "Вторая", []GameSelection{
		{CategoryID: "history", Question: entity.Question{DocID: "histDoc0002"}},
	})
	require.NoError(t, err)

	restored, err := rotationSvc.Reconcile("acc1")
	require.NoError(t, err)
	require.Equal(t, 2, restored)

	// Удаление игры снимает сессионный гард: следующая сверка перечитывает
	// изменившуюся историю и отражает удаление
	require.NoError(t, svc.DeleteGame("acc1", first.ID))
	restored, err = rotationSvc.Reconcile("acc1")
	require.NoError(t, err)
	assert.Equal(t, 1, restored)

	snapshot := rotationSvc.UsageSnapshot("acc1")
	assert.Equal(t, map[string]int{"history-histDoc0002": 1}, snapshot)
}
