package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Meldroq8/trivia-game-sub006/internal/handler/dto"
	"github.com/Meldroq8/trivia-game-sub006/internal/middleware"
	apperrors "github.com/Meldroq8/trivia-game-sub006/internal/pkg/errors"
	"github.com/Meldroq8/trivia-game-sub006/internal/service"
)

// GameHandler обрабатывает запросы истории игр
type GameHandler struct {
	gameService *service.GameService
}

// NewGameHandler создает новый обработчик игр
func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// CreateGame создает игру и пакетно отмечает ее вопросы использованными
// POST /api/games
func (h *GameHandler) CreateGame(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	var req dto.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	selections := make([]service.GameSelection, len(req.Selections))
	for i, s := range req.Selections {
		selections[i] = service.GameSelection{CategoryID: s.CategoryID, Question: s.Question}
	}

	game, err := h.gameService.CreateGame(accountID, req.Name, selections)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create game"})
		return
	}
	c.JSON(http.StatusCreated, game)
}

// ListGames возвращает историю игр аккаунта
// GET /api/games
func (h *GameHandler) ListGames(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	games, err := h.gameService.ListGames(accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list games"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// DeleteGame удаляет игру и инвалидирует сверку истории
// DELETE /api/games/:id
func (h *GameHandler) DeleteGame(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return
	}

	if err := h.gameService.DeleteGame(accountID, uint(id)); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete game"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
