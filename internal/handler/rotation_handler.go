package handler

import (
	"fmt"
	"log"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	"github.com/Meldroq8/trivia-game-sub006/internal/handler/dto"
	"github.com/Meldroq8/trivia-game-sub006/internal/middleware"
	"github.com/Meldroq8/trivia-game-sub006/internal/service"
)

// RotationHandler обрабатывает запросы движка ротации вопросов
type RotationHandler struct {
	rotationService *service.RotationService
}

// NewRotationHandler создает новый обработчик ротации
func NewRotationHandler(rotationService *service.RotationService) *RotationHandler {
	return &RotationHandler{rotationService: rotationService}
}

// Bind привязывает активный аккаунт устройства. При смене аккаунта
// сессионные гарды и кеш предыдущего аккаунта сбрасываются.
// POST /api/usage/bind
func (h *RotationHandler) Bind(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	h.rotationService.SetAccount(accountID)
	c.JSON(http.StatusOK, gin.H{"status": "bound", "account_id": accountID})
}

// UpdatePool загружает пул вопросов новой игры: миграция старых записей,
// пересчет размера пула, нулевые записи для новых вопросов
// POST /api/usage/pool
func (h *RotationHandler) UpdatePool(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	var req dto.UpdatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	h.rotationService.SetAccount(accountID)
	size, report := h.rotationService.UpdatePool(accountID, entity.PoolFromCategories(req.Categories))

	c.JSON(http.StatusOK, dto.UpdatePoolResponse{PoolSize: size, Migration: report})
}

// MarkUsed отмечает вопрос использованным (троттлинг-путь)
// POST /api/usage/mark
func (h *RotationHandler) MarkUsed(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	var req dto.MarkUsedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	marked := h.rotationService.MarkUsed(accountID, req.Question, req.CategoryID)
	c.JSON(http.StatusOK, dto.MarkUsedResponse{Marked: marked})
}

// MarkBatchUsed пакетно отмечает назначенные вопросы (немедленная запись)
// POST /api/usage/mark-batch
func (h *RotationHandler) MarkBatchUsed(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	var req dto.MarkBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	h.rotationService.MarkBatchUsed(accountID, req.Assignments)
	c.JSON(http.StatusOK, gin.H{"marked": len(req.Assignments)})
}

// GetStats возвращает статистику текущего цикла ротации
// GET /api/usage/stats
func (h *RotationHandler) GetStats(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	c.JSON(http.StatusOK, h.rotationService.Stats(accountID))
}

// GetAvailable возвращает еще не использованные вопросы пула.
// POST, а не GET: пул передается в теле запроса.
// POST /api/usage/available
func (h *RotationHandler) GetAvailable(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	var req dto.AvailableQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	available := h.rotationService.AvailableQuestions(
		accountID, entity.PoolFromCategories(req.Categories), req.Difficulty, req.CategoryID)

	// Детеминированный порядок категорий в ответе
	categoryIDs := make([]string, 0, len(available))
	for categoryID := range available {
		categoryIDs = append(categoryIDs, categoryID)
	}
	sort.Strings(categoryIDs)

	resp := dto.AvailableQuestionsResponse{Categories: make([]entity.CategoryQuestions, 0, len(available))}
	for _, categoryID := range categoryIDs {
		resp.Categories = append(resp.Categories, entity.CategoryQuestions{
			CategoryID: categoryID,
			Questions:  available[categoryID],
		})
		resp.Total += len(available[categoryID])
	}
	c.JSON(http.StatusOK, resp)
}

// ResetAll сбрасывает все счетчики аккаунта (явный пользовательский сброс)
// POST /api/usage/reset
func (h *RotationHandler) ResetAll(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	h.rotationService.ResetAll(accountID)
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// ResetCategory сбрасывает счетчики одной категории
// POST /api/usage/reset-category
func (h *RotationHandler) ResetCategory(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	var req dto.ResetCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	reset := h.rotationService.ResetCategory(accountID, req.CategoryID, req.Questions)
	c.JSON(http.StatusOK, dto.ResetCategoryResponse{Reset: reset})
}

// Reconcile перестраивает карту использования из истории игр
// POST /api/usage/reconcile
func (h *RotationHandler) Reconcile(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	restored, err := h.rotationService.Reconcile(accountID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Game history is temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, dto.ReconcileResponse{Restored: restored, Skipped: restored == 0})
}

// InvalidateReconciliation снимает сессионный гард сверки
// POST /api/usage/reconcile/invalidate
func (h *RotationHandler) InvalidateReconciliation(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	h.rotationService.InvalidateReconciliation(accountID)
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

// Flush синхронно доливает отложенные записи аккаунта
// POST /api/usage/flush
func (h *RotationHandler) Flush(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	h.rotationService.Flush(accountID)
	c.JSON(http.StatusOK, gin.H{"status": "flushed"})
}

// Clear полностью удаляет данные использования аккаунта
// DELETE /api/usage
func (h *RotationHandler) Clear(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	h.rotationService.Clear(accountID)
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// ExportUsageReport выгружает отчет об использовании вопросов в Excel
// GET /api/usage/export
func (h *RotationHandler) ExportUsageReport(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	usage := h.rotationService.UsageSnapshot(accountID)
	stats := h.rotationService.Stats(accountID)

	ids := make([]string, 0, len(usage))
	for id := range usage {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"usage-%s.xlsx\"", accountID))

	// StreamWriter — на случай больших пулов
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Usage"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[RotationHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Question ID", "Used"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[RotationHandler] Ошибка записи заголовков: %v", err)
	}

	for i, id := range ids {
		used := "No"
		if usage[id] > 0 {
			used = "Yes"
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := sw.SetRow(cell, []interface{}{id, used}); err != nil {
			log.Printf("[RotationHandler] Ошибка записи строки %s: %v", cell, err)
		}
	}

	// Итоговая строка со статистикой цикла
	summaryCell := fmt.Sprintf("A%d", len(ids)+3)
	summary := fmt.Sprintf("Pool: %d, used: %d (%.1f%%)", stats.PoolSize, stats.UsedCount, stats.CompletionPercent)
	if err := sw.SetRow(summaryCell, []interface{}{summary}); err != nil {
		log.Printf("[RotationHandler] Ошибка записи итога: %v", err)
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[RotationHandler] Ошибка Flush StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
		return
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[RotationHandler] Ошибка отправки файла: %v", err)
	}
}
