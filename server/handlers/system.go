package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crmserver/database"
	apperrors "crmserver/server/errors"
)

// SystemHandler обработчик служебных запросов
type SystemHandler struct {
	db        *database.ContactsDB
	startedAt time.Time
	version   string
}

// NewSystemHandler создает новый служебный обработчик
func NewSystemHandler(db *database.ContactsDB, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		startedAt: time.Now(),
		version:   version,
	}
}

// HandleHealth проверка живости сервера
// GET /health
func (h *SystemHandler) HandleHealth(c *gin.Context) {
	status := "healthy"
	dbStatus := "ok"
	if err := h.db.Ping(); err != nil {
		status = "degraded"
		dbStatus = "unavailable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"database":  dbStatus,
		"version":   h.version,
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HandleStats сводная статистика базы контактов
// GET /api/stats
func (h *SystemHandler) HandleStats(c *gin.Context) {
	contacts, err := h.db.CountContacts()
	if err != nil {
		HandleError(c, apperrors.NewInternalError("не удалось посчитать контакты", err))
		return
	}

	reviews, err := h.db.GetReviewStats()
	if err != nil {
		HandleError(c, apperrors.NewInternalError("не удалось получить статистику проверок", err))
		return
	}

	WriteJSON(c, http.StatusOK, gin.H{
		"contacts": contacts,
		"reviews":  reviews,
	})
}
