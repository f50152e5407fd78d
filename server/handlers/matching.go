package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crmserver/matching"
	apperrors "crmserver/server/errors"
	"crmserver/server/services"
)

// MatchingHandler обработчик проверки на дубликаты и отладки схожести
type MatchingHandler struct {
	matchingService *services.MatchingService
}

// NewMatchingHandler создает новый обработчик сопоставления
func NewMatchingHandler(matchingService *services.MatchingService) *MatchingHandler {
	return &MatchingHandler{matchingService: matchingService}
}

// compareRequest тело запроса сравнения двух строк
type compareRequest struct {
	String1 string `json:"string1"`
	String2 string `json:"string2"`
}

// HandleCompare сравнивает две строки
// POST /api/matching/compare
func (h *MatchingHandler) HandleCompare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleError(c, apperrors.NewValidationError("некорректное тело запроса", err))
		return
	}

	result, err := h.matchingService.Compare(req.String1, req.String2)
	if err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusOK, result)
}

// HandleCheck проверяет входящую запись против всех контактов CRM
// POST /api/matching/check
func (h *MatchingHandler) HandleCheck(c *gin.Context) {
	var rec matching.ExternalRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		HandleError(c, apperrors.NewValidationError("некорректное тело запроса", err))
		return
	}

	info, err := h.matchingService.CheckRecord(rec)
	if err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusOK, info)
}
