package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crmserver/server/services"
)

// ReviewHandler обработчик ручной проверки предложенных совпадений
type ReviewHandler struct {
	reviewService *services.ReviewService
}

// NewReviewHandler создает новый обработчик проверок
func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// HandleList возвращает записи проверки с фильтром по статусу
// GET /api/reviews?status=pending&limit=100&offset=0
func (h *ReviewHandler) HandleList(c *gin.Context) {
	status := c.Query("status")
	limit := parseIntQuery(c, "limit", 100)
	offset := parseIntQuery(c, "offset", 0)

	reviews, total, err := h.reviewService.List(status, limit, offset)
	if err != nil {
		HandleError(c, err)
		return
	}

	WritePaginated(c, reviews, total, limit, offset)
}

// HandleApprove подтверждает совпадение
// POST /api/reviews/:id/approve
func (h *ReviewHandler) HandleApprove(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	review, err := h.reviewService.Approve(id)
	if err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusOK, review)
}

// HandleReject отклоняет совпадение, запись становится новым контактом
// POST /api/reviews/:id/reject
func (h *ReviewHandler) HandleReject(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	review, err := h.reviewService.Reject(id)
	if err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusOK, review)
}

// HandleStats возвращает статистику записей проверки
// GET /api/reviews/stats
func (h *ReviewHandler) HandleStats(c *gin.Context) {
	stats, err := h.reviewService.Stats()
	if err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusOK, stats)
}
