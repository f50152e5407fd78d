package handlers

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "crmserver/server/errors"
)

// JSONResponse стандартная структура JSON ответа
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// WriteJSON записывает успешный JSON ответ
func WriteJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, JSONResponse{
		Success:   statusCode >= 200 && statusCode < 300,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// WritePaginated записывает пагинированный JSON ответ
func WritePaginated(c *gin.Context, data interface{}, total, limit, offset int) {
	response := map[string]interface{}{
		"data":   data,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}
	WriteJSON(c, 200, response)
}

// HandleError записывает JSON ошибку по AppError.
// Детали внутренних ошибок уходят в лог, а не клиенту.
func HandleError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		return
	}

	if appErr.Err != nil {
		log.Printf("Ошибка обработки %s %s: %v", c.Request.Method, c.Request.URL.Path, appErr.Err)
	}

	c.JSON(appErr.StatusCode(), JSONResponse{
		Success:   false,
		Error:     appErr.Message,
		Message:   appErr.Message,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
