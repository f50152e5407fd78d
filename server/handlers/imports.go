package handlers

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"crmserver/billing"
	"crmserver/importer"
	"crmserver/matching"
	apperrors "crmserver/server/errors"
	"crmserver/server/services"
)

// maxUploadSize ограничение на размер загружаемого файла
const maxUploadSize = 50 << 20 // 50 MB

// ImportHandler обработчик импорта записей внешней системы
type ImportHandler struct {
	importService *services.ImportService
	billingClient *billing.Client
	uploadsDir    string
}

// NewImportHandler создает новый обработчик импорта.
// billingClient может быть nil, если синхронизация с биллингом не настроена.
func NewImportHandler(importService *services.ImportService, billingClient *billing.Client, uploadsDir string) *ImportHandler {
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		log.Printf("Не удалось создать директорию загрузок %s: %v", uploadsDir, err)
	}
	return &ImportHandler{
		importService: importService,
		billingClient: billingClient,
		uploadsDir:    uploadsDir,
	}
}

// HandleUpload принимает файл выгрузки (xlsx или csv) и запускает импорт
// POST /api/import/upload
func (h *ImportHandler) HandleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, err := c.FormFile("file")
	if err != nil {
		HandleError(c, apperrors.NewValidationError("файл не передан", err))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".xlsx" && ext != ".csv" {
		HandleError(c, apperrors.NewValidationError("поддерживаются только файлы .xlsx и .csv", nil))
		return
	}

	// Сохраняем во временный файл: excelize работает с путем
	tmpPath := filepath.Join(h.uploadsDir, time.Now().Format("20060102_150405")+"_"+filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		HandleError(c, apperrors.NewInternalError("не удалось сохранить файл", err))
		return
	}
	defer os.Remove(tmpPath)

	var records []matching.ExternalRecord
	if ext == ".xlsx" {
		records, err = importer.ParseContactsExcelFile(tmpPath)
	} else {
		records, err = importer.ParseContactsCSVFile(tmpPath, importer.DefaultCSVConfig())
	}
	if err != nil {
		HandleError(c, apperrors.NewValidationError("не удалось разобрать файл", err))
		return
	}

	taskID, err := h.importService.StartImport(records, file.Filename, "file")
	if err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusAccepted, map[string]interface{}{
		"task_id": taskID,
		"total":   len(records),
	})
}

// HandleBillingSync выгружает контрагентов из биллинга и запускает импорт
// POST /api/import/billing-sync
func (h *ImportHandler) HandleBillingSync(c *gin.Context) {
	if h.billingClient == nil {
		HandleError(c, apperrors.NewValidationError("синхронизация с биллингом не настроена", nil))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Minute)
	defer cancel()

	records, err := h.billingClient.FetchCustomers(ctx)
	if err != nil {
		HandleError(c, apperrors.NewBadGatewayError("не удалось получить данные из биллинга", err))
		return
	}
	if len(records) == 0 {
		WriteJSON(c, http.StatusOK, map[string]interface{}{"total": 0})
		return
	}

	taskID, err := h.importService.StartImport(records, "", "billing")
	if err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusAccepted, map[string]interface{}{
		"task_id": taskID,
		"total":   len(records),
	})
}

// HandleTaskStatus возвращает статус задачи импорта
// GET /api/import/tasks/:id
func (h *ImportHandler) HandleTaskStatus(c *gin.Context) {
	task, err := h.importService.GetTaskStatus(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusOK, task)
}

// HandleListSessions возвращает сессии импорта
// GET /api/import/sessions
func (h *ImportHandler) HandleListSessions(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 100)
	offset := parseIntQuery(c, "offset", 0)

	sessions, err := h.importService.ListSessions(limit, offset)
	if err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusOK, sessions)
}

// HandleGetSession возвращает сессию импорта по ID
// GET /api/import/sessions/:id
func (h *ImportHandler) HandleGetSession(c *gin.Context) {
	session, err := h.importService.GetSession(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusOK, session)
}
