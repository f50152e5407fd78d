package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"crmserver/importer"
	"crmserver/matching"
	apperrors "crmserver/server/errors"
	"crmserver/server/services"
)

// ContactHandler обработчик для контактов CRM
type ContactHandler struct {
	contactService *services.ContactService
}

// NewContactHandler создает новый обработчик контактов
func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// HandleList возвращает страницу контактов
// GET /api/contacts?limit=&offset=&search=
func (h *ContactHandler) HandleList(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 100)
	offset := parseIntQuery(c, "offset", 0)
	search := c.Query("search")

	contacts, total, err := h.contactService.List(limit, offset, search)
	if err != nil {
		HandleError(c, err)
		return
	}

	WritePaginated(c, contacts, total, limit, offset)
}

// HandleGet возвращает контакт по ID
// GET /api/contacts/:id
func (h *ContactHandler) HandleGet(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	contact, err := h.contactService.Get(id)
	if err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusOK, contact)
}

// HandleCreate создает новый контакт
// POST /api/contacts
func (h *ContactHandler) HandleCreate(c *gin.Context) {
	var contact matching.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		HandleError(c, apperrors.NewValidationError("некорректное тело запроса", err))
		return
	}

	id, err := h.contactService.Create(&contact)
	if err != nil {
		HandleError(c, err)
		return
	}

	contact.ID = id
	WriteJSON(c, http.StatusCreated, contact)
}

// HandleUpdate обновляет контакт
// PUT /api/contacts/:id
func (h *ContactHandler) HandleUpdate(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	var contact matching.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		HandleError(c, apperrors.NewValidationError("некорректное тело запроса", err))
		return
	}
	contact.ID = id

	if err := h.contactService.Update(&contact); err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusOK, contact)
}

// HandleDelete удаляет контакт
// DELETE /api/contacts/:id
func (h *ContactHandler) HandleDelete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	if err := h.contactService.Delete(id); err != nil {
		HandleError(c, err)
		return
	}

	WriteJSON(c, http.StatusOK, map[string]interface{}{"deleted": id})
}

// HandleExport выгружает все контакты в Excel
// GET /api/contacts/export
func (h *ContactHandler) HandleExport(c *gin.Context) {
	contacts, err := h.contactService.AllForExport()
	if err != nil {
		HandleError(c, err)
		return
	}

	fileName := fmt.Sprintf("contacts_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := importer.ExportContactsToExcel(c.Writer, contacts); err != nil {
		HandleError(c, apperrors.NewInternalError("не удалось выгрузить контакты в Excel", err))
		return
	}
}

// parseIDParam извлекает числовой :id из пути
func parseIDParam(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("некорректный id", err)
	}
	return id, nil
}

// parseIntQuery извлекает числовой query-параметр со значением по умолчанию
func parseIntQuery(c *gin.Context, name string, defaultValue int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
