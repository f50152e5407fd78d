package services

import (
	"errors"
	"strings"

	"crmserver/database"
	"crmserver/matching"
	apperrors "crmserver/server/errors"
)

// ContactService сервис для работы с контактами CRM
type ContactService struct {
	db *database.ContactsDB
}

// NewContactService создает новый сервис контактов
func NewContactService(db *database.ContactsDB) *ContactService {
	return &ContactService{db: db}
}

// List возвращает страницу контактов с опциональным поиском
func (cs *ContactService) List(limit, offset int, search string) ([]*database.StoredContact, int, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	contacts, total, err := cs.db.ListContacts(limit, offset, search)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("не удалось получить список контактов", err)
	}

	return contacts, total, nil
}

// Get возвращает контакт по ID
func (cs *ContactService) Get(id int) (*database.StoredContact, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("некорректный id контакта", nil)
	}

	contact, err := cs.db.GetContact(id)
	if err != nil {
		if errors.Is(err, database.ErrContactNotFound) {
			return nil, apperrors.NewNotFoundError("контакт не найден", err)
		}
		return nil, apperrors.NewInternalError("не удалось получить контакт", err)
	}

	return contact, nil
}

// Create создает новый контакт
func (cs *ContactService) Create(c *matching.Contact) (int, error) {
	if strings.TrimSpace(c.Name) == "" {
		return 0, apperrors.NewValidationError("название контакта обязательно", nil)
	}

	id, err := cs.db.InsertContact(c)
	if err != nil {
		return 0, apperrors.NewInternalError("не удалось создать контакт", err)
	}

	return id, nil
}

// Update обновляет контакт
func (cs *ContactService) Update(c *matching.Contact) error {
	if c.ID <= 0 {
		return apperrors.NewValidationError("некорректный id контакта", nil)
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperrors.NewValidationError("название контакта обязательно", nil)
	}

	if err := cs.db.UpdateContact(c); err != nil {
		if errors.Is(err, database.ErrContactNotFound) {
			return apperrors.NewNotFoundError("контакт не найден", err)
		}
		return apperrors.NewInternalError("не удалось обновить контакт", err)
	}

	return nil
}

// Delete удаляет контакт
func (cs *ContactService) Delete(id int) error {
	if id <= 0 {
		return apperrors.NewValidationError("некорректный id контакта", nil)
	}

	if err := cs.db.DeleteContact(id); err != nil {
		if errors.Is(err, database.ErrContactNotFound) {
			return apperrors.NewNotFoundError("контакт не найден", err)
		}
		return apperrors.NewInternalError("не удалось удалить контакт", err)
	}

	return nil
}

// AllForExport возвращает все контакты для выгрузки в Excel
func (cs *ContactService) AllForExport() ([]*database.StoredContact, error) {
	total, err := cs.db.CountContacts()
	if err != nil {
		return nil, apperrors.NewInternalError("не удалось посчитать контакты", err)
	}

	contacts, _, err := cs.db.ListContacts(total+1, 0, "")
	if err != nil {
		return nil, apperrors.NewInternalError("не удалось выгрузить контакты", err)
	}

	return contacts, nil
}
