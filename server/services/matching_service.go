package services

import (
	"strings"

	"crmserver/database"
	"crmserver/matching"
	apperrors "crmserver/server/errors"
)

// MatchingService сервис для проверки записей на дубликаты и отладки схожести
type MatchingService struct {
	db       *database.ContactsDB
	detector *matching.DuplicateDetector
}

// NewMatchingService создает новый сервис сопоставления
func NewMatchingService(db *database.ContactsDB, detector *matching.DuplicateDetector) *MatchingService {
	return &MatchingService{db: db, detector: detector}
}

// Compare сравнивает две строки и возвращает подробности нормализации и схожести.
// Используется для отладки порогов из интерфейса администратора.
func (ms *MatchingService) Compare(s1, s2 string) (map[string]interface{}, error) {
	if strings.TrimSpace(s1) == "" || strings.TrimSpace(s2) == "" {
		return nil, apperrors.NewValidationError("обе строки обязательны", nil)
	}

	n1 := matching.NormalizeText(s1)
	n2 := matching.NormalizeText(s2)

	return map[string]interface{}{
		"normalized_1":         n1,
		"normalized_2":         n2,
		"levenshtein_distance": matching.LevenshteinDistance(n1, n2),
		"name_similarity":      matching.NameSimilarity(s1, s2),
	}, nil
}

// CheckRecord прогоняет входящую запись через детектор против всех контактов CRM
func (ms *MatchingService) CheckRecord(rec matching.ExternalRecord) (*matching.DuplicateInfo, error) {
	if strings.TrimSpace(rec.Name) == "" && rec.ExternalID == "" &&
		rec.TaxID == "" && rec.Email == "" {
		return nil, apperrors.NewValidationError("запись не содержит полей для сопоставления", nil)
	}

	contacts, err := ms.db.AllContacts()
	if err != nil {
		return nil, apperrors.NewInternalError("не удалось загрузить контакты", err)
	}

	info := ms.detector.Detect(rec, contacts)
	return &info, nil
}
