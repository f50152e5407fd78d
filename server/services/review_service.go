package services

import (
	"errors"

	"crmserver/database"
	"crmserver/matching"
	apperrors "crmserver/server/errors"
)

// ReviewService сервис ручной проверки предложенных совпадений
type ReviewService struct {
	db *database.ContactsDB
}

// NewReviewService создает новый сервис проверки
func NewReviewService(db *database.ContactsDB) *ReviewService {
	return &ReviewService{db: db}
}

// List возвращает страницу записей классификации
func (rs *ReviewService) List(status string, limit, offset int) ([]*database.ClassificationReview, int, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	switch status {
	case "", database.ReviewStatusPending, database.ReviewStatusApproved,
		database.ReviewStatusRejected, database.ReviewStatusAutoApplied:
	default:
		return nil, 0, apperrors.NewValidationError("неизвестный статус проверки", nil)
	}

	reviews, total, err := rs.db.ListClassificationReviews(status, limit, offset)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("не удалось получить записи проверки", err)
	}

	return reviews, total, nil
}

// Approve подтверждает совпадение: контакт связывается с внешней записью
func (rs *ReviewService) Approve(id int) (*database.ClassificationReview, error) {
	review, err := rs.getPending(id)
	if err != nil {
		return nil, err
	}

	if review.ContactID == nil {
		return nil, apperrors.NewConflictError("запись проверки не содержит контакта для привязки", nil)
	}

	// Привязываем внешний идентификатор, если он есть у входящей записи
	if review.Record.ExternalID != "" {
		if err := rs.db.LinkExternalID(*review.ContactID, review.Record.ExternalID); err != nil {
			return nil, apperrors.NewInternalError("не удалось связать контакт с внешней записью", err)
		}
	}

	if err := rs.db.ResolveClassificationReview(id, database.ReviewStatusApproved, review.ContactID); err != nil {
		return nil, apperrors.NewInternalError("не удалось закрыть запись проверки", err)
	}

	return rs.db.GetClassificationReview(id)
}

// Reject отклоняет совпадение: входящая запись импортируется как новый контакт
func (rs *ReviewService) Reject(id int) (*database.ClassificationReview, error) {
	review, err := rs.getPending(id)
	if err != nil {
		return nil, err
	}

	contactID, err := rs.db.InsertContact(&matching.Contact{
		Name:       review.Record.Name,
		TaxID:      review.Record.TaxID,
		Email:      review.Record.Email,
		Phone:      review.Record.Phone,
		ExternalID: review.Record.ExternalID,
		Source:     "review",
	})
	if err != nil {
		return nil, apperrors.NewInternalError("не удалось импортировать отклоненную запись", err)
	}

	if err := rs.db.ResolveClassificationReview(id, database.ReviewStatusRejected, &contactID); err != nil {
		return nil, apperrors.NewInternalError("не удалось закрыть запись проверки", err)
	}

	return rs.db.GetClassificationReview(id)
}

// Stats возвращает агрегированную статистику записей проверки
func (rs *ReviewService) Stats() (*database.ReviewStats, error) {
	stats, err := rs.db.GetReviewStats()
	if err != nil {
		return nil, apperrors.NewInternalError("не удалось получить статистику проверок", err)
	}
	return stats, nil
}

// getPending загружает запись и проверяет, что она еще не решена
func (rs *ReviewService) getPending(id int) (*database.ClassificationReview, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("некорректный id записи проверки", nil)
	}

	review, err := rs.db.GetClassificationReview(id)
	if err != nil {
		if errors.Is(err, database.ErrReviewNotFound) {
			return nil, apperrors.NewNotFoundError("запись проверки не найдена", err)
		}
		return nil, apperrors.NewInternalError("не удалось получить запись проверки", err)
	}

	if review.Status != database.ReviewStatusPending {
		return nil, apperrors.NewConflictError("запись проверки уже решена", nil)
	}

	return review, nil
}
