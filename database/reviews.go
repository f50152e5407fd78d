package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crmserver/matching"
)

// Статусы записи классификации
const (
	// ReviewStatusPending запись ждет решения оператора
	ReviewStatusPending = "pending"
	// ReviewStatusApproved оператор подтвердил совпадение, контакт связан с внешней записью
	ReviewStatusApproved = "approved"
	// ReviewStatusRejected оператор отклонил совпадение, запись импортирована как новый контакт
	ReviewStatusRejected = "rejected"
	// ReviewStatusAutoApplied совпадение применено автоматически без участия оператора
	ReviewStatusAutoApplied = "auto_applied"
)

// ErrReviewNotFound возвращается, когда запись классификации не существует
var ErrReviewNotFound = errors.New("classification review not found")

// ClassificationReview запись предложенного совпадения для ручной проверки.
// Входящая запись сохраняется снимком в JSON: к моменту проверки оператором
// данные во внешней системе уже могли измениться.
type ClassificationReview struct {
	ID              int                     `json:"id"`
	Record          matching.ExternalRecord `json:"record"`
	ContactID       *int                    `json:"contact_id,omitempty"`
	Reason          string                  `json:"reason"`
	Similarity      float64                 `json:"similarity"`
	Status          string                  `json:"status"`
	ImportSessionID string                  `json:"import_session_id,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	ResolvedAt      *time.Time              `json:"resolved_at,omitempty"`
}

// CreateClassificationReview сохраняет новую запись классификации
func (db *ContactsDB) CreateClassificationReview(review *ClassificationReview) (int, error) {
	recordJSON, err := json.Marshal(review.Record)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal record: %w", err)
	}

	var contactID interface{}
	if review.ContactID != nil {
		contactID = *review.ContactID
	}

	status := review.Status
	if status == "" {
		status = ReviewStatusPending
	}

	var resolvedAt interface{}
	if status != ReviewStatusPending {
		resolvedAt = time.Now().UTC()
	}

	result, err := db.conn.Exec(`
		INSERT INTO classification_reviews
			(record_json, contact_id, reason, similarity, status, import_session_id, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?)`,
		string(recordJSON), contactID, review.Reason, review.Similarity, status,
		review.ImportSessionID, resolvedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert classification review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted review id: %w", err)
	}

	return int(id), nil
}

// GetClassificationReview возвращает запись классификации по ID
func (db *ContactsDB) GetClassificationReview(id int) (*ClassificationReview, error) {
	row := db.conn.QueryRow(`
		SELECT id, record_json, contact_id, reason, similarity, status,
		       import_session_id, created_at, resolved_at
		FROM classification_reviews WHERE id = ?`, id)

	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get classification review: %w", err)
	}

	return review, nil
}

// ListClassificationReviews возвращает страницу записей классификации.
// Пустой status означает любые записи.
func (db *ContactsDB) ListClassificationReviews(status string, limit, offset int) ([]*ClassificationReview, int, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		where = ` WHERE status = ?`
		args = append(args, status)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM classification_reviews`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := `
		SELECT id, record_json, contact_id, reason, similarity, status,
		       import_session_id, created_at, resolved_at
		FROM classification_reviews` + where + ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*ClassificationReview{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	return reviews, total, nil
}

// ResolveClassificationReview переводит запись из pending в конечный статус.
// contactID используется для привязки при approved (может отличаться от предложенного).
func (db *ContactsDB) ResolveClassificationReview(id int, status string, contactID *int) error {
	if status != ReviewStatusApproved && status != ReviewStatusRejected {
		return fmt.Errorf("invalid review resolution status: %s", status)
	}

	var contactIDValue interface{}
	if contactID != nil {
		contactIDValue = *contactID
	}

	result, err := db.conn.Exec(`
		UPDATE classification_reviews
		SET status = ?, contact_id = COALESCE(?, contact_id), resolved_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		status, contactIDValue, id, ReviewStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve review: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check resolve result: %w", err)
	}
	if affected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// ReviewStats агрегированная статистика по записям классификации
type ReviewStats struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	AutoApplied int `json:"auto_applied"`
}

// GetReviewStats возвращает статистику по статусам записей классификации
func (db *ContactsDB) GetReviewStats() (*ReviewStats, error) {
	rows, err := db.conn.Query(`SELECT status, COUNT(*) FROM classification_reviews GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get review stats: %w", err)
	}
	defer rows.Close()

	stats := &ReviewStats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan review stats: %w", err)
		}

		stats.Total += count
		switch status {
		case ReviewStatusPending:
			stats.Pending = count
		case ReviewStatusApproved:
			stats.Approved = count
		case ReviewStatusRejected:
			stats.Rejected = count
		case ReviewStatusAutoApplied:
			stats.AutoApplied = count
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review stats: %w", err)
	}

	return stats, nil
}

func scanReview(row rowScanner) (*ClassificationReview, error) {
	var review ClassificationReview
	var recordJSON string
	var contactID sql.NullInt64
	var sessionID sql.NullString
	var createdAt, resolvedAt sql.NullTime

	err := row.Scan(&review.ID, &recordJSON, &contactID, &review.Reason,
		&review.Similarity, &review.Status, &sessionID, &createdAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(recordJSON), &review.Record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	review.ContactID = nullableInt(contactID)
	review.ImportSessionID = nullableString(sessionID)
	if createdAt.Valid {
		review.CreatedAt = createdAt.Time
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		review.ResolvedAt = &t
	}

	return &review, nil
}
