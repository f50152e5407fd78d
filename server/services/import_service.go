package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"crmserver/database"
	"crmserver/matching"
	apperrors "crmserver/server/errors"
)

// Статусы задачи импорта
const (
	ImportTaskRunning   = "running"
	ImportTaskCompleted = "completed"
	ImportTaskFailed    = "failed"
)

// ImportTask задача импорта записей внешней системы
type ImportTask struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`   // "running", "completed", "failed"
	Progress    int        `json:"progress"` // 0-100
	Total       int        `json:"total"`
	Processed   int        `json:"processed"`
	Imported    int        `json:"imported"`
	Skipped     int        `json:"skipped"`
	Flagged     int        `json:"flagged"`
	ErrorCount  int        `json:"error_count"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ImportService сервис импорта записей внешней системы с проверкой на дубликаты.
// Импорт выполняется фоново, статус доступен по ID задачи.
type ImportService struct {
	db       *database.ContactsDB
	detector *matching.DuplicateDetector
	events   chan string

	tasks   map[string]*ImportTask
	tasksMu sync.RWMutex
}

// NewImportService создает новый сервис импорта
func NewImportService(db *database.ContactsDB, detector *matching.DuplicateDetector, events chan string) *ImportService {
	return &ImportService{
		db:       db,
		detector: detector,
		events:   events,
		tasks:    make(map[string]*ImportTask),
	}
}

// StartImport запускает фоновый импорт списка записей.
// Возвращает ID задачи (он же ID сессии импорта в БД).
func (is *ImportService) StartImport(records []matching.ExternalRecord, fileName, source string) (string, error) {
	if len(records) == 0 {
		return "", apperrors.NewValidationError("список записей пуст", nil)
	}

	taskID := uuid.New().String()

	if err := is.db.CreateImportSession(&database.ImportSession{
		ID:       taskID,
		FileName: fileName,
		Source:   source,
		Total:    len(records),
	}); err != nil {
		return "", apperrors.NewInternalError("не удалось создать сессию импорта", err)
	}

	task := &ImportTask{
		ID:        taskID,
		Status:    ImportTaskRunning,
		Total:     len(records),
		StartedAt: time.Now(),
	}

	is.tasksMu.Lock()
	is.tasks[taskID] = task
	is.tasksMu.Unlock()

	go is.processRecords(task, records)

	return taskID, nil
}

// GetTaskStatus возвращает статус задачи импорта
func (is *ImportService) GetTaskStatus(taskID string) (*ImportTask, error) {
	is.tasksMu.RLock()
	defer is.tasksMu.RUnlock()

	task, ok := is.tasks[taskID]
	if !ok {
		return nil, apperrors.NewNotFoundError("задача импорта не найдена", nil)
	}

	snapshot := *task
	return &snapshot, nil
}

// ListSessions возвращает сессии импорта, новые первыми
func (is *ImportService) ListSessions(limit, offset int) ([]*database.ImportSession, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	sessions, err := is.db.ListImportSessions(limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError("не удалось получить список сессий импорта", err)
	}
	return sessions, nil
}

// GetSession возвращает сессию импорта по ID
func (is *ImportService) GetSession(id string) (*database.ImportSession, error) {
	session, err := is.db.GetImportSession(id)
	if err != nil {
		if errors.Is(err, database.ErrImportSessionNotFound) {
			return nil, apperrors.NewNotFoundError("сессия импорта не найдена", err)
		}
		return nil, apperrors.NewInternalError("не удалось получить сессию импорта", err)
	}
	return session, nil
}

// processRecords обрабатывает записи импорта в фоновой горутине
func (is *ImportService) processRecords(task *ImportTask, records []matching.ExternalRecord) {
	// Список контактов загружается один раз; вставленные в этой же сессии
	// контакты дописываются в список, чтобы повторы внутри файла тоже ловились
	contacts, err := is.db.AllContacts()
	if err != nil {
		is.failTask(task, fmt.Errorf("failed to load contacts: %w", err))
		return
	}

	for i, rec := range records {
		if err := is.processRecord(task, rec, &contacts); err != nil {
			is.withTask(task, func(t *ImportTask) { t.ErrorCount++ })
			log.Printf("Импорт %s: ошибка обработки записи %q: %v", task.ID, rec.Name, err)
		}

		is.withTask(task, func(t *ImportTask) {
			t.Processed = i + 1
			t.Progress = (i + 1) * 100 / t.Total
		})

		// Счетчики сессии обновляем пачками, а не на каждую запись
		if (i+1)%50 == 0 {
			is.persistCounters(task)
		}
	}

	is.persistCounters(task)

	now := time.Now()
	is.withTask(task, func(t *ImportTask) {
		t.Status = ImportTaskCompleted
		t.CompletedAt = &now
	})

	if err := is.db.FinishImportSession(task.ID, database.ImportStatusCompleted, ""); err != nil {
		log.Printf("Импорт %s: не удалось завершить сессию: %v", task.ID, err)
	}

	is.logEvent(fmt.Sprintf("Импорт %s завершен: импортировано %d, пропущено %d, на проверку %d, ошибок %d",
		task.ID, task.Imported, task.Skipped, task.Flagged, task.ErrorCount))
}

// processRecord обрабатывает одну запись: пропустить, связать, импортировать
// или отправить на ручную проверку
func (is *ImportService) processRecord(task *ImportTask, rec matching.ExternalRecord, contacts *[]*matching.Contact) error {
	info := is.detector.Detect(rec, *contacts)

	if !info.IsDuplicate {
		// Новый контакт
		contact := &matching.Contact{
			Name:       rec.Name,
			TaxID:      rec.TaxID,
			Email:      rec.Email,
			Phone:      rec.Phone,
			ExternalID: rec.ExternalID,
			Source:     "import",
		}
		id, err := is.db.InsertContact(contact)
		if err != nil {
			return err
		}
		contact.ID = id
		*contacts = append(*contacts, contact)

		is.withTask(task, func(t *ImportTask) { t.Imported++ })
		return nil
	}

	if isExactFieldMatch(info.Reason) {
		// Совпадение по точному полю применяем автоматически:
		// привязываем внешний идентификатор, если контакт еще не связан
		if rec.ExternalID != "" && info.Contact.ExternalID == "" {
			if err := is.db.LinkExternalID(info.Contact.ID, rec.ExternalID); err != nil {
				return err
			}
			info.Contact.ExternalID = rec.ExternalID
		}

		if _, err := is.db.CreateClassificationReview(&database.ClassificationReview{
			Record:          rec,
			ContactID:       &info.Contact.ID,
			Reason:          info.Reason,
			Similarity:      info.Similarity,
			Status:          database.ReviewStatusAutoApplied,
			ImportSessionID: task.ID,
		}); err != nil {
			return err
		}

		is.withTask(task, func(t *ImportTask) { t.Skipped++ })
		return nil
	}

	// Неточное совпадение уходит оператору на проверку
	if _, err := is.db.CreateClassificationReview(&database.ClassificationReview{
		Record:          rec,
		ContactID:       &info.Contact.ID,
		Reason:          info.Reason,
		Similarity:      info.Similarity,
		ImportSessionID: task.ID,
	}); err != nil {
		return err
	}

	is.withTask(task, func(t *ImportTask) { t.Flagged++ })
	return nil
}

// isExactFieldMatch отличает совпадения по точным полям (внешний идентификатор,
// налоговый номер, email) от нечетких. Нечеткие совпадения, включая совпадение
// названия с телефоном, всегда уходят оператору на проверку.
func isExactFieldMatch(reason string) bool {
	switch reason {
	case matching.ReasonExternalID, matching.ReasonTaxID, matching.ReasonEmail:
		return true
	}
	return false
}

// persistCounters записывает счетчики задачи в сессию импорта
func (is *ImportService) persistCounters(task *ImportTask) {
	is.tasksMu.RLock()
	imported, skipped, flagged, errorCount := task.Imported, task.Skipped, task.Flagged, task.ErrorCount
	is.tasksMu.RUnlock()

	if err := is.db.UpdateImportSessionCounters(task.ID, imported, skipped, flagged, errorCount); err != nil {
		log.Printf("Импорт %s: не удалось обновить счетчики сессии: %v", task.ID, err)
	}
}

// failTask помечает задачу и сессию как проваленные
func (is *ImportService) failTask(task *ImportTask, err error) {
	now := time.Now()
	is.withTask(task, func(t *ImportTask) {
		t.Status = ImportTaskFailed
		t.Error = err.Error()
		t.CompletedAt = &now
	})

	if dbErr := is.db.FinishImportSession(task.ID, database.ImportStatusFailed, err.Error()); dbErr != nil {
		log.Printf("Импорт %s: не удалось пометить сессию проваленной: %v", task.ID, dbErr)
	}

	is.logEvent(fmt.Sprintf("Импорт %s провален: %v", task.ID, err))
}

// withTask выполняет изменение задачи под мьютексом
func (is *ImportService) withTask(task *ImportTask, fn func(*ImportTask)) {
	is.tasksMu.Lock()
	fn(task)
	is.tasksMu.Unlock()
}

// logEvent отправляет сообщение в канал событий, не блокируясь
func (is *ImportService) logEvent(message string) {
	if is.events == nil {
		return
	}
	select {
	case is.events <- message:
	default:
	}
}
