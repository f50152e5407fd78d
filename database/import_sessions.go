package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Статусы сессии импорта
const (
	ImportStatusRunning   = "running"
	ImportStatusCompleted = "completed"
	ImportStatusFailed    = "failed"
)

// ErrImportSessionNotFound возвращается, когда сессия импорта не существует
var ErrImportSessionNotFound = errors.New("import session not found")

// ImportSession одна сессия импорта записей из внешней системы
type ImportSession struct {
	ID         string     `json:"id"`
	FileName   string     `json:"file_name,omitempty"`
	Source     string     `json:"source"`
	Total      int        `json:"total"`
	Imported   int        `json:"imported"`
	Skipped    int        `json:"skipped"`
	Flagged    int        `json:"flagged"`
	Errors     int        `json:"errors"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// runImportSessionMigrations создает таблицу сессий импорта
func (db *ContactsDB) runImportSessionMigrations() error {
	query := `
	CREATE TABLE IF NOT EXISTS import_sessions (
		id TEXT PRIMARY KEY,
		file_name TEXT,
		source TEXT,
		total INTEGER NOT NULL DEFAULT 0,
		imported INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		flagged INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'running',
		error TEXT,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME
	);
	`

	_, err := db.conn.Exec(query)
	return err
}

// CreateImportSession регистрирует новую сессию импорта
func (db *ContactsDB) CreateImportSession(session *ImportSession) error {
	status := session.Status
	if status == "" {
		status = ImportStatusRunning
	}

	_, err := db.conn.Exec(`
		INSERT INTO import_sessions (id, file_name, source, total, status, started_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		session.ID, session.FileName, session.Source, session.Total, status,
	)
	if err != nil {
		return fmt.Errorf("failed to create import session: %w", err)
	}

	return nil
}

// UpdateImportSessionCounters обновляет счетчики выполняющейся сессии
func (db *ContactsDB) UpdateImportSessionCounters(id string, imported, skipped, flagged, errorCount int) error {
	result, err := db.conn.Exec(`
		UPDATE import_sessions
		SET imported = ?, skipped = ?, flagged = ?, errors = ?
		WHERE id = ?`,
		imported, skipped, flagged, errorCount, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update import session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrImportSessionNotFound
	}

	return nil
}

// FinishImportSession завершает сессию с указанным статусом
func (db *ContactsDB) FinishImportSession(id, status, errorMessage string) error {
	result, err := db.conn.Exec(`
		UPDATE import_sessions
		SET status = ?, error = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		status, errorMessage, id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish import session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finish result: %w", err)
	}
	if affected == 0 {
		return ErrImportSessionNotFound
	}

	return nil
}

// GetImportSession возвращает сессию импорта по ID
func (db *ContactsDB) GetImportSession(id string) (*ImportSession, error) {
	row := db.conn.QueryRow(`
		SELECT id, file_name, source, total, imported, skipped, flagged, errors,
		       status, error, started_at, finished_at
		FROM import_sessions WHERE id = ?`, id)

	session, err := scanImportSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImportSessionNotFound
		}
		return nil, fmt.Errorf("failed to get import session: %w", err)
	}

	return session, nil
}

// ListImportSessions возвращает сессии импорта, новые первыми
func (db *ContactsDB) ListImportSessions(limit, offset int) ([]*ImportSession, error) {
	rows, err := db.conn.Query(`
		SELECT id, file_name, source, total, imported, skipped, flagged, errors,
		       status, error, started_at, finished_at
		FROM import_sessions ORDER BY started_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list import sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*ImportSession{}
	for rows.Next() {
		session, err := scanImportSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import sessions: %w", err)
	}

	return sessions, nil
}

func scanImportSession(row rowScanner) (*ImportSession, error) {
	var session ImportSession
	var fileName, source, errorMessage sql.NullString
	var startedAt, finishedAt sql.NullTime

	err := row.Scan(&session.ID, &fileName, &source, &session.Total, &session.Imported,
		&session.Skipped, &session.Flagged, &session.Errors, &session.Status,
		&errorMessage, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	session.FileName = nullableString(fileName)
	session.Source = nullableString(source)
	session.Error = nullableString(errorMessage)
	if startedAt.Valid {
		session.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		session.FinishedAt = &t
	}

	return &session, nil
}
