package database

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DBConfig конфигурация подключения к БД
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ContactsDB обертка для работы с базой данных контактов CRM.
// Хранит контакты, записи классификации на ручную проверку и сессии импорта.
type ContactsDB struct {
	conn             *sql.DB
	tableCreateMutex sync.Mutex // Мьютекс для создания таблиц (защита от race condition)
}

// NewContactsDB создает новое подключение к базе данных контактов
func NewContactsDB(dbPath string) (*ContactsDB, error) {
	config := DBConfig{}

	// Для in-memory SQLite требуется ровно одно соединение,
	// иначе каждое новое соединение получает пустую БД без таблиц
	if isInMemoryDB(dbPath) {
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	}

	return NewContactsDBWithConfig(dbPath, config)
}

// isInMemoryDB определяет, что путь относится к in-memory SQLite
func isInMemoryDB(dbPath string) bool {
	if dbPath == ":memory:" {
		return true
	}

	// Формат file:memdb?mode=memory&cache=shared также хранит БД в памяти
	if strings.HasPrefix(dbPath, "file:") && strings.Contains(dbPath, "mode=memory") {
		return true
	}

	return false
}

// NewContactsDBWithConfig создает новое подключение к базе данных контактов с конфигурацией
func NewContactsDBWithConfig(dbPath string, config DBConfig) (*ContactsDB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настраиваем connection pooling
	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &ContactsDB{conn: conn}

	if err := db.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// runMigrations выполняет все миграции схемы
func (db *ContactsDB) runMigrations() error {
	db.tableCreateMutex.Lock()
	defer db.tableCreateMutex.Unlock()

	if err := db.runContactMigrations(); err != nil {
		return err
	}
	if err := db.runReviewMigrations(); err != nil {
		return err
	}
	if err := db.runImportSessionMigrations(); err != nil {
		return err
	}

	return nil
}

// Close закрывает подключение к базе данных
func (db *ContactsDB) Close() error {
	return db.conn.Close()
}

// Conn возвращает низкоуровневое соединение (для статистики и health-check)
func (db *ContactsDB) Conn() *sql.DB {
	return db.conn
}

// Ping проверяет доступность базы данных
func (db *ContactsDB) Ping() error {
	return db.conn.Ping()
}

func nullableString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullableInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}
