package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"crmserver/matching"
)

// ErrContactNotFound возвращается, когда контакт с указанным ID не существует
var ErrContactNotFound = errors.New("contact not found")

// StoredContact контакт вместе со служебными полями хранения
type StoredContact struct {
	matching.Contact
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InsertContact вставляет новый контакт и возвращает его ID
func (db *ContactsDB) InsertContact(c *matching.Contact) (int, error) {
	result, err := db.conn.Exec(`
		INSERT INTO contacts (name, tax_id, email, phone, external_id, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		c.Name, c.TaxID, c.Email, c.Phone, c.ExternalID, c.Source,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contact: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted contact id: %w", err)
	}

	return int(id), nil
}

// GetContact возвращает контакт по ID
func (db *ContactsDB) GetContact(id int) (*StoredContact, error) {
	row := db.conn.QueryRow(`
		SELECT id, name, tax_id, email, phone, external_id, source, created_at, updated_at
		FROM contacts WHERE id = ?`, id)

	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return contact, nil
}

// UpdateContact обновляет поля контакта
func (db *ContactsDB) UpdateContact(c *matching.Contact) error {
	result, err := db.conn.Exec(`
		UPDATE contacts
		SET name = ?, tax_id = ?, email = ?, phone = ?, external_id = ?, source = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		c.Name, c.TaxID, c.Email, c.Phone, c.ExternalID, c.Source, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrContactNotFound
	}

	return nil
}

// DeleteContact удаляет контакт по ID
func (db *ContactsDB) DeleteContact(id int) error {
	result, err := db.conn.Exec(`DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrContactNotFound
	}

	return nil
}

// LinkExternalID связывает контакт с записью внешней системы.
// Вызывается при автоприменении результата детектора и при одобрении проверки.
func (db *ContactsDB) LinkExternalID(contactID int, externalID string) error {
	result, err := db.conn.Exec(`
		UPDATE contacts SET external_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		externalID, contactID,
	)
	if err != nil {
		return fmt.Errorf("failed to link external id: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check link result: %w", err)
	}
	if affected == 0 {
		return ErrContactNotFound
	}

	return nil
}

// ListContacts возвращает страницу контактов с опциональным поиском по названию,
// налоговому номеру и email, а также общее количество подходящих записей
func (db *ContactsDB) ListContacts(limit, offset int, search string) ([]*StoredContact, int, error) {
	where := ""
	args := []interface{}{}

	if search != "" {
		where = ` WHERE name LIKE ? OR tax_id LIKE ? OR email LIKE ?`
		pattern := "%" + strings.TrimSpace(search) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM contacts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	query := `
		SELECT id, name, tax_id, email, phone, external_id, source, created_at, updated_at
		FROM contacts` + where + ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*StoredContact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate contacts: %w", err)
	}

	return contacts, total, nil
}

// AllContacts возвращает полный список контактов для прогона детектора дубликатов.
// Детектор сканирует список в памяти, поэтому выборка делается одним запросом.
func (db *ContactsDB) AllContacts() ([]*matching.Contact, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, tax_id, email, phone, external_id, source FROM contacts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*matching.Contact{}
	for rows.Next() {
		var c matching.Contact
		var taxID, email, phone, externalID, source sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &taxID, &email, &phone, &externalID, &source); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		c.TaxID = nullableString(taxID)
		c.Email = nullableString(email)
		c.Phone = nullableString(phone)
		c.ExternalID = nullableString(externalID)
		c.Source = nullableString(source)
		contacts = append(contacts, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}

	return contacts, nil
}

// CountContacts возвращает общее количество контактов
func (db *ContactsDB) CountContacts() (int, error) {
	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return total, nil
}

// rowScanner покрывает *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(row rowScanner) (*StoredContact, error) {
	var contact StoredContact
	var taxID, email, phone, externalID, source sql.NullString
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(&contact.ID, &contact.Name, &taxID, &email, &phone,
		&externalID, &source, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	contact.TaxID = nullableString(taxID)
	contact.Email = nullableString(email)
	contact.Phone = nullableString(phone)
	contact.ExternalID = nullableString(externalID)
	contact.Source = nullableString(source)
	if createdAt.Valid {
		contact.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		contact.UpdatedAt = updatedAt.Time
	}

	return &contact, nil
}
