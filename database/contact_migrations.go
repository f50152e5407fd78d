package database

// runContactMigrations создает таблицу контактов и индексы
func (db *ContactsDB) runContactMigrations() error {
	query := `
	CREATE TABLE IF NOT EXISTS contacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		tax_id TEXT,
		email TEXT,
		phone TEXT,
		external_id TEXT,
		source TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_contacts_external_id ON contacts(external_id);
	CREATE INDEX IF NOT EXISTS idx_contacts_tax_id ON contacts(tax_id);
	CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
	`

	_, err := db.conn.Exec(query)
	return err
}
