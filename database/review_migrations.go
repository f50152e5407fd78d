package database

// runReviewMigrations создает таблицу записей классификации на проверку
func (db *ContactsDB) runReviewMigrations() error {
	query := `
	CREATE TABLE IF NOT EXISTS classification_reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_json TEXT NOT NULL,
		contact_id INTEGER,
		reason TEXT NOT NULL,
		similarity REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		import_session_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		resolved_at DATETIME,
		FOREIGN KEY (contact_id) REFERENCES contacts(id)
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_status ON classification_reviews(status);
	CREATE INDEX IF NOT EXISTS idx_reviews_session ON classification_reviews(import_session_id);
	`

	_, err := db.conn.Exec(query)
	return err
}
