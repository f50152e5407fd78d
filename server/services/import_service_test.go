package services

import (
	"testing"
	"time"

	"crmserver/database"
	"crmserver/matching"
)

// setupTestDB создает тестовую БД контактов
func setupTestDB(t *testing.T) *database.ContactsDB {
	t.Helper()
	db, err := database.NewContactsDB(t.TempDir() + "/contacts.db")
	if err != nil {
		t.Fatalf("Failed to create test ContactsDB: %v", err)
	}
	return db
}

// waitForTask ждет завершения фоновой задачи импорта
func waitForTask(t *testing.T, is *ImportService, taskID string) *ImportTask {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := is.GetTaskStatus(taskID)
		if err != nil {
			t.Fatalf("GetTaskStatus() error = %v", err)
		}
		if task.Status != ImportTaskRunning {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Import task did not finish in time")
	return nil
}

func TestImportService_StartImport_Empty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	is := NewImportService(db, matching.NewDuplicateDetector(), nil)
	if _, err := is.StartImport(nil, "", "test"); err == nil {
		t.Error("Expected validation error for empty record list")
	}
}

func TestImportService_NewContacts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	events := make(chan string, 10)
	is := NewImportService(db, matching.NewDuplicateDetector(), events)

	records := []matching.ExternalRecord{
		{ExternalID: "EXT-1", Name: "ООО Ромашка", TaxID: "7707083893"},
		{ExternalID: "EXT-2", Name: "ЗАО Незабудка", Email: "office@nezabudka.ru"},
	}

	taskID, err := is.StartImport(records, "contacts.xlsx", "billing")
	if err != nil {
		t.Fatalf("StartImport() error = %v", err)
	}

	task := waitForTask(t, is, taskID)
	if task.Status != ImportTaskCompleted {
		t.Fatalf("Expected completed task, got %q (%s)", task.Status, task.Error)
	}
	if task.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", task.Imported)
	}
	if task.Progress != 100 {
		t.Errorf("Expected progress 100, got %d", task.Progress)
	}

	contacts, err := db.AllContacts()
	if err != nil {
		t.Fatalf("AllContacts() error = %v", err)
	}
	if len(contacts) != 2 {
		t.Errorf("Expected 2 contacts in DB, got %d", len(contacts))
	}
	if contacts[0].ExternalID != "EXT-1" {
		t.Errorf("Expected external id 'EXT-1', got %q", contacts[0].ExternalID)
	}

	session, err := db.GetImportSession(taskID)
	if err != nil {
		t.Fatalf("GetImportSession() error = %v", err)
	}
	if session.Status != database.ImportStatusCompleted {
		t.Errorf("Expected completed session, got %q", session.Status)
	}
	if session.Imported != 2 {
		t.Errorf("Expected 2 imported in session, got %d", session.Imported)
	}
}

func TestImportService_AutoApplyExactMatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// Существующий контакт с тем же ИНН, но без внешнего идентификатора
	contactID, err := db.InsertContact(&matching.Contact{Name: "Ромашка", TaxID: "7707083893"})
	if err != nil {
		t.Fatalf("InsertContact() error = %v", err)
	}

	is := NewImportService(db, matching.NewDuplicateDetector(), nil)
	taskID, err := is.StartImport([]matching.ExternalRecord{
		{ExternalID: "EXT-1", Name: "ООО Ромашка", TaxID: "7707-083893"},
	}, "", "billing")
	if err != nil {
		t.Fatalf("StartImport() error = %v", err)
	}

	task := waitForTask(t, is, taskID)
	if task.Skipped != 1 {
		t.Errorf("Expected 1 skipped, got %d", task.Skipped)
	}
	if task.Imported != 0 {
		t.Errorf("Expected 0 imported, got %d", task.Imported)
	}

	// Контакт должен получить внешний идентификатор
	contact, err := db.GetContact(contactID)
	if err != nil {
		t.Fatalf("GetContact() error = %v", err)
	}
	if contact.ExternalID != "EXT-1" {
		t.Errorf("Expected linked external id 'EXT-1', got %q", contact.ExternalID)
	}

	// И должна появиться автопримененная запись проверки
	reviews, _, err := db.ListClassificationReviews(database.ReviewStatusAutoApplied, 10, 0)
	if err != nil {
		t.Fatalf("ListClassificationReviews() error = %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("Expected 1 auto applied review, got %d", len(reviews))
	}
	if reviews[0].Reason != matching.ReasonTaxID {
		t.Errorf("Expected tax id reason, got %q", reviews[0].Reason)
	}
}

func TestImportService_FlagsFuzzyMatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, err := db.InsertContact(&matching.Contact{Name: "ООО Стройтехмонтаж"}); err != nil {
		t.Fatalf("InsertContact() error = %v", err)
	}

	is := NewImportService(db, matching.NewDuplicateDetector(), nil)
	taskID, err := is.StartImport([]matching.ExternalRecord{
		{ExternalID: "EXT-9", Name: "ООО Стройтехмонтаж+"},
	}, "", "billing")
	if err != nil {
		t.Fatalf("StartImport() error = %v", err)
	}

	task := waitForTask(t, is, taskID)
	if task.Flagged != 1 {
		t.Errorf("Expected 1 flagged, got %d", task.Flagged)
	}

	reviews, _, err := db.ListClassificationReviews(database.ReviewStatusPending, 10, 0)
	if err != nil {
		t.Fatalf("ListClassificationReviews() error = %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("Expected 1 pending review, got %d", len(reviews))
	}
	if reviews[0].Reason != matching.ReasonNameOnly {
		t.Errorf("Expected name reason, got %q", reviews[0].Reason)
	}
	if reviews[0].ImportSessionID != taskID {
		t.Errorf("Expected review linked to session %q, got %q", taskID, reviews[0].ImportSessionID)
	}
}

func TestImportService_NamePhoneMatchStaysPending(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// Название и телефон совпадают полностью, точных полей нет:
	// схожесть равна 1.0, но совпадение остается нечетким
	contactID, err := db.InsertContact(&matching.Contact{Name: "ООО Ромашка", Phone: "+7 495 123-45-67"})
	if err != nil {
		t.Fatalf("InsertContact() error = %v", err)
	}

	is := NewImportService(db, matching.NewDuplicateDetector(), nil)
	taskID, err := is.StartImport([]matching.ExternalRecord{
		{ExternalID: "EXT-7", Name: "ООО Ромашка", Phone: "74951234567"},
	}, "", "billing")
	if err != nil {
		t.Fatalf("StartImport() error = %v", err)
	}

	task := waitForTask(t, is, taskID)
	if task.Flagged != 1 {
		t.Errorf("Expected 1 flagged, got %d", task.Flagged)
	}
	if task.Skipped != 0 {
		t.Errorf("Expected 0 skipped, got %d", task.Skipped)
	}

	reviews, _, err := db.ListClassificationReviews(database.ReviewStatusPending, 10, 0)
	if err != nil {
		t.Fatalf("ListClassificationReviews() error = %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("Expected 1 pending review, got %d", len(reviews))
	}
	if reviews[0].Reason != matching.ReasonNamePhone {
		t.Errorf("Expected name+phone reason, got %q", reviews[0].Reason)
	}
	if reviews[0].Similarity != 1.0 {
		t.Errorf("Expected similarity 1.0, got %v", reviews[0].Similarity)
	}

	// Контакт не должен быть связан без решения оператора
	contact, err := db.GetContact(contactID)
	if err != nil {
		t.Fatalf("GetContact() error = %v", err)
	}
	if contact.ExternalID != "" {
		t.Errorf("Expected contact without external id, got %q", contact.ExternalID)
	}
}

func TestImportService_DuplicateInsideBatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	is := NewImportService(db, matching.NewDuplicateDetector(), nil)

	// Вторая запись дублирует первую внутри одного файла
	taskID, err := is.StartImport([]matching.ExternalRecord{
		{ExternalID: "EXT-1", Name: "ООО Ромашка", TaxID: "7707083893"},
		{ExternalID: "EXT-1", Name: "Ромашка ООО", TaxID: "7707083893"},
	}, "", "billing")
	if err != nil {
		t.Fatalf("StartImport() error = %v", err)
	}

	task := waitForTask(t, is, taskID)
	if task.Imported != 1 {
		t.Errorf("Expected 1 imported, got %d", task.Imported)
	}
	if task.Skipped != 1 {
		t.Errorf("Expected 1 skipped, got %d", task.Skipped)
	}

	total, err := db.CountContacts()
	if err != nil {
		t.Fatalf("CountContacts() error = %v", err)
	}
	if total != 1 {
		t.Errorf("Expected 1 contact after batch, got %d", total)
	}
}

func TestImportService_GetTaskStatus_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	is := NewImportService(db, matching.NewDuplicateDetector(), nil)
	if _, err := is.GetTaskStatus("missing"); err == nil {
		t.Error("Expected error for unknown task id")
	}
}
