package services

import (
	"testing"

	"crmserver/database"
	"crmserver/matching"
)

// createPendingReview вставляет ожидающую запись проверки для тестов
func createPendingReview(t *testing.T, db *database.ContactsDB, contactID int, rec matching.ExternalRecord) int {
	t.Helper()
	id, err := db.CreateClassificationReview(&database.ClassificationReview{
		Record:     rec,
		ContactID:  &contactID,
		Reason:     matching.ReasonNameOnly,
		Similarity: 0.97,
	})
	if err != nil {
		t.Fatalf("CreateClassificationReview() error = %v", err)
	}
	return id
}

func TestReviewService_Approve(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	contactID, err := db.InsertContact(&matching.Contact{Name: "ООО Ромашка"})
	if err != nil {
		t.Fatalf("InsertContact() error = %v", err)
	}
	reviewID := createPendingReview(t, db, contactID, matching.ExternalRecord{
		ExternalID: "EXT-1", Name: "Ромашка ООО",
	})

	rs := NewReviewService(db)
	review, err := rs.Approve(reviewID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if review.Status != database.ReviewStatusApproved {
		t.Errorf("Expected approved status, got %q", review.Status)
	}

	// Контакт связан с внешней записью
	contact, err := db.GetContact(contactID)
	if err != nil {
		t.Fatalf("GetContact() error = %v", err)
	}
	if contact.ExternalID != "EXT-1" {
		t.Errorf("Expected external id 'EXT-1', got %q", contact.ExternalID)
	}

	// Повторное решение невозможно
	if _, err := rs.Approve(reviewID); err == nil {
		t.Error("Expected conflict error for already resolved review")
	}
}

func TestReviewService_Reject(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	contactID, err := db.InsertContact(&matching.Contact{Name: "ООО Ромашка"})
	if err != nil {
		t.Fatalf("InsertContact() error = %v", err)
	}
	reviewID := createPendingReview(t, db, contactID, matching.ExternalRecord{
		ExternalID: "EXT-2", Name: "ООО Ромашка Плюс", Email: "plus@romashka.ru",
	})

	rs := NewReviewService(db)
	review, err := rs.Reject(reviewID)
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if review.Status != database.ReviewStatusRejected {
		t.Errorf("Expected rejected status, got %q", review.Status)
	}

	// Отклоненная запись импортирована новым контактом
	total, err := db.CountContacts()
	if err != nil {
		t.Fatalf("CountContacts() error = %v", err)
	}
	if total != 2 {
		t.Errorf("Expected 2 contacts after reject, got %d", total)
	}
	if review.ContactID == nil {
		t.Fatal("Rejected review should reference the new contact")
	}
	newContact, err := db.GetContact(*review.ContactID)
	if err != nil {
		t.Fatalf("GetContact() error = %v", err)
	}
	if newContact.Name != "ООО Ромашка Плюс" {
		t.Errorf("Expected new contact name, got %q", newContact.Name)
	}
	if newContact.Source != "review" {
		t.Errorf("Expected source 'review', got %q", newContact.Source)
	}
}

func TestReviewService_List_InvalidStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	rs := NewReviewService(db)
	if _, _, err := rs.List("bogus", 10, 0); err == nil {
		t.Error("Expected validation error for unknown status")
	}
}

func TestReviewService_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	rs := NewReviewService(db)
	if _, err := rs.Approve(777); err == nil {
		t.Error("Expected not found error")
	}
	if _, err := rs.Reject(777); err == nil {
		t.Error("Expected not found error")
	}
}

func TestMatchingService_Compare(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ms := NewMatchingService(db, matching.NewDuplicateDetector())

	result, err := ms.Compare("José García", "Jose Garcia")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result["name_similarity"] != 1.0 {
		t.Errorf("Expected similarity 1.0, got %v", result["name_similarity"])
	}
	if result["normalized_1"] != "jose garcia" {
		t.Errorf("Expected normalized 'jose garcia', got %v", result["normalized_1"])
	}

	if _, err := ms.Compare("", "что-то"); err == nil {
		t.Error("Expected validation error for empty string")
	}
}

func TestMatchingService_CheckRecord(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, err := db.InsertContact(&matching.Contact{Name: "Ромашка", ExternalID: "EXT-1"}); err != nil {
		t.Fatalf("InsertContact() error = %v", err)
	}

	ms := NewMatchingService(db, matching.NewDuplicateDetector())

	info, err := ms.CheckRecord(matching.ExternalRecord{ExternalID: "EXT-1", Name: "Иное"})
	if err != nil {
		t.Fatalf("CheckRecord() error = %v", err)
	}
	if !info.IsDuplicate {
		t.Error("Expected duplicate by external id")
	}
	if info.Reason != matching.ReasonExternalID {
		t.Errorf("Expected external id reason, got %q", info.Reason)
	}
}
