package database

import (
	"errors"
	"testing"

	"crmserver/matching"
)

func TestClassificationReview_CreateAndGet(t *testing.T) {
	db := setupTestContactsDB(t)
	defer db.Close()

	contactID, err := db.InsertContact(&matching.Contact{Name: "Ромашка"})
	if err != nil {
		t.Fatalf("InsertContact() error = %v", err)
	}

	id, err := db.CreateClassificationReview(&ClassificationReview{
		Record: matching.ExternalRecord{
			ExternalID: "EXT-1",
			Name:       "ООО Ромашка",
			Email:      "info@romashka.ru",
		},
		ContactID:  &contactID,
		Reason:     matching.ReasonNamePhone,
		Similarity: 0.87,
	})
	if err != nil {
		t.Fatalf("CreateClassificationReview() error = %v", err)
	}

	review, err := db.GetClassificationReview(id)
	if err != nil {
		t.Fatalf("GetClassificationReview() error = %v", err)
	}
	if review.Status != ReviewStatusPending {
		t.Errorf("Expected pending status, got %q", review.Status)
	}
	if review.Record.ExternalID != "EXT-1" {
		t.Errorf("Expected record external id 'EXT-1', got %q", review.Record.ExternalID)
	}
	if review.ContactID == nil || *review.ContactID != contactID {
		t.Errorf("Expected contact id %d, got %v", contactID, review.ContactID)
	}
	if review.Similarity != 0.87 {
		t.Errorf("Expected similarity 0.87, got %f", review.Similarity)
	}
	if review.ResolvedAt != nil {
		t.Error("Pending review should not have resolved_at")
	}
}

func TestClassificationReview_Resolve(t *testing.T) {
	db := setupTestContactsDB(t)
	defer db.Close()

	contactID, err := db.InsertContact(&matching.Contact{Name: "Ромашка"})
	if err != nil {
		t.Fatalf("InsertContact() error = %v", err)
	}

	id, err := db.CreateClassificationReview(&ClassificationReview{
		Record:     matching.ExternalRecord{Name: "ООО Ромашка"},
		ContactID:  &contactID,
		Reason:     matching.ReasonNameOnly,
		Similarity: 0.97,
	})
	if err != nil {
		t.Fatalf("CreateClassificationReview() error = %v", err)
	}

	if err := db.ResolveClassificationReview(id, ReviewStatusApproved, &contactID); err != nil {
		t.Fatalf("ResolveClassificationReview() error = %v", err)
	}

	review, err := db.GetClassificationReview(id)
	if err != nil {
		t.Fatalf("GetClassificationReview() error = %v", err)
	}
	if review.Status != ReviewStatusApproved {
		t.Errorf("Expected approved status, got %q", review.Status)
	}
	if review.ResolvedAt == nil {
		t.Error("Resolved review should have resolved_at")
	}

	// Повторное решение уже закрытой записи невозможно
	if err := db.ResolveClassificationReview(id, ReviewStatusRejected, nil); !errors.Is(err, ErrReviewNotFound) {
		t.Errorf("Expected ErrReviewNotFound for already resolved review, got %v", err)
	}
}

func TestClassificationReview_ResolveInvalidStatus(t *testing.T) {
	db := setupTestContactsDB(t)
	defer db.Close()

	if err := db.ResolveClassificationReview(1, "something", nil); err == nil {
		t.Error("Expected error for invalid resolution status")
	}
}

func TestClassificationReview_ListAndStats(t *testing.T) {
	db := setupTestContactsDB(t)
	defer db.Close()

	// Одна автопримененная и две ожидающие записи
	_, err := db.CreateClassificationReview(&ClassificationReview{
		Record: matching.ExternalRecord{Name: "А"},
		Reason: matching.ReasonExternalID, Similarity: 1.0, Status: ReviewStatusAutoApplied,
	})
	if err != nil {
		t.Fatalf("CreateClassificationReview() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		_, err := db.CreateClassificationReview(&ClassificationReview{
			Record: matching.ExternalRecord{Name: "Б"},
			Reason: matching.ReasonNameOnly, Similarity: 0.96,
		})
		if err != nil {
			t.Fatalf("CreateClassificationReview() error = %v", err)
		}
	}

	pending, total, err := db.ListClassificationReviews(ReviewStatusPending, 10, 0)
	if err != nil {
		t.Fatalf("ListClassificationReviews() error = %v", err)
	}
	if total != 2 || len(pending) != 2 {
		t.Errorf("Expected 2 pending reviews, got total=%d len=%d", total, len(pending))
	}

	stats, err := db.GetReviewStats()
	if err != nil {
		t.Fatalf("GetReviewStats() error = %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Expected total 3, got %d", stats.Total)
	}
	if stats.Pending != 2 {
		t.Errorf("Expected 2 pending, got %d", stats.Pending)
	}
	if stats.AutoApplied != 1 {
		t.Errorf("Expected 1 auto applied, got %d", stats.AutoApplied)
	}
}

func TestImportSession_Lifecycle(t *testing.T) {
	db := setupTestContactsDB(t)
	defer db.Close()

	session := &ImportSession{ID: "import-1", FileName: "contacts.xlsx", Source: "billing", Total: 10}
	if err := db.CreateImportSession(session); err != nil {
		t.Fatalf("CreateImportSession() error = %v", err)
	}

	if err := db.UpdateImportSessionCounters("import-1", 5, 3, 1, 1); err != nil {
		t.Fatalf("UpdateImportSessionCounters() error = %v", err)
	}

	if err := db.FinishImportSession("import-1", ImportStatusCompleted, ""); err != nil {
		t.Fatalf("FinishImportSession() error = %v", err)
	}

	stored, err := db.GetImportSession("import-1")
	if err != nil {
		t.Fatalf("GetImportSession() error = %v", err)
	}
	if stored.Status != ImportStatusCompleted {
		t.Errorf("Expected completed status, got %q", stored.Status)
	}
	if stored.Imported != 5 || stored.Skipped != 3 || stored.Flagged != 1 || stored.Errors != 1 {
		t.Errorf("Unexpected counters: %+v", stored)
	}
	if stored.FinishedAt == nil {
		t.Error("Finished session should have finished_at")
	}

	sessions, err := db.ListImportSessions(10, 0)
	if err != nil {
		t.Fatalf("ListImportSessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("Expected 1 session, got %d", len(sessions))
	}
}
