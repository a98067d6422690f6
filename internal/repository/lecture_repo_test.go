package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/arlen/lectern/internal/domain"
)

// TestLectureStatusWrites verifies the status write path a run takes:
// parsing with slide count, explaining, failure details, and clearing them
func TestLectureStatusWrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLectureRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.Lecture{ID: "lec1", Title: "Test", Status: domain.LectureStatusQueued}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.SetParsing(ctx, "lec1", 12); err != nil {
		t.Fatalf("SetParsing: %v", err)
	}
	lecture, err := repo.GetByID(ctx, "lec1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if lecture.Status != domain.LectureStatusParsing || lecture.TotalSlides != 12 {
		t.Errorf("After SetParsing: status=%s total=%d", lecture.Status, lecture.TotalSlides)
	}

	if err := repo.SetStatus(ctx, "lec1", domain.LectureStatusExplaining); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	lecture, _ = repo.GetByID(ctx, "lec1")
	if lecture.Status != domain.LectureStatusExplaining {
		t.Errorf("After SetStatus: status=%s", lecture.Status)
	}

	if err := repo.SetSubImageCount(ctx, "lec1", 5); err != nil {
		t.Fatalf("SetSubImageCount: %v", err)
	}
	lecture, _ = repo.GetByID(ctx, "lec1")
	if lecture.SubImageCount != 5 {
		t.Errorf("After SetSubImageCount: count=%d", lecture.SubImageCount)
	}

	details := domain.ErrorDetails{Service: "ingestion", Error: "failed to process slide 3: render error"}
	if err := repo.SetFailed(ctx, "lec1", details); err != nil {
		t.Fatalf("SetFailed: %v", err)
	}
	lecture, _ = repo.GetByID(ctx, "lec1")
	if lecture.Status != domain.LectureStatusFailed {
		t.Errorf("After SetFailed: status=%s", lecture.Status)
	}
	if lecture.ErrorDetails != details {
		t.Errorf("Error details round trip: got %+v, want %+v", lecture.ErrorDetails, details)
	}

	if err := repo.ClearErrorDetails(ctx, "lec1"); err != nil {
		t.Fatalf("ClearErrorDetails: %v", err)
	}
	lecture, _ = repo.GetByID(ctx, "lec1")
	if !lecture.ErrorDetails.IsZero() {
		t.Errorf("Error details not cleared: %+v", lecture.ErrorDetails)
	}
}

// TestGetByIDNotFound verifies the raw gorm error surfaces for missing rows
func TestGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLectureRepository(db)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("GetByID on missing row: got %v, want gorm.ErrRecordNotFound", err)
	}
}

// TestListOrdersByNewest verifies paging and creation-time ordering
func TestListOrdersByNewest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLectureRepository(db)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Create(ctx, &domain.Lecture{ID: id, Title: id, Status: domain.LectureStatusQueued}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	lectures, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lectures) != 2 {
		t.Errorf("List page size: got %d, want 2", len(lectures))
	}

	rest, err := repo.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("List offset: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("List remainder: got %d, want 1", len(rest))
	}
}
