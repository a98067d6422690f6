package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arlen/lectern/internal/config"
	"github.com/arlen/lectern/internal/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver:          "sqlite",
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
		AutoMigrate:     true,
	}
	db, err := InitDB(cfg)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return db
}

func createTestLecture(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	lecture := &domain.Lecture{ID: id, Title: "Test Lecture", Status: domain.LectureStatusQueued}
	if err := db.Create(lecture).Error; err != nil {
		t.Fatalf("Create lecture: %v", err)
	}
}

func testChunks(lectureID string, slideNumber, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:          uuid.New().String(),
			LectureID:   lectureID,
			SlideNumber: slideNumber,
			ChunkIndex:  i,
			Text:        "chunk text",
			TokenCount:  2,
		}
	}
	return chunks
}

// TestPersistSlideCreatesRecords verifies that one call writes the slide, its
// chunks, and both image kinds with consistent linkage
func TestPersistSlideCreatesRecords(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlideRepository(db)
	createTestLecture(t, db, "lec1")
	ctx := context.Background()

	slideID, err := repo.PersistSlide(ctx, &PersistSlideInput{
		LectureID:   "lec1",
		SlideNumber: 1,
		RawText:     "some slide text",
		Chunks:      testChunks("lec1", 1, 2),
		FullImage: &domain.SlideImage{
			ID:          uuid.New().String(),
			LectureID:   "lec1",
			ImageType:   domain.SlideImageTypeFull,
			StoragePath: "lec1/slide_1.png",
		},
		ContentImages: []*domain.SlideImage{{
			ID:          uuid.New().String(),
			LectureID:   "lec1",
			ImageType:   domain.SlideImageTypeContent,
			StoragePath: "lec1/aaa.png",
			ImageHash:   "aaa",
		}},
	})
	if err != nil {
		t.Fatalf("PersistSlide: %v", err)
	}
	if slideID == "" {
		t.Fatal("PersistSlide returned empty slide ID")
	}

	var slide domain.Slide
	if err := db.First(&slide, "id = ?", slideID).Error; err != nil {
		t.Fatalf("Load slide: %v", err)
	}
	if slide.LectureID != "lec1" || slide.SlideNumber != 1 || slide.RawText != "some slide text" {
		t.Errorf("Slide row: %+v", slide)
	}

	var chunks []domain.Chunk
	if err := db.Where("slide_id = ?", slideID).Order("chunk_index").Find(&chunks).Error; err != nil {
		t.Fatalf("Load chunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("Chunks: got %d, want 2", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			t.Errorf("Chunk %d index: got %d", i, chunk.ChunkIndex)
		}
		if chunk.SlideID != slideID {
			t.Errorf("Chunk %d not linked to slide: %s", i, chunk.SlideID)
		}
	}

	var images []domain.SlideImage
	if err := db.Where("slide_id = ?", slideID).Find(&images).Error; err != nil {
		t.Fatalf("Load images: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("Images: got %d, want 2 (full + content)", len(images))
	}
}

// TestPersistSlideUpsertReusesSlide verifies that redelivery of the same
// slide number reuses the slide row and replaces derived records instead of
// accumulating duplicates
func TestPersistSlideUpsertReusesSlide(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlideRepository(db)
	createTestLecture(t, db, "lec1")
	ctx := context.Background()

	firstID, err := repo.PersistSlide(ctx, &PersistSlideInput{
		LectureID:   "lec1",
		SlideNumber: 1,
		RawText:     "first pass",
		Chunks:      testChunks("lec1", 1, 3),
		FullImage: &domain.SlideImage{
			ID:          uuid.New().String(),
			LectureID:   "lec1",
			ImageType:   domain.SlideImageTypeFull,
			StoragePath: "lec1/slide_1.png",
		},
		ContentImages: []*domain.SlideImage{
			{ID: uuid.New().String(), LectureID: "lec1", ImageType: domain.SlideImageTypeContent, StoragePath: "lec1/aaa.png", ImageHash: "aaa"},
			{ID: uuid.New().String(), LectureID: "lec1", ImageType: domain.SlideImageTypeContent, StoragePath: "lec1/bbb.png", ImageHash: "bbb"},
		},
	})
	if err != nil {
		t.Fatalf("First PersistSlide: %v", err)
	}

	secondID, err := repo.PersistSlide(ctx, &PersistSlideInput{
		LectureID:   "lec1",
		SlideNumber: 1,
		RawText:     "second pass",
		Chunks:      testChunks("lec1", 1, 2),
		FullImage: &domain.SlideImage{
			ID:          uuid.New().String(),
			LectureID:   "lec1",
			ImageType:   domain.SlideImageTypeFull,
			StoragePath: "lec1/slide_1.png",
		},
		ContentImages: []*domain.SlideImage{
			{ID: uuid.New().String(), LectureID: "lec1", ImageType: domain.SlideImageTypeContent, StoragePath: "lec1/ccc.png", ImageHash: "ccc"},
		},
	})
	if err != nil {
		t.Fatalf("Second PersistSlide: %v", err)
	}

	if firstID != secondID {
		t.Errorf("Slide ID changed on redelivery: %s -> %s", firstID, secondID)
	}

	var slideCount int64
	db.Model(&domain.Slide{}).Where("lecture_id = ?", "lec1").Count(&slideCount)
	if slideCount != 1 {
		t.Errorf("Slide rows: got %d, want 1", slideCount)
	}

	var slide domain.Slide
	db.First(&slide, "id = ?", firstID)
	if slide.RawText != "second pass" {
		t.Errorf("RawText not updated: %q", slide.RawText)
	}

	var chunkCount int64
	db.Model(&domain.Chunk{}).Where("slide_id = ?", firstID).Count(&chunkCount)
	if chunkCount != 2 {
		t.Errorf("Chunks after redelivery: got %d, want 2", chunkCount)
	}

	var fullCount int64
	db.Model(&domain.SlideImage{}).Where("slide_id = ? AND image_type = ?", firstID, domain.SlideImageTypeFull).Count(&fullCount)
	if fullCount != 1 {
		t.Errorf("Full image rows: got %d, want 1", fullCount)
	}

	var contents []domain.SlideImage
	db.Where("slide_id = ? AND image_type = ?", firstID, domain.SlideImageTypeContent).Find(&contents)
	if len(contents) != 1 || contents[0].ImageHash != "ccc" {
		t.Errorf("Content rows after redelivery: %+v", contents)
	}
}

// TestListWithFullImages verifies the left join surfaces slides without a
// full image as empty paths, in slide order
func TestListWithFullImages(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlideRepository(db)
	createTestLecture(t, db, "lec1")
	ctx := context.Background()

	if _, err := repo.PersistSlide(ctx, &PersistSlideInput{
		LectureID:   "lec1",
		SlideNumber: 2,
		RawText:     "second",
	}); err != nil {
		t.Fatalf("PersistSlide 2: %v", err)
	}
	if _, err := repo.PersistSlide(ctx, &PersistSlideInput{
		LectureID:   "lec1",
		SlideNumber: 1,
		RawText:     "first",
		FullImage: &domain.SlideImage{
			ID:          uuid.New().String(),
			LectureID:   "lec1",
			ImageType:   domain.SlideImageTypeFull,
			StoragePath: "lec1/slide_1.png",
		},
	}); err != nil {
		t.Fatalf("PersistSlide 1: %v", err)
	}

	slides, err := repo.ListWithFullImages(ctx, "lec1")
	if err != nil {
		t.Fatalf("ListWithFullImages: %v", err)
	}
	if len(slides) != 2 {
		t.Fatalf("Slides: got %d, want 2", len(slides))
	}
	if slides[0].SlideNumber != 1 || slides[1].SlideNumber != 2 {
		t.Errorf("Order: got %d, %d", slides[0].SlideNumber, slides[1].SlideNumber)
	}
	if slides[0].ImagePath != "lec1/slide_1.png" {
		t.Errorf("Slide 1 image path: got %q", slides[0].ImagePath)
	}
	if slides[1].ImagePath != "" {
		t.Errorf("Slide 2 image path: got %q, want empty", slides[1].ImagePath)
	}
}

// TestCountChunks verifies chunk counting across a lecture's slides
func TestCountChunks(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlideRepository(db)
	createTestLecture(t, db, "lec1")
	ctx := context.Background()

	for n := 1; n <= 2; n++ {
		if _, err := repo.PersistSlide(ctx, &PersistSlideInput{
			LectureID:   "lec1",
			SlideNumber: n,
			RawText:     "text",
			Chunks:      testChunks("lec1", n, 2),
		}); err != nil {
			t.Fatalf("PersistSlide %d: %v", n, err)
		}
	}

	count, err := repo.CountChunks(ctx, "lec1")
	if err != nil {
		t.Fatalf("CountChunks: %v", err)
	}
	if count != 4 {
		t.Errorf("Chunk count: got %d, want 4", count)
	}
}
