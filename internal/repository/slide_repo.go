package repository

import (
	"context"
	"errors"

	"github.com/arlen/lectern/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlideRepository handles slide, chunk, and slide-image data operations.
type SlideRepository struct {
	db *gorm.DB
}

// NewSlideRepository creates a new SlideRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SlideRepository: repository instance bound to db.
func NewSlideRepository(db *gorm.DB) *SlideRepository {
	return &SlideRepository{db: db}
}

// PersistSlideInput carries everything one slide's transaction writes.
// Chunk and image rows arrive fully built except for SlideID, which is
// resolved inside the transaction.
type PersistSlideInput struct {
	LectureID     string
	SlideNumber   int
	RawText       string
	Chunks        []domain.Chunk
	FullImage     *domain.SlideImage
	ContentImages []*domain.SlideImage
}

// PersistSlide writes one slide's derived records in a single transaction.
// The slide row is upserted on (lecture_id, slide_number) so redelivery of a
// partially processed lecture reuses existing slide IDs instead of violating
// the unique index; chunks and content images are replaced, not appended,
// for the same reason.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - input: slide data including chunks and resolved images.
// Returns:
//   - string: ID of the created or reused slide row.
//   - error: non-nil if any write fails; the transaction is rolled back.
func (r *SlideRepository) PersistSlide(ctx context.Context, input *PersistSlideInput) (string, error) {
	var slideID string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Slide
		err := tx.First(&existing, "lecture_id = ? AND slide_number = ?", input.LectureID, input.SlideNumber).Error
		switch {
		case err == nil:
			slideID = existing.ID
			if err := tx.Model(&domain.Slide{}).
				Where("id = ?", slideID).
				Update("raw_text", input.RawText).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			slide := &domain.Slide{
				ID:          uuid.New().String(),
				LectureID:   input.LectureID,
				SlideNumber: input.SlideNumber,
				RawText:     input.RawText,
			}
			if err := tx.Create(slide).Error; err != nil {
				return err
			}
			slideID = slide.ID
		default:
			return err
		}

		// Replace chunks wholesale; chunk rows are immutable once written
		if err := tx.Where("slide_id = ?", slideID).Delete(&domain.Chunk{}).Error; err != nil {
			return err
		}
		for i := range input.Chunks {
			input.Chunks[i].SlideID = slideID
		}
		if len(input.Chunks) > 0 {
			if err := tx.Create(&input.Chunks).Error; err != nil {
				return err
			}
		}

		// Exactly one full-page image per slide
		if input.FullImage != nil {
			input.FullImage.SlideID = slideID

			var existingImg domain.SlideImage
			err := tx.First(&existingImg, "slide_id = ? AND image_type = ?", slideID, domain.SlideImageTypeFull).Error
			switch {
			case err == nil:
				input.FullImage.ID = existingImg.ID
				if err := tx.Model(&domain.SlideImage{}).
					Where("id = ?", existingImg.ID).
					Update("storage_path", input.FullImage.StoragePath).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(input.FullImage).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}

		// Content rows from an earlier partial run are superseded by this run's
		// resolution, so drop them before inserting the new ones
		if err := tx.Where("slide_id = ? AND image_type = ?", slideID, domain.SlideImageTypeContent).
			Delete(&domain.SlideImage{}).Error; err != nil {
			return err
		}
		for _, img := range input.ContentImages {
			img.SlideID = slideID
			if err := tx.Create(img).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return slideID, nil
}

// SlideWithImage pairs a slide with its full-page image storage path.
// ImagePath is empty when the slide has no full image row.
type SlideWithImage struct {
	ID          string `json:"id"`
	SlideNumber int    `json:"slide_number"`
	ImagePath   string `json:"image_path"`
}

// ListWithFullImages retrieves a lecture's slides joined with their full-page
// image paths, ordered by slide number.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - lectureID: lecture whose slides to list.
// Returns:
//   - []SlideWithImage: slide id, number, and image path per slide.
//   - error: non-nil if the query fails.
func (r *SlideRepository) ListWithFullImages(ctx context.Context, lectureID string) ([]SlideWithImage, error) {
	var slides []SlideWithImage
	if err := r.db.WithContext(ctx).
		Table("slides").
		Select("slides.id, slides.slide_number, COALESCE(slide_images.storage_path, '') AS image_path").
		Joins("LEFT JOIN slide_images ON slide_images.slide_id = slides.id AND slide_images.image_type = ?", domain.SlideImageTypeFull).
		Where("slides.lecture_id = ?", lectureID).
		Order("slides.slide_number ASC").
		Scan(&slides).Error; err != nil {
		return nil, err
	}
	return slides, nil
}

// ListByLecture retrieves a lecture's slide rows ordered by slide number.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - lectureID: lecture whose slides to list.
// Returns:
//   - []domain.Slide: slide records.
//   - error: non-nil if the query fails.
func (r *SlideRepository) ListByLecture(ctx context.Context, lectureID string) ([]domain.Slide, error) {
	var slides []domain.Slide
	if err := r.db.WithContext(ctx).
		Where("lecture_id = ?", lectureID).
		Order("slide_number ASC").
		Find(&slides).Error; err != nil {
		return nil, err
	}
	return slides, nil
}

// CountChunks counts chunk rows belonging to a lecture.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - lectureID: lecture to count chunks for.
// Returns:
//   - int64: number of chunk rows.
//   - error: non-nil if the query fails.
func (r *SlideRepository) CountChunks(ctx context.Context, lectureID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Chunk{}).
		Where("lecture_id = ?", lectureID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
