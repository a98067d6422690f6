package repository

import (
	"context"

	"github.com/arlen/lectern/internal/domain"
	"gorm.io/gorm"
)

// LectureRepository handles lecture data operations.
type LectureRepository struct {
	db *gorm.DB
}

// NewLectureRepository creates a new LectureRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *LectureRepository: repository instance bound to db.
func NewLectureRepository(db *gorm.DB) *LectureRepository {
	return &LectureRepository{db: db}
}

// GetByID retrieves a lecture by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: lecture ID.
// Returns:
//   - *domain.Lecture: lecture record if found.
//   - error: gorm.ErrRecordNotFound if no record exists, other errors on failure.
func (r *LectureRepository) GetByID(ctx context.Context, id string) (*domain.Lecture, error) {
	var lecture domain.Lecture
	if err := r.db.WithContext(ctx).First(&lecture, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lecture, nil
}

// Create inserts a new lecture record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - lecture: lecture record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *LectureRepository) Create(ctx context.Context, lecture *domain.Lecture) error {
	return r.db.WithContext(ctx).Create(lecture).Error
}

// ClearErrorDetails removes any stale error record from a lecture.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: lecture ID.
// Returns:
//   - error: non-nil if the update fails.
func (r *LectureRepository) ClearErrorDetails(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Lecture{}).
		Where("id = ?", id).
		Update("error_details", nil).Error
}

// SetParsing marks a lecture as parsing and records its total slide count.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: lecture ID.
//   - totalSlides: page count of the opened document.
// Returns:
//   - error: non-nil if the update fails.
func (r *LectureRepository) SetParsing(ctx context.Context, id string, totalSlides int) error {
	return r.db.WithContext(ctx).Model(&domain.Lecture{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       domain.LectureStatusParsing,
			"total_slides": totalSlides,
		}).Error
}

// SetStatus updates a lecture's status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: lecture ID.
//   - status: new status value.
// Returns:
//   - error: non-nil if the update fails.
func (r *LectureRepository) SetStatus(ctx context.Context, id string, status domain.LectureStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Lecture{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// SetFailed marks a lecture as failed with a structured error record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: lecture ID.
//   - details: structured error payload to store.
// Returns:
//   - error: non-nil if the update fails.
func (r *LectureRepository) SetFailed(ctx context.Context, id string, details domain.ErrorDetails) error {
	return r.db.WithContext(ctx).Model(&domain.Lecture{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        domain.LectureStatusFailed,
			"error_details": details,
		}).Error
}

// SetSubImageCount records the number of unique content images found in a run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: lecture ID.
//   - count: unique content-image count.
// Returns:
//   - error: non-nil if the update fails.
func (r *LectureRepository) SetSubImageCount(ctx context.Context, id string, count int) error {
	return r.db.WithContext(ctx).Model(&domain.Lecture{}).
		Where("id = ?", id).
		Update("sub_image_count", count).Error
}

// List retrieves lectures ordered by creation time with pagination.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.Lecture: matching lecture records.
//   - error: non-nil if the query fails.
func (r *LectureRepository) List(ctx context.Context, limit, offset int) ([]domain.Lecture, error) {
	var lectures []domain.Lecture
	if err := r.db.WithContext(ctx).
		Limit(limit).
		Offset(offset).
		Order("created_at DESC").
		Find(&lectures).Error; err != nil {
		return nil, err
	}
	return lectures, nil
}
