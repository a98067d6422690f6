package domain

import "time"

// SlideImageType distinguishes the rendered page image from images embedded in the page.
type SlideImageType string

const (
	// SlideImageTypeFull is the rendered full-page image, exactly one per slide.
	SlideImageTypeFull SlideImageType = "full"

	// SlideImageTypeContent is an image embedded in the page content,
	// stored once per unique hash within an ingestion run.
	SlideImageTypeContent SlideImageType = "content"
)

// SlideImage represents a stored image derived from a lecture page.
// Content images are content-addressed: storage_path embeds the SHA-256 of the
// normalized PNG bytes, so identical bytes land on the same object key.
type SlideImage struct {
	ID          string         `gorm:"type:text;primaryKey" json:"id"`
	SlideID     string         `gorm:"type:text;not null;index:idx_slide_images_slide" json:"slide_id"`
	LectureID   string         `gorm:"type:text;not null;index:idx_slide_images_lecture" json:"lecture_id"`
	ImageType   SlideImageType `gorm:"column:image_type;type:text;not null" json:"type"`
	StoragePath string         `gorm:"type:text;not null" json:"storage_path"`
	ImageHash   string         `gorm:"type:text;index:idx_slide_images_hash" json:"image_hash,omitempty"`
	OCRText     string         `gorm:"column:ocr_text;type:text" json:"ocr_text,omitempty"`
	AltText     string         `gorm:"type:text" json:"alt_text,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName returns the database table name for SlideImage.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (SlideImage) TableName() string {
	return "slide_images"
}
