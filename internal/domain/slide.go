package domain

import "time"

// Slide represents one page of a lecture document.
// slide_number is 1-based and unique within a lecture.
type Slide struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	LectureID   string    `gorm:"type:text;not null;uniqueIndex:idx_slides_lecture_number" json:"lecture_id"`
	SlideNumber int       `gorm:"not null;uniqueIndex:idx_slides_lecture_number" json:"slide_number"`
	RawText     string    `gorm:"type:text" json:"raw_text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Slide.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Slide) TableName() string {
	return "slides"
}

// Chunk is a token-bounded segment of a slide's raw text.
// chunk_index is 0-based and ordered within its slide.
type Chunk struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	SlideID     string    `gorm:"type:text;not null;index:idx_chunks_slide" json:"slide_id"`
	LectureID   string    `gorm:"type:text;not null;index:idx_chunks_lecture" json:"lecture_id"`
	SlideNumber int       `gorm:"not null" json:"slide_number"`
	ChunkIndex  int       `gorm:"not null" json:"chunk_index"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	TokenCount  int       `gorm:"not null" json:"token_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for Chunk.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Chunk) TableName() string {
	return "chunks"
}
