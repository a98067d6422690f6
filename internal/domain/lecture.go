package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// LectureStatus represents the processing status of a lecture record.
// Values include LectureStatusQueued, LectureStatusParsing, LectureStatusExplaining,
// LectureStatusComplete, and LectureStatusFailed.
type LectureStatus string

const (
	LectureStatusQueued     LectureStatus = "queued"
	LectureStatusParsing    LectureStatus = "parsing"
	LectureStatusExplaining LectureStatus = "explaining"
	LectureStatusComplete   LectureStatus = "complete"
	LectureStatusFailed     LectureStatus = "failed"
)

// statusTransitions lists the allowed next statuses for each status.
// "queued" and "complete" are written by collaborators outside this service;
// ingestion itself only writes "parsing", "explaining", and "failed".
// "failed" -> "parsing" covers re-delivery of a previously failed lecture.
var statusTransitions = map[LectureStatus][]LectureStatus{
	LectureStatusQueued:     {LectureStatusParsing, LectureStatusFailed},
	LectureStatusParsing:    {LectureStatusExplaining, LectureStatusFailed},
	LectureStatusExplaining: {LectureStatusComplete, LectureStatusFailed},
	LectureStatusFailed:     {LectureStatusParsing},
}

// ValidTransition reports whether moving from one status to another is allowed.
// Parameters:
//   - from: current lecture status.
//   - to: proposed next status.
// Returns:
//   - bool: true if the transition is part of the lecture state machine.
func ValidTransition(from, to LectureStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrorDetails is a structured error record stored as JSON in the database.
// A zero value serializes to NULL so cleared errors do not linger as empty objects.
type ErrorDetails struct {
	Service string `json:"service"`
	Error   string `json:"error"`
}

// IsZero reports whether the record carries no error information.
func (e ErrorDetails) IsZero() bool {
	return e.Service == "" && e.Error == ""
}

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded error record, or nil for a zero value.
//   - error: non-nil if marshaling fails.
func (e ErrorDetails) Value() (driver.Value, error) {
	if e.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (e *ErrorDetails) Scan(value interface{}) error {
	if value == nil {
		*e = ErrorDetails{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan ErrorDetails")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, e)
}

// Lecture represents a lecture document moving through the ingestion pipeline.
// The row is created upstream before ingestion; this service reads it to verify
// existence and mutates status, slide counts, and error details.
type Lecture struct {
	ID            string        `gorm:"type:text;primaryKey" json:"id"`
	Title         string        `gorm:"type:text" json:"title"`
	Status        LectureStatus `gorm:"type:text;index:idx_lectures_status;default:queued" json:"status"`
	TotalSlides   int           `gorm:"default:0" json:"total_slides"`
	SubImageCount int           `gorm:"default:0" json:"sub_image_count"`
	ErrorDetails  ErrorDetails  `gorm:"type:text" json:"error_details,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TableName returns the database table name for Lecture.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Lecture) TableName() string {
	return "lectures"
}
