package service

import (
	"context"

	"github.com/arlen/lectern/internal/domain"
	"github.com/arlen/lectern/internal/logger"
)

// StatusCoordinator owns every status and error-detail write the pipeline
// makes. Writes are synchronous: each method returns only after the database
// has acknowledged the update, which is what lets the orchestrator order the
// "explaining" flip strictly before the first job publish.
type StatusCoordinator struct {
	lectures LectureStore
}

// NewStatusCoordinator creates a new StatusCoordinator.
// Parameters:
//   - lectures: lecture store used for status writes.
// Returns:
//   - *StatusCoordinator: configured coordinator.
func NewStatusCoordinator(lectures LectureStore) *StatusCoordinator {
	return &StatusCoordinator{lectures: lectures}
}

// ClearErrors removes stale error details left by a previous failed run.
// Parameters:
//   - ctx: request context for cancellation.
//   - lectureID: lecture to clear.
// Returns:
//   - error: non-nil if the write fails.
func (c *StatusCoordinator) ClearErrors(ctx context.Context, lectureID string) error {
	return c.lectures.ClearErrorDetails(ctx, lectureID)
}

// BeginParsing transitions a lecture into parsing and records its slide
// count. The count is written exactly once per run, together with the status.
// Parameters:
//   - ctx: request context for cancellation.
//   - lecture: lecture as read at verification time.
//   - totalSlides: page count of the opened document.
// Returns:
//   - error: non-nil if the write fails.
func (c *StatusCoordinator) BeginParsing(ctx context.Context, lecture *domain.Lecture, totalSlides int) error {
	if !domain.ValidTransition(lecture.Status, domain.LectureStatusParsing) {
		logger.CtxWarn(ctx, "Unexpected status transition %s -> %s for lecture %s",
			lecture.Status, domain.LectureStatusParsing, lecture.ID)
	}
	return c.lectures.SetParsing(ctx, lecture.ID, totalSlides)
}

// MarkExplaining transitions a lecture into explaining. Callers must invoke
// this after the last slide transaction commits and before any job publish.
// Parameters:
//   - ctx: request context for cancellation.
//   - lectureID: lecture to transition.
// Returns:
//   - error: non-nil if the write fails.
func (c *StatusCoordinator) MarkExplaining(ctx context.Context, lectureID string) error {
	return c.lectures.SetStatus(ctx, lectureID, domain.LectureStatusExplaining)
}

// MarkFailed records a failure with structured details. Best effort: a write
// failure here is logged, not returned, because the original pipeline error
// is the one the caller needs to propagate.
// Parameters:
//   - ctx: request context for cancellation.
//   - lectureID: lecture to mark failed.
//   - cause: error that aborted the run.
// Returns: none.
func (c *StatusCoordinator) MarkFailed(ctx context.Context, lectureID string, cause error) {
	details := domain.ErrorDetails{
		Service: "ingestion",
		Error:   cause.Error(),
	}
	if err := c.lectures.SetFailed(ctx, lectureID, details); err != nil {
		logger.CtxError(ctx, "Failed to record failed status for lecture %s: %v", lectureID, err)
	}
}
