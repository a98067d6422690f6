package service

import (
	"context"
	"fmt"

	"github.com/arlen/lectern/internal/broker"
	"github.com/arlen/lectern/internal/domain"
	"github.com/arlen/lectern/internal/logger"
)

// DispatchTopics names the broker queues the dispatcher publishes to.
type DispatchTopics struct {
	Explanation   string
	ImageAnalysis string
	Embedding     string
}

// JobDispatcher fans out downstream work after a run's slides are committed:
// one explanation job per slide, then either per-image analysis jobs or a
// single embedding fallback job. Publishes are at-least-once; the dispatcher
// never waits on consumers.
type JobDispatcher struct {
	slides SlideStore
	pub    broker.Publisher
	topics DispatchTopics
}

// NewJobDispatcher creates a new JobDispatcher.
// Parameters:
//   - slides: slide store used to list slides with their image paths.
//   - pub: broker publisher for job delivery.
//   - topics: queue names per job kind.
// Returns:
//   - *JobDispatcher: configured dispatcher.
func NewJobDispatcher(slides SlideStore, pub broker.Publisher, topics DispatchTopics) *JobDispatcher {
	return &JobDispatcher{
		slides: slides,
		pub:    pub,
		topics: topics,
	}
}

// Dispatch publishes the run's downstream jobs. Slides are read back from the
// database so the dispatched set reflects exactly what was committed.
// Parameters:
//   - ctx: request context for cancellation.
//   - run: finished ingestion run.
// Returns:
//   - error: non-nil if listing slides or any publish fails.
func (d *JobDispatcher) Dispatch(ctx context.Context, run *IngestRun) error {
	slides, err := d.slides.ListWithFullImages(ctx, run.LectureID)
	if err != nil {
		return fmt.Errorf("failed to list slides for dispatch: %w", err)
	}

	logger.CtxInfo(ctx, "Dispatching explanation jobs for %d slides", len(slides))
	for _, slide := range slides {
		if slide.ImagePath == "" {
			// Missing image is a skip, not an error
			logger.CtxWarn(ctx, "Could not find full slide image for slide %s. Skipping explanation job.", slide.ID)
			continue
		}

		job := domain.ExplanationJob{
			LectureID:          run.LectureID,
			SlideID:            slide.ID,
			SlideNumber:        slide.SlideNumber,
			TotalSlides:        run.TotalSlides,
			SlideImagePath:     slide.ImagePath,
			CustomerIdentifier: run.CustomerIdentifier,
			Name:               run.Name,
			Email:              run.Email,
		}
		if err := d.pub.Publish(ctx, d.topics.Explanation, job); err != nil {
			return fmt.Errorf("failed to publish explanation job for slide %d: %w", slide.SlideNumber, err)
		}
	}

	if len(run.AnalysisJobs) > 0 {
		logger.CtxInfo(ctx, "Dispatching %d image analysis jobs", len(run.AnalysisJobs))
		for _, job := range run.AnalysisJobs {
			job.CustomerIdentifier = run.CustomerIdentifier
			job.Name = run.Name
			job.Email = run.Email
			if err := d.pub.Publish(ctx, d.topics.ImageAnalysis, job); err != nil {
				return fmt.Errorf("failed to publish image analysis job for image %s: %w", job.ImageHash, err)
			}
		}
		return nil
	}

	// No image-level work exists, so the embedding stage has nothing to wait
	// on; trigger it directly
	logger.CtxInfo(ctx, "No content images found, dispatching embedding job")
	job := domain.EmbeddingJob{
		LectureID:          run.LectureID,
		CustomerIdentifier: run.CustomerIdentifier,
		Name:               run.Name,
		Email:              run.Email,
	}
	if err := d.pub.Publish(ctx, d.topics.Embedding, job); err != nil {
		return fmt.Errorf("failed to publish embedding job: %w", err)
	}

	return nil
}
