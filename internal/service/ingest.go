package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arlen/lectern/internal/analytics"
	"github.com/arlen/lectern/internal/broker"
	"github.com/arlen/lectern/internal/domain"
	"github.com/arlen/lectern/internal/logger"
	"github.com/arlen/lectern/internal/repository"
	"github.com/arlen/lectern/internal/storage"
)

// Outcome classifies how an ingestion run ended, so callers can branch on
// kind instead of inspecting error values.
type Outcome int

const (
	// OutcomeCompleted means the run progressed the lecture to explaining
	// and dispatched its jobs.
	OutcomeCompleted Outcome = iota

	// OutcomeSkipped means the lecture does not exist; nothing was mutated
	// and the triggering message can be acknowledged.
	OutcomeSkipped

	// OutcomeFailed means the run aborted; the lecture is marked failed and
	// the returned error should surface to the caller for redelivery.
	OutcomeFailed
)

// String returns the outcome name for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IngestRun holds the state owned by one ingestion run: the triggering
// message's fields, the seen-image map, and the accumulated analysis jobs.
// Its lifetime is exactly one Ingest call; it is not safe for concurrent use.
type IngestRun struct {
	LectureID          string
	StoragePath        string
	CustomerIdentifier string
	Name               string
	Email              string

	// TotalSlides is set once the document is opened.
	TotalSlides int

	// AnalysisJobs collects one entry per unique content image, in first-seen
	// order. Customer fields are filled at publish time.
	AnalysisJobs []domain.ImageAnalysisJob

	seenImages map[string]string // image hash -> stored image row ID
}

// newIngestRun builds the run context for one triggering message.
func newIngestRun(msg *domain.IngestionMessage) *IngestRun {
	return &IngestRun{
		LectureID:          msg.LectureID,
		StoragePath:        msg.StoragePath,
		CustomerIdentifier: msg.CustomerIdentifier,
		Name:               msg.Name,
		Email:              msg.Email,
		seenImages:         make(map[string]string),
	}
}

// SeenImage returns the stored image ID for a hash this run has resolved.
func (r *IngestRun) SeenImage(hash string) (string, bool) {
	id, ok := r.seenImages[hash]
	return id, ok
}

// RecordImage marks a hash as resolved to a stored image ID.
func (r *IngestRun) RecordImage(hash, id string) {
	r.seenImages[hash] = id
}

// UniqueImageCount returns how many distinct content images the run resolved.
func (r *IngestRun) UniqueImageCount() int {
	return len(r.seenImages)
}

// AddAnalysisJob queues an analysis job for a newly resolved image.
func (r *IngestRun) AddAnalysisJob(job domain.ImageAnalysisJob) {
	r.AnalysisJobs = append(r.AnalysisJobs, job)
}

// IngestService runs the ingestion pipeline: download, decompose, chunk,
// deduplicate, persist per slide, then flip status and dispatch jobs.
type IngestService struct {
	lectures   LectureStore
	slides     SlideStore
	storage    storage.ObjectStorage
	opener     DocumentOpener
	chunker    *Chunker
	deduper    *ImageDeduper
	status     *StatusCoordinator
	dispatcher *JobDispatcher
	analytics  *analytics.Client
	logger     *logger.Logger
}

// IngestConfig holds configuration for the ingest service
type IngestConfig struct {
	MaxChunkTokens int
	Topics         DispatchTopics
}

// NewIngestService creates a new ingest service
func NewIngestService(
	lectures LectureStore,
	slides SlideStore,
	objectStorage storage.ObjectStorage,
	opener DocumentOpener,
	pub broker.Publisher,
	track *analytics.Client,
	log *logger.Logger,
	cfg *IngestConfig,
) *IngestService {
	return &IngestService{
		lectures:   lectures,
		slides:     slides,
		storage:    objectStorage,
		opener:     opener,
		chunker:    NewChunker(cfg.MaxChunkTokens),
		deduper:    NewImageDeduper(objectStorage),
		status:     NewStatusCoordinator(lectures),
		dispatcher: NewJobDispatcher(slides, pub, cfg.Topics),
		analytics:  track,
		logger:     log,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *IngestService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Ingest processes one triggering message end to end.
// Parameters:
//   - ctx: request context for cancellation.
//   - msg: broker message naming the lecture and document location.
// Returns:
//   - Outcome: completed, skipped, or failed.
//   - error: the aborting error when the outcome is failed, nil otherwise.
func (s *IngestService) Ingest(ctx context.Context, msg *domain.IngestionMessage) (Outcome, error) {
	ctx = logger.SetLectureID(ctx, msg.LectureID)
	if msg.CustomerIdentifier != "" {
		ctx = logger.SetCustomerID(ctx, msg.CustomerIdentifier)
	}
	start := time.Now()

	s.log(ctx).WithFields(logger.Fields{
		"storage_path": msg.StoragePath,
	}).Info("Starting ingestion")

	// Verify the lecture exists before touching anything. A missing lecture
	// is a skip: the message is stale or misrouted, not a failure.
	lecture, err := s.lectures.GetByID(ctx, msg.LectureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log(ctx).Warn("Lecture not found. Acknowledging message and stopping.")
			s.analytics.Capture(ctx, msg.CustomerIdentifier, analytics.EventIngestionSkipped, map[string]interface{}{
				"lecture_id": msg.LectureID,
			})
			return OutcomeSkipped, nil
		}
		return s.fail(ctx, msg, fmt.Errorf("failed to verify lecture: %w", err))
	}

	run := newIngestRun(msg)

	if err := s.runPipeline(ctx, lecture, run); err != nil {
		return s.fail(ctx, msg, err)
	}

	durationMs := time.Since(start).Milliseconds()
	logger.With(logger.Fields{
		logger.FieldDurationMs: durationMs,
		"total_slides":         run.TotalSlides,
		"unique_images":        run.UniqueImageCount(),
	}).Info(ctx, "Ingestion completed")

	s.analytics.Capture(ctx, msg.CustomerIdentifier, analytics.EventIngestionCompleted, map[string]interface{}{
		"lecture_id":    msg.LectureID,
		"total_slides":  run.TotalSlides,
		"unique_images": run.UniqueImageCount(),
		"duration_ms":   durationMs,
	})

	return OutcomeCompleted, nil
}

// runPipeline executes the run's stages against a verified lecture.
func (s *IngestService) runPipeline(ctx context.Context, lecture *domain.Lecture, run *IngestRun) error {
	// Start fresh: stale errors from a previous failed run must not linger
	if err := s.status.ClearErrors(ctx, lecture.ID); err != nil {
		return fmt.Errorf("failed to clear error details: %w", err)
	}

	data, err := s.download(ctx, run.StoragePath)
	if err != nil {
		return err
	}
	s.log(ctx).WithField("size", len(data)).Debug("Document downloaded")

	doc, err := s.opener.Open(data)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			s.log(ctx).WithError(cerr).Warn("Failed to close document")
		}
	}()

	run.TotalSlides = doc.PageCount()
	if err := s.status.BeginParsing(ctx, lecture, run.TotalSlides); err != nil {
		return fmt.Errorf("failed to set parsing status: %w", err)
	}

	s.log(ctx).WithField("total_slides", run.TotalSlides).Info("Processing slides")
	for page := 0; page < run.TotalSlides; page++ {
		if err := s.processPage(ctx, doc, run, page); err != nil {
			return fmt.Errorf("failed to process slide %d: %w", page+1, err)
		}
	}

	if skipped := doc.SkippedImages(); skipped > 0 {
		s.log(ctx).WithField("count", skipped).Warn("Skipped embedded images with undecodable formats")
	}

	if err := s.lectures.SetSubImageCount(ctx, lecture.ID, run.UniqueImageCount()); err != nil {
		return fmt.Errorf("failed to record sub-image count: %w", err)
	}

	// The explaining flip must be acknowledged before the first publish, or
	// a completion-counting consumer could see jobs for a lecture whose
	// slides it cannot yet observe
	if err := s.status.MarkExplaining(ctx, lecture.ID); err != nil {
		return fmt.Errorf("failed to set explaining status: %w", err)
	}

	if err := s.dispatcher.Dispatch(ctx, run); err != nil {
		return fmt.Errorf("failed to dispatch jobs: %w", err)
	}

	return nil
}

// processPage ingests one page: text, chunks, full render, content images,
// one committed transaction.
func (s *IngestService) processPage(ctx context.Context, doc Document, run *IngestRun, page int) error {
	slideNumber := page + 1

	rawText, err := doc.PageText(page)
	if err != nil {
		return err
	}

	chunks := s.chunker.Chunk(rawText)
	chunkRows := make([]domain.Chunk, len(chunks))
	for i, chunk := range chunks {
		chunkRows[i] = domain.Chunk{
			ID:          uuid.New().String(),
			LectureID:   run.LectureID,
			SlideNumber: slideNumber,
			ChunkIndex:  i,
			Text:        chunk.Text,
			TokenCount:  chunk.TokenCount,
		}
	}

	pageImage, err := doc.RenderPage(page)
	if err != nil {
		return err
	}
	fullKey := fmt.Sprintf("%s/slide_%d.png", run.LectureID, slideNumber)
	if err := s.storage.Upload(ctx, fullKey, bytes.NewReader(pageImage), int64(len(pageImage)), "image/png"); err != nil {
		return fmt.Errorf("failed to upload full image for slide %d: %w", slideNumber, err)
	}
	fullImage := &domain.SlideImage{
		ID:          uuid.New().String(),
		LectureID:   run.LectureID,
		ImageType:   domain.SlideImageTypeFull,
		StoragePath: fullKey,
	}

	subImages, err := doc.SubImages(page)
	if err != nil {
		return err
	}
	var contentRows []*domain.SlideImage
	for _, imageBytes := range subImages {
		resolved, err := s.deduper.Resolve(ctx, run, imageBytes)
		if err != nil {
			return err
		}
		if !resolved.IsNew {
			continue
		}
		contentRows = append(contentRows, resolved.Row)
		run.AddAnalysisJob(domain.ImageAnalysisJob{
			SlideImageID: resolved.ID,
			LectureID:    run.LectureID,
			ImageHash:    resolved.Hash,
		})
	}

	slideID, err := s.slides.PersistSlide(ctx, &repository.PersistSlideInput{
		LectureID:     run.LectureID,
		SlideNumber:   slideNumber,
		RawText:       rawText,
		Chunks:        chunkRows,
		FullImage:     fullImage,
		ContentImages: contentRows,
	})
	if err != nil {
		return err
	}

	s.log(ctx).WithFields(logger.Fields{
		"slide_number": slideNumber,
		"slide_id":     slideID,
		"chunks":       len(chunkRows),
		"new_images":   len(contentRows),
	}).Debug("Slide persisted")

	return nil
}

// download fetches the document bytes from object storage.
func (s *IngestService) download(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.storage.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download document %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}
	return data, nil
}

// fail records the failure on the lecture and returns the failed outcome
// with the original error so the caller can propagate it.
func (s *IngestService) fail(ctx context.Context, msg *domain.IngestionMessage, cause error) (Outcome, error) {
	s.log(ctx).WithError(cause).Error("Ingestion failed")

	s.status.MarkFailed(ctx, msg.LectureID, cause)

	s.analytics.Capture(ctx, msg.CustomerIdentifier, analytics.EventIngestionFailed, map[string]interface{}{
		"lecture_id": msg.LectureID,
		"error":      cause.Error(),
	})

	return OutcomeFailed, cause
}
