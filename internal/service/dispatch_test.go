package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/arlen/lectern/internal/domain"
	"github.com/arlen/lectern/internal/logger"
	"github.com/arlen/lectern/internal/repository"
)

func newDispatchFixture() (*fakeSlideStore, *fakePublisher, *JobDispatcher) {
	rec := &testRecorder{}
	logger.SetDefaultLogger(logger.New(&logger.Config{Level: "error", Format: "text", Output: io.Discard, ServiceName: "test"}))
	slides := &fakeSlideStore{rec: rec}
	pub := &fakePublisher{rec: rec}
	d := NewJobDispatcher(slides, pub, DispatchTopics{
		Explanation:   "explanation-jobs",
		ImageAnalysis: "image-analysis-jobs",
		Embedding:     "embedding-jobs",
	})
	return slides, pub, d
}

// TestDispatchSkipsSlidesWithoutFullImage verifies that a slide missing its
// full image is skipped with the remaining slides still dispatched
func TestDispatchSkipsSlidesWithoutFullImage(t *testing.T) {
	slides, pub, d := newDispatchFixture()
	slides.persisted = []*repository.PersistSlideInput{
		{LectureID: "lec1", SlideNumber: 1, FullImage: &domain.SlideImage{StoragePath: "lec1/slide_1.png"}},
		{LectureID: "lec1", SlideNumber: 2}, // no full image row
		{LectureID: "lec1", SlideNumber: 3, FullImage: &domain.SlideImage{StoragePath: "lec1/slide_3.png"}},
	}

	run := newIngestRun(testMessage("lec1"))
	run.TotalSlides = 3

	if err := d.Dispatch(context.Background(), run); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	explanations := pub.byTopic("explanation-jobs")
	if len(explanations) != 2 {
		t.Fatalf("Explanation jobs: got %d, want 2", len(explanations))
	}
	for _, payload := range explanations {
		job := payload.(domain.ExplanationJob)
		if job.SlideNumber == 2 {
			t.Errorf("Slide without image was dispatched: %+v", job)
		}
		if job.SlideImagePath == "" {
			t.Errorf("Dispatched job has empty image path: %+v", job)
		}
	}

	// Wire shape of the payload the consumer will decode
	raw, err := json.Marshal(explanations[0])
	if err != nil {
		t.Fatalf("Marshal explanation job: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal explanation job: %v", err)
	}
	for _, key := range []string{"lecture_id", "slide_id", "slide_number", "total_slides", "slide_image_path", "customer_identifier"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Explanation payload missing key %q: %s", key, raw)
		}
	}
}

// TestDispatchPublishesAnalysisJobsWithCustomerFields verifies that queued
// analysis jobs go out with the run's customer identity and suppress the
// embedding fallback
func TestDispatchPublishesAnalysisJobsWithCustomerFields(t *testing.T) {
	slides, pub, d := newDispatchFixture()
	slides.persisted = []*repository.PersistSlideInput{
		{LectureID: "lec1", SlideNumber: 1, FullImage: &domain.SlideImage{StoragePath: "lec1/slide_1.png"}},
	}

	run := newIngestRun(testMessage("lec1"))
	run.TotalSlides = 1
	run.AddAnalysisJob(domain.ImageAnalysisJob{SlideImageID: "img-1", LectureID: "lec1", ImageHash: "aaa"})
	run.AddAnalysisJob(domain.ImageAnalysisJob{SlideImageID: "img-2", LectureID: "lec1", ImageHash: "bbb"})

	if err := d.Dispatch(context.Background(), run); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	analyses := pub.byTopic("image-analysis-jobs")
	if len(analyses) != 2 {
		t.Fatalf("Analysis jobs: got %d, want 2", len(analyses))
	}
	for i, payload := range analyses {
		job := payload.(domain.ImageAnalysisJob)
		if job.CustomerIdentifier != "cust-1" || job.Name != "Ada" || job.Email != "ada@example.com" {
			t.Errorf("Analysis job %d missing customer fields: %+v", i, job)
		}
	}

	if got := len(pub.byTopic("embedding-jobs")); got != 0 {
		t.Errorf("Embedding jobs: got %d, want 0", got)
	}
}

// TestDispatchEmbeddingFallbackWhenNoImages verifies the single embedding job
// when a run resolved no content images
func TestDispatchEmbeddingFallbackWhenNoImages(t *testing.T) {
	slides, pub, d := newDispatchFixture()
	slides.persisted = []*repository.PersistSlideInput{
		{LectureID: "lec1", SlideNumber: 1, FullImage: &domain.SlideImage{StoragePath: "lec1/slide_1.png"}},
	}

	run := newIngestRun(testMessage("lec1"))
	run.TotalSlides = 1

	if err := d.Dispatch(context.Background(), run); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	embeddings := pub.byTopic("embedding-jobs")
	if len(embeddings) != 1 {
		t.Fatalf("Embedding jobs: got %d, want 1", len(embeddings))
	}
	job := embeddings[0].(domain.EmbeddingJob)
	if job.LectureID != "lec1" || job.CustomerIdentifier != "cust-1" {
		t.Errorf("Embedding job fields: %+v", job)
	}
}
