package domain

// IngestionMessage is the payload delivered by the broker to trigger one
// ingestion run. Customer fields ride along so downstream consumers can
// attribute their work without another lookup.
type IngestionMessage struct {
	LectureID          string `json:"lecture_id"`
	StoragePath        string `json:"storage_path"`
	CustomerIdentifier string `json:"customer_identifier"`
	Name               string `json:"name,omitempty"`
	Email              string `json:"email,omitempty"`
}

// ExplanationJob requests explanation generation for one slide.
// Published once per slide after all slides have been persisted.
type ExplanationJob struct {
	LectureID          string `json:"lecture_id"`
	SlideID            string `json:"slide_id"`
	SlideNumber        int    `json:"slide_number"`
	TotalSlides        int    `json:"total_slides"`
	SlideImagePath     string `json:"slide_image_path"`
	CustomerIdentifier string `json:"customer_identifier"`
	Name               string `json:"name,omitempty"`
	Email              string `json:"email,omitempty"`
}

// ImageAnalysisJob requests analysis of one unique content image.
// Published once per unique image hash within an ingestion run.
type ImageAnalysisJob struct {
	SlideImageID       string `json:"slide_image_id"`
	LectureID          string `json:"lecture_id"`
	ImageHash          string `json:"image_hash"`
	CustomerIdentifier string `json:"customer_identifier"`
	Name               string `json:"name,omitempty"`
	Email              string `json:"email,omitempty"`
}

// EmbeddingJob requests corpus embedding for a lecture. Published exactly once
// per run, and only when the run produced no content images to analyze.
type EmbeddingJob struct {
	LectureID          string `json:"lecture_id"`
	CustomerIdentifier string `json:"customer_identifier"`
	Name               string `json:"name,omitempty"`
	Email              string `json:"email,omitempty"`
}
