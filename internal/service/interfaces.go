package service

import (
	"context"

	"github.com/arlen/lectern/internal/domain"
	"github.com/arlen/lectern/internal/repository"
)

// LectureStore is the lecture persistence surface the pipeline depends on.
// *repository.LectureRepository satisfies it; tests substitute fakes.
type LectureStore interface {
	GetByID(ctx context.Context, id string) (*domain.Lecture, error)
	ClearErrorDetails(ctx context.Context, id string) error
	SetParsing(ctx context.Context, id string, totalSlides int) error
	SetStatus(ctx context.Context, id string, status domain.LectureStatus) error
	SetFailed(ctx context.Context, id string, details domain.ErrorDetails) error
	SetSubImageCount(ctx context.Context, id string, count int) error
}

// SlideStore is the slide persistence surface the pipeline depends on.
// *repository.SlideRepository satisfies it.
type SlideStore interface {
	PersistSlide(ctx context.Context, input *repository.PersistSlideInput) (string, error)
	ListWithFullImages(ctx context.Context, lectureID string) ([]repository.SlideWithImage, error)
}

// Document is an opened lecture document. Page indexes are 0-based.
type Document interface {
	PageCount() int
	PageText(page int) (string, error)
	RenderPage(page int) ([]byte, error)
	SubImages(page int) ([][]byte, error)
	SkippedImages() int
	Close() error
}

// DocumentOpener parses raw document bytes into a Document.
type DocumentOpener interface {
	Open(data []byte) (Document, error)
}

// OpenerFunc adapts a plain function to the DocumentOpener interface.
type OpenerFunc func(data []byte) (Document, error)

// Open calls f(data).
func (f OpenerFunc) Open(data []byte) (Document, error) {
	return f(data)
}
