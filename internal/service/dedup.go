package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/arlen/lectern/internal/domain"
	"github.com/arlen/lectern/internal/logger"
	"github.com/arlen/lectern/internal/storage"
	"github.com/google/uuid"
)

// ResolvedImage is the outcome of deduplicating one content image.
type ResolvedImage struct {
	ID    string // stored image row ID, new or previously seen in this run
	Hash  string // hex SHA-256 of the PNG bytes
	IsNew bool   // true if this run had not seen the hash before

	// Row is the prepared database row for a new image, to be inserted with
	// the owning slide's transaction. Nil when IsNew is false.
	Row *domain.SlideImage
}

// ImageDeduper uploads unique content images and tracks seen hashes within
// one ingestion run. Repeated occurrences of byte-identical images resolve
// to the same stored object and row, never a second copy.
type ImageDeduper struct {
	storage storage.ObjectStorage
}

// NewImageDeduper creates a new ImageDeduper.
// Parameters:
//   - store: object storage for content-addressed uploads.
// Returns:
//   - *ImageDeduper: configured deduplicator.
func NewImageDeduper(store storage.ObjectStorage) *ImageDeduper {
	return &ImageDeduper{storage: store}
}

// Resolve hashes one image's PNG bytes against the run's seen set. A first
// occurrence is uploaded to a content-addressed key and returned with a
// prepared row; later occurrences return the existing ID with no side effects.
// Parameters:
//   - ctx: request context for cancellation.
//   - run: ingestion run owning the seen-hash map.
//   - imageBytes: normalized PNG bytes of the image.
// Returns:
//   - *ResolvedImage: resolution outcome.
//   - error: non-nil if the upload fails.
func (d *ImageDeduper) Resolve(ctx context.Context, run *IngestRun, imageBytes []byte) (*ResolvedImage, error) {
	sum := sha256.Sum256(imageBytes)
	hash := hex.EncodeToString(sum[:])

	if id, ok := run.SeenImage(hash); ok {
		logger.CtxDebug(ctx, "Image %s already resolved in this run", hash)
		return &ResolvedImage{ID: id, Hash: hash}, nil
	}

	// Content-addressed key: identical bytes land on the same object,
	// so re-uploads are idempotent at the storage layer
	key := fmt.Sprintf("%s/%s.png", run.LectureID, hash)
	if err := d.storage.Upload(ctx, key, bytes.NewReader(imageBytes), int64(len(imageBytes)), "image/png"); err != nil {
		return nil, fmt.Errorf("failed to upload content image %s: %w", hash, err)
	}

	row := &domain.SlideImage{
		ID:          uuid.New().String(),
		LectureID:   run.LectureID,
		ImageType:   domain.SlideImageTypeContent,
		StoragePath: key,
		ImageHash:   hash,
	}
	run.RecordImage(hash, row.ID)

	return &ResolvedImage{ID: row.ID, Hash: hash, IsNew: true, Row: row}, nil
}
