package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	// Register decoders for the image formats PDFs commonly embed.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// pngMagic is the PNG file signature.
var pngMagic = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// Document wraps an opened PDF and exposes per-page text, full-page renders,
// and embedded sub-images as PNG bytes. Not safe for concurrent use; the
// caller owns Close on every exit path.
type Document struct {
	doc *fitz.Document
	raw []byte

	// Embedded images are extracted lazily on first SubImages call,
	// grouped by 0-based page index.
	subImages    map[int][][]byte
	subLoaded    bool
	skippedCount int
}

// Open parses raw PDF bytes into a Document.
// Parameters:
//   - data: raw document bytes.
// Returns:
//   - *Document: opened document handle.
//   - error: *OpenError if the bytes are not a readable document.
func Open(data []byte) (*Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &OpenError{Err: err}
	}

	return &Document{
		doc: doc,
		raw: data,
	}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.doc.NumPage()
}

// PageText extracts the plain text of one page.
// Parameters:
//   - page: 0-based page index.
// Returns:
//   - string: extracted text, may be empty for image-only pages.
//   - error: *RenderError if the page cannot be read.
func (d *Document) PageText(page int) (string, error) {
	text, err := d.doc.Text(page)
	if err != nil {
		return "", &RenderError{Page: page, Err: err}
	}
	return text, nil
}

// RenderPage rasterizes one full page and encodes it as PNG.
// Parameters:
//   - page: 0-based page index.
// Returns:
//   - []byte: PNG-encoded page image.
//   - error: *RenderError if rasterization or encoding fails.
func (d *Document) RenderPage(page int) ([]byte, error) {
	img, err := d.doc.Image(page)
	if err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &RenderError{Page: page, Err: fmt.Errorf("png encode: %w", err)}
	}
	return buf.Bytes(), nil
}

// SubImages returns the embedded images of one page as PNG bytes.
// Extraction runs once over the whole document on first call; images in
// formats that cannot be decoded are skipped and counted, not fatal.
// Parameters:
//   - page: 0-based page index.
// Returns:
//   - [][]byte: PNG bytes per embedded image, in extraction order.
//   - error: non-nil if document-level extraction fails.
func (d *Document) SubImages(page int) ([][]byte, error) {
	if !d.subLoaded {
		if err := d.loadSubImages(); err != nil {
			return nil, err
		}
	}
	return d.subImages[page], nil
}

// SkippedImages returns how many embedded images were dropped because their
// format could not be decoded. Zero until sub-image extraction has run.
func (d *Document) SkippedImages() int {
	return d.skippedCount
}

// loadSubImages extracts every embedded image in the document and normalizes
// each to PNG, grouping results by 0-based page index.
func (d *Document) loadSubImages() error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pageImages, err := api.ExtractImagesRaw(bytes.NewReader(d.raw), nil, conf)
	if err != nil {
		return fmt.Errorf("failed to extract embedded images: %w", err)
	}

	d.subImages = make(map[int][][]byte)
	for _, byObj := range pageImages {
		for _, img := range byObj {
			raw, err := io.ReadAll(img)
			if err != nil {
				return fmt.Errorf("failed to read embedded image on page %d: %w", img.PageNr, err)
			}

			normalized, err := toPNG(raw)
			if err != nil {
				d.skippedCount++
				continue
			}

			pageIdx := img.PageNr - 1
			d.subImages[pageIdx] = append(d.subImages[pageIdx], normalized)
		}
	}

	d.subLoaded = true
	return nil
}

// toPNG converts raw image bytes to PNG. Bytes already in PNG format pass
// through unchanged so identical embedded objects keep identical bytes.
func toPNG(raw []byte) ([]byte, error) {
	if bytes.HasPrefix(raw, pngMagic) {
		return raw, nil
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases the underlying document resources.
func (d *Document) Close() error {
	return d.doc.Close()
}
