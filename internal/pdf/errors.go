package pdf

import "fmt"

// OpenError indicates the supplied bytes could not be opened as a document.
type OpenError struct {
	Err error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open document: %v", e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// RenderError indicates a page could not be read or rendered.
// Page is the 0-based page index.
type RenderError struct {
	Page int
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render page %d: %v", e.Page, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
