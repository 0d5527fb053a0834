package pdf

import "errors"

// ErrNoSource signals that no page-text capability is configured. The whole
// batch is rejected in that case: no turns, no corpus.
var ErrNoSource = errors.New("pdf page source not available")

// PageSource opens raw PDF bytes into a readable document. It is the boundary
// to the underlying PDF library; the extractor only ever talks to this.
type PageSource interface {
	Open(data []byte) (Document, error)
}

// Document exposes per-page text of one parsed PDF. Pages are 1-based.
type Document interface {
	PageCount() int
	// PageText returns the text fragments of a page in content order. The
	// caller joins fragments with single spaces.
	PageText(page int) ([]string, error)
}
