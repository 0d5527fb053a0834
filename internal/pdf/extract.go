package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chatpdfy/chatpdfy/internal/conversation"
)

// File is one uploaded document: its name and raw bytes.
type File struct {
	Name string
	Data []byte
}

// FileError records a single file that could not be extracted. The rest of
// the batch is unaffected.
type FileError struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

func (e FileError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Name, e.Err)
}

// Result is the outcome of one upload batch: a file-summary turn per
// successfully parsed file (upload order) plus the trimmed concatenated
// corpus of all per-file text blocks.
type Result struct {
	Summaries []conversation.Turn
	Corpus    string
	Failures  []FileError
}

// Extractor turns uploaded PDF files into summary turns and a context corpus.
type Extractor struct {
	source PageSource
	logger *slog.Logger
}

func NewExtractor(source PageSource, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{source: source, logger: logger}
}

// ExtractBatch processes files sequentially in upload order. A file that fails
// to parse is reported in Result.Failures and skipped; the batch continues.
// Files are processed one at a time deliberately, to bound memory and keep the
// corpus ordering deterministic.
func (e *Extractor) ExtractBatch(ctx context.Context, files []File) (Result, error) {
	if e.source == nil {
		return Result{}, ErrNoSource
	}

	var res Result
	var corpus strings.Builder
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		doc, err := e.source.Open(f.Data)
		if err != nil {
			e.logger.Error("pdf extraction failed", "file", f.Name, "error", err)
			res.Failures = append(res.Failures, FileError{Name: f.Name, Err: err})
			continue
		}

		var pages strings.Builder
		pageCount := doc.PageCount()
		for page := 1; page <= pageCount; page++ {
			fragments, err := doc.PageText(page)
			if err != nil {
				e.logger.Warn("pdf page unreadable", "file", f.Name, "page", page, "error", err)
				fragments = nil
			}
			pages.WriteString(strings.Join(fragments, " "))
			pages.WriteString("\n")
		}

		fmt.Fprintf(&corpus, "\n--- PDF: %s ---\n%s\n", f.Name, pages.String())

		res.Summaries = append(res.Summaries, conversation.Turn{
			Role: conversation.RoleUser,
			Kind: conversation.KindFileSummary,
			FileMeta: &conversation.FileMeta{
				Name:      f.Name,
				SizeLabel: FormatSize(int64(len(f.Data))),
				PageCount: pageCount,
			},
		})
	}

	res.Corpus = strings.TrimSpace(corpus.String())
	return res, nil
}
