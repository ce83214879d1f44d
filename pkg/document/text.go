package document

import (
	"context"
	"os"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
)

// textExtractor reads plain text and Markdown files as UTF-8: no transformation, Markdown is returned verbatim since it is
// already the system's canonical text representation.
type textExtractor struct{}

func (e *textExtractor) Extensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

func (e *textExtractor) Extract(ctx context.Context, path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindUnsupportedFormat, "reading text file", err)
	}
	return Result{
		Text:     string(raw),
		Metadata: map[string]string{"type": "text"},
	}, nil
}
