package document

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/registry"
)

// Extractor pulls plain text out of one document format.
type Extractor interface {
	// Extensions lists the lowercased, dot-prefixed file extensions this
	// extractor handles (e.g. ".pdf").
	Extensions() []string
	Extract(ctx context.Context, path string) (Result, error)
}

// Registry dispatches by a file's lowercased extension to the
// registered Extractor — generalizing the
// NativeParserRegistry (pkg/rag/native_parsers.go) CanParse/Parse
// linear-scan shape into the in-house generic registry, keyed directly
// by extension instead of re-scanning a CanParse predicate per file.
type Registry struct {
	base *registry.BaseRegistry[Extractor]
}

// NewRegistry builds a Registry with the built-in text, Markdown, Word,
// and PDF extractors registered.
func NewRegistry() *Registry {
	r := &Registry{base: registry.NewBaseRegistry[Extractor]()}
	for _, e := range []Extractor{
		&textExtractor{},
		&docxExtractor{},
		&pdfExtractor{},
	} {
		for _, ext := range e.Extensions() {
			// Safe to ignore the error: extensions are hard-coded and
			// distinct across the built-in extractors.
			_ = r.base.Register(ext, e)
		}
	}
	return r
}

// Extract dispatches path to the extractor registered for its
// extension and enforces the shared minimum-text-length rule.
func (r *Registry) Extract(ctx context.Context, path string) (Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := r.base.Get(ext)
	if !ok {
		return Result{}, apperr.New(apperr.KindUnsupportedFormat, "no extractor registered for extension "+ext)
	}

	result, err := extractor.Extract(ctx, path)
	if err != nil {
		return Result{}, err
	}
	if len(strings.TrimSpace(result.Text)) < MinTextLen {
		return Result{}, apperr.New(apperr.KindTextTooShort, "extracted text shorter than minimum of "+strconv.Itoa(MinTextLen)+" characters")
	}
	if result.Title == "" {
		result.Title = titleFromFilename(path)
	}
	return result, nil
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
