package document

import (
	"context"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/nguyenthenguyen/docx"
)

// docxExtractor extracts paragraph text in document order from Word
// files, grounded on officeParser.parseWordDocument
// (pkg/rag/native_parsers.go) minus its Excel branch — the
// Document Parser enumerates text/Markdown/Word/PDF only.
type docxExtractor struct{}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag       = regexp.MustCompile(`<[^>]*>`)
)

func (e *docxExtractor) Extensions() []string {
	return []string{".docx"}
}

func (e *docxExtractor) Extract(ctx context.Context, path string) (Result, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindUnsupportedFormat, "opening Word document", err)
	}
	defer doc.Close()

	// GetContent returns the document.xml markup: end each </w:p>
	// paragraph with a blank line, then drop the remaining tags.
	markup := paragraphEnd.ReplaceAllString(doc.Editable().GetContent(), "\n\n")
	content := strings.TrimSpace(html.UnescapeString(xmlTag.ReplaceAllString(markup, "")))
	return Result{
		Text: content,
		Metadata: map[string]string{
			"type":       "Word Document",
			"paragraphs": strconv.Itoa(len(strings.Split(content, "\n\n"))),
		},
	}, nil
}
