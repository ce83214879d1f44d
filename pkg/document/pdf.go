package document

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/ledongthuc/pdf"
)

// pdfExtractor extracts the text layer page by page. Image-only
// PDFs — where every page's text layer is empty — are rejected with a
// zero-text detection error rather than silently returning an empty
// string.
type pdfExtractor struct{}

func (e *pdfExtractor) Extensions() []string {
	return []string{".pdf"}
}

func (e *pdfExtractor) Extract(ctx context.Context, path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindUnsupportedFormat, "opening PDF", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindUnsupportedFormat, "stat-ing PDF", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindUnsupportedFormat, "parsing PDF", err)
	}

	totalPages := reader.NumPage()
	var parts []string
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", pageNum, text))
		}
	}

	content := strings.Join(parts, "\n\n")
	if strings.TrimSpace(content) == "" {
		return Result{}, apperr.New(apperr.KindPDFNoText, "PDF has no extractable text layer (image-only scan?): "+path)
	}

	return Result{
		Text: content,
		Metadata: map[string]string{
			"type":  "PDF Document",
			"pages": strconv.Itoa(totalPages),
		},
	}, nil
}
