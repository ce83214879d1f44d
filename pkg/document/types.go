// Package document implements the Document Parser:
// format-dispatched text extraction for local files, plus a separate
// URL extractor that yields cleaned Markdown.
package document

// Result is the common output of every extractor: extracted text, a
// best-effort title, and free-form metadata (author, page count,
// site name, …) — the same shape the Source type folds into.
type Result struct {
	Text     string
	Title    string
	Metadata map[string]string
}

// MinTextLen is the rejection floor shared with content.MinSourceTextLen:
// anything shorter is almost certainly an extraction
// failure (blank scan, image-only PDF, paywalled page) rather than a
// genuinely short source.
const MinTextLen = 50
