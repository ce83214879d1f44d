package prompt

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenCounter wraps a cached tiktoken encoding: falls back to
// cl100k_base when a model-specific encoding isn't registered, and
// keeps a process-wide encoding cache so concurrent materialization
// workers don't each pay tiktoken's initialization cost.
type tokenCounter struct {
	encoding *tiktoken.Tiktoken
}

var (
	encodingCache = map[string]*tiktoken.Tiktoken{}
	encodingMu    sync.Mutex
)

func newTokenCounter(model string) *tokenCounter {
	encodingMu.Lock()
	defer encodingMu.Unlock()

	if cached, ok := encodingCache[model]; ok {
		return &tokenCounter{encoding: cached}
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return &tokenCounter{}
		}
	}
	encodingCache[model] = encoding
	return &tokenCounter{encoding: encoding}
}

// count returns the token length of text, falling back to a
// character/4 estimate if no encoding could be loaded.
func (tc *tokenCounter) count(text string) int {
	if tc.encoding == nil {
		return len(text) / 4
	}
	return len(tc.encoding.Encode(text, nil, nil))
}
