// Package ingredients turns spreadsheet cells of free-text ingredient lists
// into individual ingredient tokens.
package ingredients

import (
	"strings"
	"sync"
)

// Delimiter is the canonical separator every punctuation variant is rewritten to.
const Delimiter = "、"

// DefaultDelimiters are the marks that separate ingredients in the source data
// besides the canonical delimiter itself.
var DefaultDelimiters = []string{"(", ")", "[", "]", "。", ":", "："}

// Normalizer splits raw ingredient lists into tokens. It is safe for
// concurrent use. Delimiters must not change after the first call.
type Normalizer struct {
	Delimiters []string

	once     sync.Once
	replacer *strings.Replacer
}

// NewNormalizer returns a Normalizer using DefaultDelimiters.
func NewNormalizer() *Normalizer {
	return &Normalizer{Delimiters: DefaultDelimiters}
}

func (n *Normalizer) rewriter() *strings.Replacer {
	n.once.Do(func() {
		pairs := make([]string, 0, len(n.Delimiters)*2)
		for _, d := range n.Delimiters {
			if d == "" {
				continue
			}
			pairs = append(pairs, d, Delimiter)
		}
		n.replacer = strings.NewReplacer(pairs...)
	})
	return n.replacer
}

// Canonicalize rewrites every delimiter variant in s to the canonical delimiter
// and collapses runs of it.
func (n *Normalizer) Canonicalize(s string) string {
	s = n.rewriter().Replace(s)
	s = strings.ReplaceAll(s, Delimiter+Delimiter+Delimiter, Delimiter)
	s = strings.ReplaceAll(s, Delimiter+Delimiter, Delimiter)
	return s
}

// Normalize returns the flattened, trimmed, non-empty tokens of rows in order.
// Blank rows contribute nothing. Tokens are not deduplicated.
func (n *Normalizer) Normalize(rows []string) []string {
	var tokens []string
	for _, row := range rows {
		if strings.TrimSpace(row) == "" {
			continue
		}
		for _, piece := range strings.Split(n.Canonicalize(row), Delimiter) {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			tokens = append(tokens, piece)
		}
	}
	return tokens
}
