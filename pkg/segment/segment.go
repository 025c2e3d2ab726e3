// Package segment splits product titles into words for frequency counting.
package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Segmenter splits a title into words.
type Segmenter interface {
	Split(title string) []string
}

// wordRun matches a contiguous run of CJK unified ideographs or Latin letters.
// Digits, punctuation and whitespace act as separators.
var wordRun = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]+|[a-zA-Z]+`)

// Regex splits titles into contiguous CJK or Latin runs.
type Regex struct{}

// Split implements Segmenter.
func (Regex) Split(title string) []string {
	return wordRun.FindAllString(title, -1)
}

// Kagome runs morphological analysis over the title and keeps the CJK or Latin
// runs of each surface form, so "黑色手机壳" can become "黑色", "手机", "壳"
// where the dictionary knows the words.
type Kagome struct {
	t *tokenizer.Tokenizer
}

// NewKagome creates a Kagome segmenter backed by the IPA dictionary.
func NewKagome() (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Kagome{t: t}, nil
}

// Split implements Segmenter.
func (k *Kagome) Split(title string) []string {
	var words []string
	for _, token := range k.t.Tokenize(title) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}
		words = append(words, wordRun.FindAllString(token.Surface, -1)...)
	}
	return words
}

// Names accepted by New.
const (
	NameRegex  = "regex"
	NameKagome = "kagome"
)

// New returns the segmenter registered under name.
func New(name string) (Segmenter, error) {
	switch name {
	case "", NameRegex:
		return Regex{}, nil
	case NameKagome:
		return NewKagome()
	default:
		return nil, fmt.Errorf("unknown segmenter %q (want %s or %s)", name, NameRegex, NameKagome)
	}
}
