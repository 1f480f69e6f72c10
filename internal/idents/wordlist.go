package idents

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// minWordlistSize keeps duplicate-free sampling cheap and the identifier space
// large enough that collisions stay negligible.
const minWordlistSize = 64

// Wordlist is the fixed vocabulary identifiers are built from. It is loaded
// once at startup and never mutated, so concurrent reads need no locking.
type Wordlist struct {
	words []string
	index map[string]int
}

func LoadWordlist(path string) (*Wordlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read wordlist")
	}
	return ParseWordlist(string(data))
}

func ParseWordlist(data string) (*Wordlist, error) {
	lines := strings.Split(data, "\n")
	words := make([]string, 0, len(lines))
	index := make(map[string]int, len(lines))

	for _, line := range lines {
		word := strings.TrimSpace(line)
		if word == "" {
			continue
		}
		if _, found := index[word]; found {
			return nil, errors.Errorf("Duplicate word in wordlist: %q", word)
		}
		index[word] = len(words)
		words = append(words, word)
	}

	if len(words) < minWordlistSize {
		return nil, errors.Errorf("Wordlist is too small: %d words, need at least %d", len(words), minWordlistSize)
	}

	return &Wordlist{words: words, index: index}, nil
}

func (w *Wordlist) Len() int {
	return len(w.words)
}

func (w *Wordlist) Contains(word string) bool {
	_, found := w.index[word]
	return found
}

func (w *Wordlist) Word(i int) string {
	return w.words[i]
}
