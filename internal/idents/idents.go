// Package idents generates and validates the six-word phrases that stand in
// for user accounts. A phrase is the only identity a submitter ever has, so
// validation failures are reported as classified outcomes the web layer can
// map to specific redirects, never as opaque errors.
package idents

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

const (
	WordsPerIdentifier = 6
	Separator          = "-"
)

type OutcomeKind int

const (
	OutcomeValid OutcomeKind = iota
	OutcomeWrongWordCount
	OutcomeUnknownWord
	OutcomeRepeatedWord
)

// Outcome classifies a candidate identifier. Position is the 0-indexed segment
// of the first unknown word and is meaningful only for OutcomeUnknownWord.
type Outcome struct {
	Kind     OutcomeKind
	Position int
}

func (o Outcome) Valid() bool {
	return o.Kind == OutcomeValid
}

// Store answers whether an identifier has already been claimed. Uniqueness of
// claims is enforced by the store itself, not here.
type Store interface {
	IdentifierExists(identifier string) (bool, error)
}

type Service struct {
	wordlist *Wordlist
	store    Store
}

func NewService(wordlist *Wordlist, store Store) *Service {
	return &Service{wordlist: wordlist, store: store}
}

// Generate draws six distinct words uniformly at random and joins them with
// the separator. It does not check the result against claimed identifiers;
// callers retry on a duplicate-key conflict from the store.
func (s *Service) Generate() (string, error) {
	size := big.NewInt(int64(s.wordlist.Len()))
	words := make([]string, 0, WordsPerIdentifier)
	chosen := make(map[int]struct{}, WordsPerIdentifier)

	for len(words) < WordsPerIdentifier {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", errors.Wrap(err, "Failed to read random index")
		}
		i := int(n.Int64())
		if _, found := chosen[i]; found {
			continue
		}
		chosen[i] = struct{}{}
		words = append(words, s.wordlist.Word(i))
	}

	return strings.Join(words, Separator), nil
}

// Validate splits the candidate on the separator and checks it in a fixed
// order: word count first, then membership of every segment in the wordlist
// (first unknown segment reported), then repetition. The order is part of the
// contract; callers rely on deterministic error classes.
func (s *Service) Validate(candidate string) Outcome {
	words := strings.Split(candidate, Separator)
	if len(words) != WordsPerIdentifier {
		return Outcome{Kind: OutcomeWrongWordCount}
	}

	for i, word := range words {
		if !s.wordlist.Contains(word) {
			return Outcome{Kind: OutcomeUnknownWord, Position: i}
		}
	}

	seen := make(map[string]struct{}, WordsPerIdentifier)
	for _, word := range words {
		if _, found := seen[word]; found {
			return Outcome{Kind: OutcomeRepeatedWord}
		}
		seen[word] = struct{}{}
	}

	return Outcome{Kind: OutcomeValid}
}

// IsKnown reports whether the identifier has stored records behind it.
// Pure read, no caching.
func (s *Service) IsKnown(identifier string) (bool, error) {
	return s.store.IdentifierExists(identifier)
}

// Words splits a canonical identifier back into its words, for rendering.
func Words(identifier string) []string {
	return strings.Split(identifier, Separator)
}

// Join builds the canonical string form from individual words.
func Join(words []string) string {
	return strings.Join(words, Separator)
}
