package idents

import (
	"strings"
	"testing"
)

const smallWordlist = `
duo
atlas
hypnotism
curry
creatable
rubble
autopilot
stunt
unfasten
dirtiness
wipe
blissful
anchor
basket
cactus
dolphin
ember
falcon
garlic
hammock
iguana
jigsaw
kettle
lantern
magnet
nutmeg
orchid
pebble
quiver
raven
saddle
tundra
umbrella
velvet
walnut
xylophone
yonder
zephyr
bramble
cinder
drizzle
evergreen
fjord
glacier
harvest
inkwell
juniper
kindle
lagoon
meadow
nectar
oasis
paprika
quartz
riverbed
sequoia
thicket
underbrush
vineyard
willow
yarrow
zeppelin
bonfire
cascade
`

func mustParseWordlist(t *testing.T) *Wordlist {
	t.Helper()
	wordlist, err := ParseWordlist(smallWordlist)
	if err != nil {
		t.Fatal("Failed to parse wordlist:", err)
	}
	return wordlist
}

func TestParseWordlistRejectsDuplicates(t *testing.T) {
	_, err := ParseWordlist(smallWordlist + "\nduo\n")
	if err == nil {
		t.Fatal("Expected duplicate word error")
	}
}

func TestParseWordlistRejectsSmallLists(t *testing.T) {
	_, err := ParseWordlist("alpha\nbeta\ngamma\n")
	if err == nil {
		t.Fatal("Expected too-small wordlist error")
	}
	_, err = ParseWordlist("")
	if err == nil {
		t.Fatal("Expected empty wordlist error")
	}
}

func TestGeneratedIdentifiersAreValid(t *testing.T) {
	service := NewService(mustParseWordlist(t), nil)

	for i := 0; i < 1000; i++ {
		identifier, err := service.Generate()
		if err != nil {
			t.Fatal("Failed to generate identifier:", err)
		}

		words := strings.Split(identifier, Separator)
		if len(words) != WordsPerIdentifier {
			t.Fatalf("Expected %d words, got %d in %q", WordsPerIdentifier, len(words), identifier)
		}

		seen := make(map[string]struct{})
		for _, word := range words {
			if !service.wordlist.Contains(word) {
				t.Fatalf("Generated word %q is not in the wordlist", word)
			}
			if _, found := seen[word]; found {
				t.Fatalf("Generated identifier %q repeats word %q", identifier, word)
			}
			seen[word] = struct{}{}
		}

		if outcome := service.Validate(identifier); !outcome.Valid() {
			t.Fatalf("Generated identifier %q failed validation: %+v", identifier, outcome)
		}
	}
}

func TestValidateClassifiesCandidates(t *testing.T) {
	service := NewService(mustParseWordlist(t), nil)

	for _, tc := range []struct {
		candidate string
		expected  Outcome
	}{
		{"duo-atlas-hypnotism-curry-creatable-rubble", Outcome{Kind: OutcomeValid}},
		{"a-b-c-d-e", Outcome{Kind: OutcomeWrongWordCount}},
		{"duo-atlas-hypnotism-curry-creatable-rubble-brunch", Outcome{Kind: OutcomeWrongWordCount}},
		{"", Outcome{Kind: OutcomeWrongWordCount}},
		{"duo-atlas-hypnotism-curry-creatable-moxie", Outcome{Kind: OutcomeUnknownWord, Position: 5}},
		{"moxie-atlas-hypnotism-curry-creatable-rubble", Outcome{Kind: OutcomeUnknownWord, Position: 0}},
		{"duo-atlas-hypnotism-curry-creatable-creatable", Outcome{Kind: OutcomeRepeatedWord}},
	} {
		if outcome := service.Validate(tc.candidate); outcome != tc.expected {
			t.Fatalf("Validate(%q) = %+v, expected %+v", tc.candidate, outcome, tc.expected)
		}
	}
}

// The unknown-word check runs before the repetition check: a candidate that is
// both unknown and repeated reports the unknown word.
func TestValidateChecksUnknownWordsBeforeRepeats(t *testing.T) {
	service := NewService(mustParseWordlist(t), nil)

	outcome := service.Validate("duo-moxie-moxie-curry-creatable-rubble")
	if outcome.Kind != OutcomeUnknownWord || outcome.Position != 1 {
		t.Fatalf("Expected unknown word at position 1, got %+v", outcome)
	}
}

type fakeStore struct {
	known map[string]bool
}

func (s *fakeStore) IdentifierExists(identifier string) (bool, error) {
	return s.known[identifier], nil
}

func TestIsKnownDelegatesToStore(t *testing.T) {
	store := &fakeStore{known: map[string]bool{
		"duo-atlas-hypnotism-curry-creatable-rubble": true,
	}}
	service := NewService(mustParseWordlist(t), store)

	known, err := service.IsKnown("duo-atlas-hypnotism-curry-creatable-rubble")
	if err != nil {
		t.Fatal("Unexpected error:", err)
	}
	if !known {
		t.Fatal("Expected identifier to be known")
	}

	known, err = service.IsKnown("autopilot-stunt-unfasten-dirtiness-wipe-blissful")
	if err != nil {
		t.Fatal("Unexpected error:", err)
	}
	if known {
		t.Fatal("Expected identifier to be unknown")
	}
}
