package projects

import (
	"testing"

	"github.com/alexsergivan/transliterator"
	"github.com/google/go-cmp/cmp"
)

const smallRegistryYaml = `
- id: 747
- id: 426
  slug: tor-browser
- id: 102
`

func TestRegistryParsing(t *testing.T) {
	registry, err := parseRegistry([]byte(smallRegistryYaml))
	if err != nil {
		t.Fatal("Failed to parse registry:", err)
	}

	expected := Registry{
		{ID: 747},
		{ID: 426, Slug: "tor-browser"},
		{ID: 102},
	}
	if diff := cmp.Diff(expected, registry); diff != "" {
		t.Fatalf("Registry mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryParsingRejectsGarbage(t *testing.T) {
	_, err := parseRegistry([]byte("registry: {not: [a, list"))
	if err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestMakeSlug(t *testing.T) {
	fetcher := &Fetcher{translit: transliterator.NewTransliterator(nil)}

	for _, tc := range []struct {
		name     string
		expected string
	}{
		{"Tor Browser", "tor-browser"},
		{"core/tor", "core-tor"},
		{"  Weird -- Name  ", "weird-name"},
		{"Сервис поддержки", "servis-podderzhki"},
		{"snowflake", "snowflake"},
	} {
		if slug := fetcher.MakeSlug(tc.name); slug != tc.expected {
			t.Fatalf("MakeSlug(%q) = %q, expected %q", tc.name, slug, tc.expected)
		}
	}
}
