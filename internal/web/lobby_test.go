package web

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/anonticket/anonticket/internal/database"
)

// fakeClaimer loses the unique-index race the first `conflicts` times.
type fakeClaimer struct {
	conflicts int
	claimed   []string
}

func (f *fakeClaimer) ClaimIdentifier(identifier string) error {
	f.claimed = append(f.claimed, identifier)
	if len(f.claimed) <= f.conflicts {
		return &database.DuplicateKey{}
	}
	return nil
}

type brokenClaimer struct{}

func (brokenClaimer) ClaimIdentifier(string) error {
	return errors.New("connection refused")
}

func TestGenerateClaimedIdentifierRegeneratesOnConflict(t *testing.T) {
	service := testIdentService(t)
	store := &fakeClaimer{conflicts: 2}

	identifier, err := generateClaimedIdentifier(service, store)
	if err != nil {
		t.Fatal("Failed to generate identifier:", err)
	}

	if len(store.claimed) != 3 {
		t.Fatalf("Expected 3 claim attempts, got %d", len(store.claimed))
	}
	if identifier != store.claimed[2] {
		t.Fatalf("Returned %q, last claimed %q", identifier, store.claimed[2])
	}
	for _, claimed := range store.claimed {
		if !service.Validate(claimed).Valid() {
			t.Errorf("Claimed a malformed identifier %q", claimed)
		}
	}
	if store.claimed[0] == store.claimed[1] && store.claimed[1] == store.claimed[2] {
		t.Error("Conflicting phrase was not regenerated")
	}
}

func TestGenerateClaimedIdentifierPropagatesStoreErrors(t *testing.T) {
	service := testIdentService(t)

	_, err := generateClaimedIdentifier(service, brokenClaimer{})
	if err == nil {
		t.Fatal("Expected a store error")
	}
	if database.IsDuplicateKey(err) {
		t.Fatal("Store error misclassified as a duplicate key")
	}
}
