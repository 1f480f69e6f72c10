package web

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anonticket/anonticket/internal/config"
	"github.com/anonticket/anonticket/internal/idents"
)

type fakeStore struct{}

func (fakeStore) IdentifierExists(string) (bool, error) {
	return false, nil
}

func testIdentService(t *testing.T) *idents.Service {
	t.Helper()
	var b strings.Builder
	for i := 0; i < 64; i++ {
		fmt.Fprintf(&b, "word%02d\n", i)
	}
	wordlist, err := idents.ParseWordlist(b.String())
	if err != nil {
		t.Fatal("Failed to parse wordlist:", err)
	}
	return idents.NewService(wordlist, fakeStore{})
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &server{
		config: &config.Config{},
		logger: zap.NewNop(),
		idents: testIdentService(t),
	}

	r := gin.New()
	r.GET("/user/:identifier", s.validateIdentifier, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(identifierParam))
	})
	return r
}

func TestValidIdentifierReachesHandler(t *testing.T) {
	r := testRouter(t)

	identifier := "word00-word01-word02-word03-word04-word05"
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/user/"+identifier, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Body.String() != identifier {
		t.Fatalf("Handler saw identifier %q", w.Body.String())
	}
}

func TestMalformedIdentifiersRedirectToLoginError(t *testing.T) {
	r := testRouter(t)

	for _, candidate := range []string{
		"word00-word01-word02-word03-word04",               // five words
		"word00-word01-word02-word03-word04-word05-word06", // seven words
		"word00-word01-word02-word03-word04-nonsense",      // unknown word
		"word00-word00-word01-word02-word03-word04",        // repeated word
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/user/"+candidate, nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusFound {
			t.Fatalf("Expected redirect for %q, got %d", candidate, w.Code)
		}
		location := w.Header().Get("Location")
		if !strings.HasPrefix(location, "/user/login-error") {
			t.Fatalf("Expected login-error redirect for %q, got %q", candidate, location)
		}
	}
}

func TestOutcomeMessages(t *testing.T) {
	service := testIdentService(t)

	for _, tc := range []struct {
		candidate string
		message   string
	}{
		{"word00-word01", "An identifier is exactly 6 words."},
		{"word00-word01-word02-word03-word04-nonsense", "Word 6 is not in the wordlist."},
		{"nonsense-word01-word02-word03-word04-word05", "Word 1 is not in the wordlist."},
		{"word00-word00-word01-word02-word03-word04", "An identifier never repeats a word."},
		{"word00-word01-word02-word03-word04-word05", ""},
	} {
		got := outcomeMessage(service.Validate(tc.candidate))
		if got != tc.message {
			t.Errorf("outcomeMessage(%q) = %q, want %q", tc.candidate, got, tc.message)
		}
	}
}
