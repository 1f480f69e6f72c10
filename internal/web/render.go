package web

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/anonticket/anonticket/internal/idents"
)

const siteName = "Anonymous Ticket Lobby"

func (s *server) render(c *gin.Context, code int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["SiteName"] = siteName
	c.HTML(code, name, data)
}

func (s *server) renderError(c *gin.Context, code int, message string) {
	s.render(c, code, "/error.tmpl", gin.H{
		"Code":    code,
		"Message": message,
	})
}

// outcomeMessage maps an identifier validation outcome to the text shown on
// the login error page. Position is 0-indexed internally, shown 1-indexed.
func outcomeMessage(outcome idents.Outcome) string {
	switch outcome.Kind {
	case idents.OutcomeWrongWordCount:
		return fmt.Sprintf("An identifier is exactly %d words.", idents.WordsPerIdentifier)
	case idents.OutcomeUnknownWord:
		return fmt.Sprintf("Word %d is not in the wordlist.", outcome.Position+1)
	case idents.OutcomeRepeatedWord:
		return "An identifier never repeats a word."
	}
	return ""
}
