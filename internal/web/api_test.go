package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anonticket/anonticket/internal/config"
)

func TestApiTokenGate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	conf := &config.Config{}
	conf.Moderation.Tokens = []string{"secret"}

	s := &server{config: conf, logger: zap.NewNop()}
	svc := apiService{webService{server: s, config: conf, log: s.logger}}

	r := gin.New()
	r.GET("/api/ping", svc.auth, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, tc := range []struct {
		token string
		code  int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusUnauthorized},
		{"secret", http.StatusOK},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		if tc.token != "" {
			req.Header.Set("Token", tc.token)
		}
		r.ServeHTTP(w, req)

		if w.Code != tc.code {
			t.Errorf("Token %q: expected %d, got %d", tc.token, tc.code, w.Code)
		}
	}
}
