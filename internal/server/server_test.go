package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/medstack/pharmacy-doc-service/internal/config"
	"github.com/stretchr/testify/assert"
)

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	return NewServer(&config.Config{Port: 8080, LogFormat: "json", LogLevel: "info"})
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPIDocsRedirect(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api-docs", nil)
	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/api-docs/index.html", rec.Header().Get("Location"))
}
