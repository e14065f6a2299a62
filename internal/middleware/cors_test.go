package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorsMiddleware(t *testing.T) {
	nextCalled := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})
	handler := Cors()(nextHandler)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/gym", nil)
	handler.ServeHTTP(rr, req)

	assert.True(t, nextCalled)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "X-FITLOG-TOKEN")
}

func TestCorsMiddleware_preflight(t *testing.T) {
	nextCalled := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})
	handler := Cors()(nextHandler)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/gym", nil)
	handler.ServeHTTP(rr, req)

	// preflight never reaches the next handler
	assert.False(t, nextCalled)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
}
