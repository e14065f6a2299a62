package pkg

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteResponseBytes(t *testing.T) {
	testJson := `{"ok":true}`

	w := httptest.NewRecorder()
	WriteResponseBytes(w, ContentType.JSON, []byte(testJson), http.StatusCreated)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, ContentType.JSON, w.Header().Get("Content-Type"))
	assert.Equal(t, testJson, w.Body.String())
}

func TestWriteResponseBytesOK(t *testing.T) {
	testJson := `{"ok":true}`

	w := httptest.NewRecorder()
	WriteResponseBytesOK(w, ContentType.JSON, []byte(testJson))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType.JSON, w.Header().Get("Content-Type"))
	assert.Equal(t, testJson, w.Body.String())
}

func TestWriteTextResponseOK(t *testing.T) {
	w := httptest.NewRecorder()
	WriteTextResponseOK(w, "all good")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType.Text, w.Header().Get("Content-Type"))
	assert.Equal(t, "all good", w.Body.String())
}

func TestWriteJSONResponseOK(t *testing.T) {
	testJson := `{"token":"abc"}`

	w := httptest.NewRecorder()
	WriteJSONResponseOK(w, testJson)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType.JSON, w.Header().Get("Content-Type"))
	assert.Equal(t, testJson, w.Body.String())
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONError(w, "no can do", http.StatusUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, ContentType.JSON, w.Header().Get("Content-Type"))
	assert.Equal(t, `{"error":"no can do"}`, w.Body.String())
}
