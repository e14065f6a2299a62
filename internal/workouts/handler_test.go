package workouts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vukovx/fitlog/internal/auth"
	"github.com/vukovx/fitlog/internal/telemetry/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRouter() (*mux.Router, *repoMock) {
	repo := NewRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	router := mux.NewRouter()
	handler.SetupRoutes(router)
	return router, repo
}

func doRequest(router *mux.Router, userID int, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if userID > 0 {
		req = req.WithContext(auth.ContextWithUserID(context.Background(), userID))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandler_Import(t *testing.T) {
	router, repo := newTestRouter()

	importReq := map[string]string{
		"csvData": "date,type,duration,distance\n2024-05-20,Run,28,5.2\n2024-05-21,run,abc,3",
	}
	reqJson, err := json.Marshal(importReq)
	require.NoError(t, err)

	rr := doRequest(router, 1, "POST", "/import", string(reqJson))
	require.Equal(t, http.StatusOK, rr.Code)

	var result importResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, []string{"Row 3: Invalid duration"}, result.Errors)

	require.Len(t, repo.Entries, 1)
	entry := repo.Entries[1]
	assert.Equal(t, 1, entry.UserID)
	assert.Equal(t, "run", entry.Type)
	assert.Equal(t, 28, entry.Duration)
}

func TestHandler_Import_MissingHeader(t *testing.T) {
	router, repo := newTestRouter()

	rr := doRequest(router, 1, "POST", "/import", `{"csvData":"date,type\n2024-05-20,run"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var result importResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, []string{"CSV must have columns: date, type, duration"}, result.Errors)
	// nothing persisted on structural failure
	assert.Empty(t, repo.Entries)
}

func TestHandler_Import_PersistErrorIsPerRow(t *testing.T) {
	router, repo := newTestRouter()
	repo.FailOnType = "swim"

	rr := doRequest(router, 1, "POST", "/import",
		`{"csvData":"date,type,duration\n2024-05-20,run,30\n2024-05-21,swim,40\n2024-05-22,cycle,50"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var result importResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, []string{"Row 3: Failed to save workout"}, result.Errors)
}

func TestHandler_Import_InvalidDateRow(t *testing.T) {
	router, _ := newTestRouter()

	rr := doRequest(router, 1, "POST", "/import",
		`{"csvData":"date,type,duration\n2024-13-99,run,30"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var result importResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, []string{"Row 2: Invalid date"}, result.Errors)
}

func TestHandler_AddAndList(t *testing.T) {
	router, _ := newTestRouter()

	rr := doRequest(router, 1, "POST", "/workouts", `{"date":"2024-05-20","type":"run","duration":30,"distance":5}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var entry Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entry))
	assert.Equal(t, 1, entry.ID)

	rr = doRequest(router, 1, "POST", "/workouts", `{"date":"2024-05-22","type":"cycle","duration":60}`)
	require.Equal(t, http.StatusOK, rr.Code)

	// another user's entries are invisible
	rr = doRequest(router, 2, "GET", "/workouts", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))

	rr = doRequest(router, 1, "GET", "/workouts", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "cycle", entries[0].Type)
}

func TestHandler_Add_Validation(t *testing.T) {
	router, _ := newTestRouter()

	for name, body := range map[string]string{
		"missing date":  `{"type":"run","duration":30}`,
		"missing type":  `{"date":"2024-05-20","duration":30}`,
		"zero duration": `{"date":"2024-05-20","type":"run","duration":0}`,
		"bad distance":  `{"date":"2024-05-20","type":"run","duration":30,"distance":-1}`,
	} {
		rr := doRequest(router, 1, "POST", "/workouts", body)
		assert.Equalf(t, http.StatusBadRequest, rr.Code, "case: %s", name)
	}
}

func TestHandler_Unauthorized(t *testing.T) {
	router, _ := newTestRouter()
	rr := doRequest(router, 0, "POST", "/import", `{"csvData":""}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
