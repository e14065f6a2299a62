package cardio

import (
	"context"
	"encoding/json"
	"fmt"
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

func newTestRouter(activity Activity) (*mux.Router, *repoMock) {
	repo := NewRepoMock()
	handler := NewHandler(activity, repo, metrics.NewTestManager())
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

func TestHandler_AddAndList(t *testing.T) {
	router, _ := newTestRouter(ActivityRun)

	rr := doRequest(router, 1, "POST", "/runs", `{"date":"2024-05-20","distance":5.2,"duration":28,"notes":"easy pace"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var run Log
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, 1, run.ID)
	assert.Equal(t, "5.2", run.Distance.String())
	assert.Equal(t, 28, run.Duration)

	// another entry, earlier date
	rr = doRequest(router, 1, "POST", "/runs", `{"date":"2024-05-10","distance":10,"duration":55}`)
	require.Equal(t, http.StatusOK, rr.Code)

	// other user's run stays invisible
	rr = doRequest(router, 2, "POST", "/runs", `{"date":"2024-05-15","distance":3,"duration":20}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, 1, "GET", "/runs", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var runs []Log
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	// date descending
	assert.True(t, runs[0].Date.After(runs[1].Date))
}

func TestHandler_Validation(t *testing.T) {
	router, _ := newTestRouter(ActivityRun)

	for name, body := range map[string]string{
		"missing date":      `{"distance":5,"duration":30}`,
		"bad date":          `{"date":"soon","distance":5,"duration":30}`,
		"zero duration":     `{"date":"2024-05-20","distance":5,"duration":0}`,
		"negative duration": `{"date":"2024-05-20","distance":5,"duration":-10}`,
		"negative distance": `{"date":"2024-05-20","distance":-5,"duration":30}`,
		"not json":          `nope`,
	} {
		rr := doRequest(router, 1, "POST", "/runs", body)
		assert.Equalf(t, http.StatusBadRequest, rr.Code, "case: %s", name)
	}

	// distance defaults to zero when absent
	rr := doRequest(router, 1, "POST", "/runs", `{"date":"2024-05-20","duration":30}`)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	router, repo := newTestRouter(ActivitySwim)

	rr := doRequest(router, 1, "POST", "/swims", `{"date":"2024-05-20","distance":1.5,"duration":40,"stroke":"freestyle"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var swim Log
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &swim))
	assert.Equal(t, "freestyle", swim.Stroke)

	rr = doRequest(router, 1, "PUT", "/swims",
		fmt.Sprintf(`{"id":%d,"date":"2024-05-20","distance":2,"duration":50,"stroke":"backstroke"}`, swim.ID))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &swim))
	assert.Equal(t, "backstroke", swim.Stroke)
	assert.Equal(t, 50, swim.Duration)

	// someone else cannot update it
	rr = doRequest(router, 2, "PUT", "/swims",
		fmt.Sprintf(`{"id":%d,"date":"2024-05-20","distance":2,"duration":50}`, swim.ID))
	require.Equal(t, http.StatusNotFound, rr.Code)

	// update without id
	rr = doRequest(router, 1, "PUT", "/swims", `{"date":"2024-05-20","distance":2,"duration":50}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// delete needs an id
	rr = doRequest(router, 1, "DELETE", "/swims", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(router, 2, "DELETE", fmt.Sprintf("/swims?id=%d", swim.ID), "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(router, 1, "DELETE", fmt.Sprintf("/swims?id=%d", swim.ID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, repo.Logs)
}

func TestHandler_Unauthorized(t *testing.T) {
	router, _ := newTestRouter(ActivityCycle)
	rr := doRequest(router, 0, "GET", "/cycles", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestActivity_Tables(t *testing.T) {
	assert.Equal(t, "runs", ActivityRun.Table())
	assert.Equal(t, "cycles", ActivityCycle.Table())
	assert.Equal(t, "swims", ActivitySwim.Table())
	assert.Equal(t, "/runs", ActivityRun.Path())
}
