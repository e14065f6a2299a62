package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vukovx/fitlog/internal/telemetry/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var _ feedbackRepo = (*repoMock)(nil)

type repoMock struct {
	mutex     sync.Mutex
	Feedbacks map[int]*Feedback
	nextID    int
}

func newRepoMock() *repoMock {
	return &repoMock{
		Feedbacks: map[int]*Feedback{},
		nextID:    1,
	}
}

func (r *repoMock) Add(_ context.Context, feedback Feedback) (*Feedback, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	feedback.ID = r.nextID
	feedback.CreatedAt = time.Now()
	r.nextID++
	r.Feedbacks[feedback.ID] = &feedback

	feedbackCopy := feedback
	return &feedbackCopy, nil
}

func (r *repoMock) List(_ context.Context) ([]Feedback, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var feedbacks []Feedback
	for _, f := range r.Feedbacks {
		feedbacks = append(feedbacks, *f)
	}
	sort.Slice(feedbacks, func(i, j int) bool {
		return feedbacks[i].CreatedAt.After(feedbacks[j].CreatedAt)
	})
	return feedbacks, nil
}

func newTestRouter() (*mux.Router, *repoMock) {
	repo := newRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	router := mux.NewRouter()
	handler.SetupRoutes(router)
	return router, repo
}

func TestHandler_Add(t *testing.T) {
	router, repo := newTestRouter()

	message := gofakeit.Sentence(8)
	email := gofakeit.Email()
	body := fmt.Sprintf(`{"message":%q,"email":%q}`, message, email)

	req := httptest.NewRequest("POST", "/feedback", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var added Feedback
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, message, added.Message)
	assert.Equal(t, email, added.Email)
	assert.Len(t, repo.Feedbacks, 1)

	// email is optional
	req = httptest.NewRequest("POST", "/feedback", strings.NewReader(`{"message":"just a note"}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestHandler_Add_MissingMessage(t *testing.T) {
	router, repo := newTestRouter()

	req := httptest.NewRequest("POST", "/feedback", strings.NewReader(`{"email":"a@b.c"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"message is required"}`, rr.Body.String())
	assert.Empty(t, repo.Feedbacks)
}

func TestHandler_List(t *testing.T) {
	router, repo := newTestRouter()

	for i := 0; i < 3; i++ {
		_, err := repo.Add(context.Background(), Feedback{Message: gofakeit.Sentence(5)})
		require.NoError(t, err)
	}

	req := httptest.NewRequest("GET", "/feedback", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var feedbacks []Feedback
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &feedbacks))
	assert.Len(t, feedbacks, 3)
}

func TestHandler_List_Empty(t *testing.T) {
	router, _ := newTestRouter()

	req := httptest.NewRequest("GET", "/feedback", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}
