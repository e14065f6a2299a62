package feedback

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/vukovx/fitlog/internal/telemetry/metrics"
	"github.com/vukovx/fitlog/internal/telemetry/tracing"
	"github.com/vukovx/fitlog/pkg"
)

type feedbackRepo interface {
	Add(ctx context.Context, feedback Feedback) (*Feedback, error)
	List(ctx context.Context) ([]Feedback, error)
}

type Handler struct {
	repo    feedbackRepo
	metrics *metrics.Manager
}

func NewHandler(repo feedbackRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	// POST is public, listing requires a login (auth middleware)
	router.HandleFunc("/feedback", handler.handleAdd).Methods("POST", "OPTIONS").Name("feedback-add")
	router.HandleFunc("/feedback", handler.handleList).Methods("GET", "OPTIONS").Name("feedback-list")
}

func (handler *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "feedbackHandler.add")
	defer span.End()

	var feedback Feedback
	if err := json.NewDecoder(r.Body).Decode(&feedback); err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-json")
		return
	}

	if feedback.Message == "" {
		pkg.WriteJSONError(w, "message is required", http.StatusBadRequest)
		span.SetStatus(codes.Error, "missing-message")
		return
	}

	added, err := handler.repo.Add(ctx, feedback)
	if err != nil {
		log.Errorf("feedback handler, add: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "add-feedback")
		span.RecordError(err)
		return
	}

	handler.metrics.CounterFeedbackMessages.Inc()

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("feedback handler, marshal: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "feedbackHandler.list")
	defer span.End()

	feedbacks, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("feedback handler, list: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "list-feedback")
		span.RecordError(err)
		return
	}
	if feedbacks == nil {
		feedbacks = []Feedback{}
	}

	feedbacksJson, err := json.Marshal(feedbacks)
	if err != nil {
		log.Errorf("feedback handler, marshal: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, feedbacksJson)
}
