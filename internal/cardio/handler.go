package cardio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vukovx/fitlog/internal/auth"
	"github.com/vukovx/fitlog/internal/telemetry/metrics"
	"github.com/vukovx/fitlog/internal/telemetry/tracing"
	"github.com/vukovx/fitlog/pkg"
)

type cardioRepo interface {
	Add(ctx context.Context, log Log) (*Log, error)
	List(ctx context.Context, userID int) ([]Log, error)
	Update(ctx context.Context, log Log) (*Log, error)
	Delete(ctx context.Context, userID, id int) error
}

type logRequest struct {
	ID       int             `json:"id"`
	Date     string          `json:"date"`
	Distance decimal.Decimal `json:"distance"`
	Duration int             `json:"duration"`
	Stroke   string          `json:"stroke"`
	Notes    string          `json:"notes"`
}

// Handler serves one cardio activity. Three instances cover
// /runs, /cycles and /swims.
type Handler struct {
	activity Activity
	repo     cardioRepo
	metrics  *metrics.Manager
}

func NewHandler(activity Activity, repo cardioRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		activity: activity,
		repo:     repo,
		metrics:  metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	path := handler.activity.Path()
	router.HandleFunc(path, handler.handleList).Methods("GET", "OPTIONS")
	router.HandleFunc(path, handler.handleAdd).Methods("POST", "OPTIONS")
	router.HandleFunc(path, handler.handleUpdate).Methods("PUT", "OPTIONS")
	router.HandleFunc(path, handler.handleDelete).Methods("DELETE", "OPTIONS")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "cardioHandler.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "no-user-id")
		return
	}

	logs, err := handler.repo.List(ctx, userID)
	if err != nil {
		handler.internalError(w, span, "list", err)
		return
	}
	if logs == nil {
		logs = []Log{}
	}

	handler.writeJSON(w, span, logs)
}

func (handler *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "cardioHandler.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "no-user-id")
		return
	}

	cardioLog, ok := handler.decodeAndValidate(w, r, span, userID)
	if !ok {
		return
	}

	added, err := handler.repo.Add(ctx, *cardioLog)
	if err != nil {
		handler.internalError(w, span, "add", err)
		return
	}

	handler.metrics.CounterCardioLogs.Inc()
	handler.writeJSON(w, span, added)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "cardioHandler.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "no-user-id")
		return
	}

	cardioLog, ok := handler.decodeAndValidate(w, r, span, userID)
	if !ok {
		return
	}
	if cardioLog.ID <= 0 {
		pkg.WriteJSONError(w, "id is required", http.StatusBadRequest)
		span.SetStatus(codes.Error, "missing-id")
		return
	}

	updated, err := handler.repo.Update(ctx, *cardioLog)
	if err != nil {
		if errors.Is(err, ErrLogNotFound) {
			pkg.WriteJSONError(w, "not found", http.StatusNotFound)
			span.SetStatus(codes.Error, "log-not-found")
			return
		}
		handler.internalError(w, span, "update", err)
		return
	}

	handler.writeJSON(w, span, updated)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "cardioHandler.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "no-user-id")
		return
	}

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		pkg.WriteJSONError(w, "id is required", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-id")
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrLogNotFound) {
			pkg.WriteJSONError(w, "not found", http.StatusNotFound)
			span.SetStatus(codes.Error, "log-not-found")
			return
		}
		handler.internalError(w, span, "delete", err)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONResponseOK(w, `{"success":true}`)
}

func (handler *Handler) decodeAndValidate(
	w http.ResponseWriter, r *http.Request, span trace.Span, userID int,
) (*Log, bool) {
	var req logRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-json")
		return nil, false
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		pkg.WriteJSONError(w, "invalid date", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-date")
		return nil, false
	}
	if req.Duration <= 0 {
		pkg.WriteJSONError(w, "duration must be positive", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-duration")
		return nil, false
	}
	if req.Distance.IsNegative() {
		pkg.WriteJSONError(w, "distance must not be negative", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-distance")
		return nil, false
	}

	return &Log{
		ID:       req.ID,
		UserID:   userID,
		Date:     date,
		Distance: req.Distance,
		Duration: req.Duration,
		Stroke:   req.Stroke,
		Notes:    req.Notes,
	}, true
}

func (handler *Handler) writeJSON(w http.ResponseWriter, span trace.Span, payload any) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		handler.internalError(w, span, "marshal response", err)
		return
	}
	span.SetStatus(codes.Ok, "ok")
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, payloadBytes)
}

func (handler *Handler) internalError(w http.ResponseWriter, span trace.Span, action string, err error) {
	log.Errorf("cardio %s handler, %s: %s", handler.activity, action, err)
	span.SetStatus(codes.Error, action)
	span.RecordError(err)
	pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
}
