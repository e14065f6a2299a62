package gym

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vukovx/fitlog/internal/auth"
	"github.com/vukovx/fitlog/internal/telemetry/metrics"
	"github.com/vukovx/fitlog/internal/telemetry/tracing"
	"github.com/vukovx/fitlog/pkg"
)

type gymRepo interface {
	StartSession(ctx context.Context, userID int, date time.Time) (*Session, error)
	ActiveSession(ctx context.Context, userID int) (*Session, error)
	SessionDetails(ctx context.Context, userID, sessionID int) (*SessionDetails, error)
	AddExercise(ctx context.Context, sessionID int, name string, order int) (*Exercise, error)
	AddSet(ctx context.Context, userID, exerciseID, setNumber int, weight decimal.Decimal, reps int) (*Set, error)
	EndSession(ctx context.Context, userID, sessionID int, notes string) (*Session, error)
	DeleteSession(ctx context.Context, userID, sessionID int) error
	ListSessions(ctx context.Context, userID int) ([]SessionOverview, error)
	LastWorkoutForExercise(ctx context.Context, userID int, exerciseName string) (*LastWorkout, error)
	SaveUserExercise(ctx context.Context, userID int, name string) error
	UserExercises(ctx context.Context, userID int) ([]UserExercise, error)
}

// Action is the discriminator of the multiplexed /gym endpoint. Each
// mutating action has its own typed request shape below, the envelope
// only carries the discriminator.
type Action string

const (
	ActionStartSession     Action = "startSession"
	ActionEndSession       Action = "endSession"
	ActionAddExercise      Action = "addExercise"
	ActionAddSet           Action = "addSet"
	ActionSaveUserExercise Action = "saveUserExercise"
)

type startSessionRequest struct {
	Date string `json:"date"`
}

type endSessionRequest struct {
	SessionID int    `json:"sessionId"`
	Notes     string `json:"notes"`
}

type addExerciseRequest struct {
	SessionID    int    `json:"sessionId"`
	ExerciseName string `json:"exerciseName"`
	Order        int    `json:"order"`
}

type addSetRequest struct {
	ExerciseID int             `json:"exerciseId"`
	SetNumber  int             `json:"setNumber"`
	Weight     decimal.Decimal `json:"weight"`
	Reps       int             `json:"reps"`
}

type saveUserExerciseRequest struct {
	Name string `json:"exerciseName"`
}

type Handler struct {
	repo     gymRepo
	analyzer *Analyzer
	metrics  *metrics.Manager
}

func NewHandler(repo gymRepo, analyzer *Analyzer, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:     repo,
		analyzer: analyzer,
		metrics:  metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/gym", handler.handleGet).Methods("GET", "OPTIONS").Name("gym-get")
	router.HandleFunc("/gym", handler.handleAction).Methods("POST", "OPTIONS").Name("gym-action")
	router.HandleFunc("/gym", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("gym-delete")
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "gymHandler.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "no-user-id")
		return
	}

	action := r.URL.Query().Get("action")
	span.SetAttributes(attribute.String("gym.action", action))

	switch action {
	case "":
		sessions, err := handler.repo.ListSessions(ctx, userID)
		if err != nil {
			handler.internalError(w, span, "list sessions", err)
			return
		}
		if sessions == nil {
			sessions = []SessionOverview{}
		}
		handler.writeJSON(w, span, sessions)
	case "active":
		session, err := handler.repo.ActiveSession(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrNoActiveSession) {
				span.SetStatus(codes.Ok, "no-active-session")
				pkg.WriteJSONResponseOK(w, "null")
				return
			}
			handler.internalError(w, span, "get active session", err)
			return
		}
		details, err := handler.repo.SessionDetails(ctx, userID, session.ID)
		if err != nil {
			handler.internalError(w, span, "get active session details", err)
			return
		}
		handler.writeJSON(w, span, details)
	case "details":
		sessionID, err := strconv.Atoi(r.URL.Query().Get("sessionId"))
		if err != nil {
			pkg.WriteJSONError(w, "invalid session id", http.StatusBadRequest)
			span.SetStatus(codes.Error, "invalid-session-id")
			return
		}
		details, err := handler.repo.SessionDetails(ctx, userID, sessionID)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				pkg.WriteJSONError(w, "session not found", http.StatusNotFound)
				span.SetStatus(codes.Error, "session-not-found")
				return
			}
			handler.internalError(w, span, "get session details", err)
			return
		}
		handler.writeJSON(w, span, details)
	case "lastWorkout":
		exerciseName := r.URL.Query().Get("exerciseName")
		if exerciseName == "" {
			pkg.WriteJSONError(w, "exercise name is required", http.StatusBadRequest)
			span.SetStatus(codes.Error, "missing-exercise-name")
			return
		}
		lastWorkout, err := handler.repo.LastWorkoutForExercise(ctx, userID, exerciseName)
		if err != nil {
			handler.internalError(w, span, "get last workout", err)
			return
		}
		if lastWorkout == nil {
			span.SetStatus(codes.Ok, "no-last-workout")
			pkg.WriteJSONResponseOK(w, "null")
			return
		}
		handler.writeJSON(w, span, lastWorkout)
	case "userExercises":
		exercises, err := handler.repo.UserExercises(ctx, userID)
		if err != nil {
			handler.internalError(w, span, "get user exercises", err)
			return
		}
		if exercises == nil {
			exercises = []UserExercise{}
		}
		handler.writeJSON(w, span, exercises)
	case "dashboardStats":
		dashboard, err := handler.analyzer.Dashboard(ctx, userID)
		if err != nil {
			handler.internalError(w, span, "get dashboard stats", err)
			return
		}
		handler.writeJSON(w, span, dashboard)
	default:
		pkg.WriteJSONError(w, "invalid action", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-action")
	}
}

// handleAction dispatches the mutating gym operations. The request body is
// read once, the envelope gives the action, then the per-action typed
// request is decoded from the same bytes.
func (handler *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "gymHandler.action")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "no-user-id")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		span.SetStatus(codes.Error, "read-body")
		return
	}

	var envelope struct {
		Action Action `json:"action"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-json")
		return
	}

	span.SetAttributes(attribute.String("gym.action", string(envelope.Action)))

	switch envelope.Action {
	case ActionStartSession:
		handler.startSession(ctx, w, span, body, userID)
	case ActionEndSession:
		handler.endSession(ctx, w, span, body, userID)
	case ActionAddExercise:
		handler.addExercise(ctx, w, span, body, userID)
	case ActionAddSet:
		handler.addSet(ctx, w, span, body, userID)
	case ActionSaveUserExercise:
		handler.saveUserExercise(ctx, w, span, body, userID)
	default:
		pkg.WriteJSONError(w, "invalid action", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-action")
	}
}

func (handler *Handler) startSession(
	ctx context.Context, w http.ResponseWriter, span trace.Span, body []byte, userID int,
) {
	var req startSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-json")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		pkg.WriteJSONError(w, "invalid date", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-date")
		return
	}

	session, err := handler.repo.StartSession(ctx, userID, date)
	if err != nil {
		if errors.Is(err, ErrActiveSessionExists) {
			pkg.WriteJSONError(w, "active session already exists", http.StatusConflict)
			span.SetStatus(codes.Error, "active-session-exists")
			return
		}
		handler.internalError(w, span, "start session", err)
		return
	}

	handler.metrics.CounterSessionsStarted.Inc()
	handler.writeJSON(w, span, session)
}

func (handler *Handler) endSession(
	ctx context.Context, w http.ResponseWriter, span trace.Span, body []byte, userID int,
) {
	var req endSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-json")
		return
	}

	session, err := handler.repo.EndSession(ctx, userID, req.SessionID, req.Notes)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteJSONError(w, "session not found", http.StatusNotFound)
			span.SetStatus(codes.Error, "session-not-found")
			return
		}
		handler.internalError(w, span, "end session", err)
		return
	}

	handler.metrics.CounterSessionsFinished.Inc()
	handler.writeJSON(w, span, session)
}

func (handler *Handler) addExercise(
	ctx context.Context, w http.ResponseWriter, span trace.Span, body []byte, userID int,
) {
	var req addExerciseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-json")
		return
	}

	if req.ExerciseName == "" {
		pkg.WriteJSONError(w, "exercise name is required", http.StatusBadRequest)
		span.SetStatus(codes.Error, "missing-exercise-name")
		return
	}

	// session ownership check, exercises can only go into own sessions
	if _, err := handler.repo.SessionDetails(ctx, userID, req.SessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteJSONError(w, "session not found", http.StatusNotFound)
			span.SetStatus(codes.Error, "session-not-found")
			return
		}
		handler.internalError(w, span, "check session", err)
		return
	}

	exercise, err := handler.repo.AddExercise(ctx, req.SessionID, req.ExerciseName, req.Order)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteJSONError(w, "session not found", http.StatusNotFound)
			span.SetStatus(codes.Error, "session-not-found")
			return
		}
		handler.internalError(w, span, "add exercise", err)
		return
	}

	handler.writeJSON(w, span, exercise)
}

func (handler *Handler) addSet(
	ctx context.Context, w http.ResponseWriter, span trace.Span, body []byte, userID int,
) {
	var req addSetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-json")
		return
	}

	set, err := handler.repo.AddSet(ctx, userID, req.ExerciseID, req.SetNumber, req.Weight, req.Reps)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSet):
			pkg.WriteJSONError(w, "weight and reps must be positive", http.StatusBadRequest)
			span.SetStatus(codes.Error, "invalid-set")
		case errors.Is(err, ErrExerciseNotFound):
			pkg.WriteJSONError(w, "exercise not found", http.StatusNotFound)
			span.SetStatus(codes.Error, "exercise-not-found")
		default:
			handler.internalError(w, span, "add set", err)
		}
		return
	}

	handler.metrics.CounterSetsAdded.Inc()
	handler.writeJSON(w, span, set)
}

func (handler *Handler) saveUserExercise(
	ctx context.Context, w http.ResponseWriter, span trace.Span, body []byte, userID int,
) {
	var req saveUserExerciseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-json")
		return
	}

	if req.Name == "" {
		pkg.WriteJSONError(w, "exercise name is required", http.StatusBadRequest)
		span.SetStatus(codes.Error, "missing-exercise-name")
		return
	}

	if err := handler.repo.SaveUserExercise(ctx, userID, req.Name); err != nil {
		handler.internalError(w, span, "save user exercise", err)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONResponseOK(w, `{"success":true}`)
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
	log.Errorf("gym handler, %s: %s", action, err)
	span.SetStatus(codes.Error, action)
	span.RecordError(err)
	pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "gymHandler.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "no-user-id")
		return
	}

	sessionID, err := strconv.Atoi(r.URL.Query().Get("sessionId"))
	if err != nil {
		pkg.WriteJSONError(w, "invalid session id", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-session-id")
		return
	}

	// not-owned and absent ids are a silent no-op
	if err := handler.repo.DeleteSession(ctx, userID, sessionID); err != nil {
		handler.internalError(w, span, "delete session", err)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONResponseOK(w, `{"success":true}`)
}
