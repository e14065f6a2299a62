package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
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

type workoutsRepo interface {
	Add(ctx context.Context, entry Entry) (*Entry, error)
	List(ctx context.Context, userID int) ([]Entry, error)
}

type importRequest struct {
	CSVData string `json:"csvData"`
}

type importResult struct {
	Success int      `json:"success"`
	Errors  []string `json:"errors"`
}

type addEntryRequest struct {
	Date     string          `json:"date"`
	Type     string          `json:"type"`
	Duration int             `json:"duration"`
	Distance decimal.Decimal `json:"distance"`
	Notes    string          `json:"notes"`
}

type Handler struct {
	repo    workoutsRepo
	metrics *metrics.Manager
}

func NewHandler(repo workoutsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/workouts", handler.handleList).Methods("GET", "OPTIONS").Name("workouts-list")
	router.HandleFunc("/workouts", handler.handleAdd).Methods("POST", "OPTIONS").Name("workouts-add")
	router.HandleFunc("/import", handler.handleImport).Methods("POST", "OPTIONS").Name("workouts-import")
}

// handleImport parses the posted CSV text and persists every valid row for
// the caller. Parse errors and persistence errors are both reported per
// row, a failed row never stops the batch.
func (handler *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.import")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "no-user-id")
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-json")
		return
	}

	rows, rowErrors, err := Parse(req.CSVData)
	if err != nil {
		if errors.Is(err, ErrMissingColumns) {
			span.SetStatus(codes.Error, "missing-columns")
			handler.writeImportResult(w, http.StatusBadRequest, importResult{
				Success: 0,
				Errors:  []string{err.Error()},
			})
			return
		}
		handler.internalError(w, span, "parse csv", err)
		return
	}

	result := importResult{Errors: rowErrors}
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Invalid date", row.Line))
			continue
		}
		if _, err := handler.repo.Add(ctx, Entry{
			UserID:   userID,
			Date:     date,
			Type:     row.Type,
			Duration: row.Duration,
			Distance: row.Distance,
			Notes:    row.Notes,
		}); err != nil {
			log.Errorf("import workout row %d: %s", row.Line, err)
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Failed to save workout", row.Line))
			continue
		}
		result.Success++
	}

	handler.metrics.CounterImportedWorkouts.Add(float64(result.Success))
	span.SetStatus(codes.Ok, "ok")
	handler.writeImportResult(w, http.StatusOK, result)
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "no-user-id")
		return
	}

	entries, err := handler.repo.List(ctx, userID)
	if err != nil {
		handler.internalError(w, span, "list workouts", err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	entriesJson, err := json.Marshal(entries)
	if err != nil {
		handler.internalError(w, span, "marshal workouts", err)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, entriesJson)
}

func (handler *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "no-user-id")
		return
	}

	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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
	if req.Type == "" {
		pkg.WriteJSONError(w, "type is required", http.StatusBadRequest)
		span.SetStatus(codes.Error, "missing-type")
		return
	}
	if req.Duration <= 0 {
		pkg.WriteJSONError(w, "duration must be positive", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-duration")
		return
	}
	if req.Distance.IsNegative() {
		pkg.WriteJSONError(w, "distance must not be negative", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-distance")
		return
	}

	entry, err := handler.repo.Add(ctx, Entry{
		UserID:   userID,
		Date:     date,
		Type:     req.Type,
		Duration: req.Duration,
		Distance: req.Distance,
		Notes:    req.Notes,
	})
	if err != nil {
		handler.internalError(w, span, "add workout", err)
		return
	}

	entryJson, err := json.Marshal(entry)
	if err != nil {
		handler.internalError(w, span, "marshal workout", err)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, entryJson)
}

func (handler *Handler) writeImportResult(w http.ResponseWriter, statusCode int, result importResult) {
	resultJson, err := json.Marshal(result)
	if err != nil {
		log.Errorf("workouts handler, marshal import result: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resultJson, statusCode)
}

func (handler *Handler) internalError(w http.ResponseWriter, span trace.Span, action string, err error) {
	log.Errorf("workouts handler, %s: %s", action, err)
	span.SetStatus(codes.Error, action)
	span.RecordError(err)
	pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
}
