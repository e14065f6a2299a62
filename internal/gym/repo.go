package gym

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vukovx/fitlog/internal/telemetry/tracing"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrNoActiveSession     = errors.New("no active session")
	ErrActiveSessionExists = errors.New("active session already exists")
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrInvalidSet          = errors.New("set weight and reps must be positive")
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// StartSession opens a new session for the user. The check for an already
// open session and the insert run in one transaction, the partial unique
// index on (user_id) WHERE end_time IS NULL backs the same invariant at
// the database level.
func (r *Repo) StartSession(ctx context.Context, userID int, date time.Time) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.startSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	var openSessionID int
	err = tx.QueryRow(ctx,
		`SELECT id FROM gym_sessions WHERE user_id = $1 AND end_time IS NULL FOR UPDATE`,
		userID,
	).Scan(&openSessionID)
	if err == nil {
		err = ErrActiveSessionExists
		return nil, err
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	session := &Session{UserID: userID, Date: date}
	err = tx.QueryRow(ctx, `
		INSERT INTO gym_sessions (user_id, date, start_time)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		RETURNING id, start_time, created_at`,
		userID, date,
	).Scan(&session.ID, &session.StartTime, &session.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			err = ErrActiveSessionExists
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("session.id", session.ID))
	return session, nil
}

// ActiveSession returns the user's open session, or ErrNoActiveSession.
func (r *Repo) ActiveSession(ctx context.Context, userID int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.activeSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var session Session
	err = r.db.QueryRow(ctx, `
		SELECT id, user_id, date, start_time, end_time, COALESCE(notes, ''), created_at
		FROM gym_sessions
		WHERE user_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1`,
		userID,
	).Scan(
		&session.ID, &session.UserID, &session.Date,
		&session.StartTime, &session.EndTime, &session.Notes, &session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNoActiveSession
		}
		return nil, err
	}

	return &session, nil
}

// SessionDetails returns the user's session with its exercises
// (ordered by exercise_order) and their sets (ordered by set_number).
func (r *Repo) SessionDetails(ctx context.Context, userID, sessionID int) (_ *SessionDetails, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.sessionDetails")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	var details SessionDetails
	err = r.db.QueryRow(ctx, `
		SELECT id, user_id, date, start_time, end_time, COALESCE(notes, ''), created_at
		FROM gym_sessions
		WHERE id = $1 AND user_id = $2`,
		sessionID, userID,
	).Scan(
		&details.ID, &details.UserID, &details.Date,
		&details.StartTime, &details.EndTime, &details.Notes, &details.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrSessionNotFound
		}
		return nil, err
	}

	details.Exercises, err = r.sessionExercises(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &details, nil
}

func (r *Repo) sessionExercises(ctx context.Context, sessionID int) ([]Exercise, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, exercise_name, COALESCE(exercise_order, 0)
		FROM gym_exercises
		WHERE session_id = $1
		ORDER BY exercise_order`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}

	exercises, err := rows2exercises(rows)
	if err != nil {
		return nil, err
	}

	setRows, err := r.db.Query(ctx, `
		SELECT s.id, s.exercise_id, s.set_number, s.weight::text, s.reps, s.completed_at
		FROM gym_sets s
		JOIN gym_exercises e ON s.exercise_id = e.id
		WHERE e.session_id = $1
		ORDER BY s.set_number`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}

	sets, err := rows2sets(setRows)
	if err != nil {
		return nil, err
	}

	setsPerExercise := map[int][]Set{}
	for _, set := range sets {
		setsPerExercise[set.ExerciseID] = append(setsPerExercise[set.ExerciseID], set)
	}
	for i := range exercises {
		exercises[i].Sets = setsPerExercise[exercises[i].ID]
	}

	return exercises, nil
}

// AddExercise appends an exercise to the session. The order index is
// caller-supplied and not checked for uniqueness or contiguity.
func (r *Repo) AddExercise(ctx context.Context, sessionID int, name string, order int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.addExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	exercise := &Exercise{SessionID: sessionID, Name: name, Order: order}
	err = r.db.QueryRow(ctx, `
		INSERT INTO gym_exercises (session_id, exercise_name, exercise_order)
		VALUES ($1, $2, $3)
		RETURNING id`,
		sessionID, name, order,
	).Scan(&exercise.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			err = ErrSessionNotFound
		}
		return nil, err
	}

	return exercise, nil
}

// AddSet appends a set to the exercise. Weight and reps must be positive.
// The insert is guarded by the session owner, an exercise in another
// user's session behaves like a missing exercise.
func (r *Repo) AddSet(ctx context.Context, userID, exerciseID, setNumber int, weight decimal.Decimal, reps int) (_ *Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.addSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	if !weight.IsPositive() || reps <= 0 {
		err = ErrInvalidSet
		return nil, err
	}

	set := &Set{ExerciseID: exerciseID, SetNumber: setNumber, Weight: weight, Reps: reps}
	err = r.db.QueryRow(ctx, `
		INSERT INTO gym_sets (exercise_id, set_number, weight, reps)
		SELECT e.id, $2, $3::numeric, $4
		FROM gym_exercises e
		JOIN gym_sessions s ON e.session_id = s.id
		WHERE e.id = $1 AND s.user_id = $5
		RETURNING id, completed_at`,
		exerciseID, setNumber, weight.String(), reps, userID,
	).Scan(&set.ID, &set.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrExerciseNotFound
		}
		return nil, err
	}

	return set, nil
}

// EndSession closes the session, storing the end time and notes. Calling it
// on an already closed session overwrites end_time and notes, the documented
// behavior of the close operation.
func (r *Repo) EndSession(ctx context.Context, userID, sessionID int, notes string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.endSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	var session Session
	err = r.db.QueryRow(ctx, `
		UPDATE gym_sessions
		SET end_time = CURRENT_TIMESTAMP, notes = $1
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, date, start_time, end_time, COALESCE(notes, ''), created_at`,
		notes, sessionID, userID,
	).Scan(
		&session.ID, &session.UserID, &session.Date,
		&session.StartTime, &session.EndTime, &session.Notes, &session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrSessionNotFound
		}
		return nil, err
	}

	return &session, nil
}

// DeleteSession removes the session and, through cascade, its exercises and
// sets. Deleting a session not owned by the user is a silent no-op.
func (r *Repo) DeleteSession(ctx context.Context, userID, sessionID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.deleteSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	_, err = r.db.Exec(ctx,
		`DELETE FROM gym_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID,
	)
	return err
}

// ListSessions returns the user's closed sessions, most recent date first,
// with exercise and set counts.
func (r *Repo) ListSessions(ctx context.Context, userID int) (_ []SessionOverview, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.listSessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT
			s.id, s.user_id, s.date, s.start_time, s.end_time, COALESCE(s.notes, ''), s.created_at,
			COUNT(DISTINCT e.id) AS exercise_count,
			COUNT(se.id) AS total_sets
		FROM gym_sessions s
		LEFT JOIN gym_exercises e ON s.id = e.session_id
		LEFT JOIN gym_sets se ON e.id = se.exercise_id
		WHERE s.user_id = $1 AND s.end_time IS NOT NULL
		GROUP BY s.id
		ORDER BY s.date DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionOverview
	for rows.Next() {
		var s SessionOverview
		if err = rows.Scan(
			&s.ID, &s.UserID, &s.Date, &s.StartTime, &s.EndTime, &s.Notes, &s.CreatedAt,
			&s.ExerciseCount, &s.TotalSets,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// LastWorkoutForExercise returns the sets of the most recent closed session
// containing the named exercise, or nil when the user never did it.
func (r *Repo) LastWorkoutForExercise(ctx context.Context, userID int, exerciseName string) (_ *LastWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.lastWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.name", exerciseName))

	var exerciseID int
	lastWorkout := &LastWorkout{ExerciseName: exerciseName}
	err = r.db.QueryRow(ctx, `
		SELECT e.id, s.date
		FROM gym_exercises e
		JOIN gym_sessions s ON e.session_id = s.id
		WHERE s.user_id = $1 AND e.exercise_name = $2 AND s.end_time IS NOT NULL
		ORDER BY s.date DESC
		LIMIT 1`,
		userID, exerciseName,
	).Scan(&exerciseID, &lastWorkout.Date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, exercise_id, set_number, weight::text, reps, completed_at
		FROM gym_sets
		WHERE exercise_id = $1
		ORDER BY set_number`,
		exerciseID,
	)
	if err != nil {
		return nil, err
	}

	lastWorkout.Sets, err = rows2sets(rows)
	if err != nil {
		return nil, err
	}

	return lastWorkout, nil
}

// SaveUserExercise stores a custom exercise name for the user.
// Saving an already saved name is a no-op.
func (r *Repo) SaveUserExercise(ctx context.Context, userID int, name string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.saveUserExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(ctx, `
		INSERT INTO user_exercises (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO NOTHING`,
		userID, name,
	)
	return err
}

func (r *Repo) UserExercises(ctx context.Context, userID int) (_ []UserExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.userExercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, name FROM user_exercises WHERE user_id = $1 ORDER BY name`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []UserExercise
	for rows.Next() {
		var ue UserExercise
		if err = rows.Scan(&ue.ID, &ue.Name); err != nil {
			return nil, err
		}
		exercises = append(exercises, ue)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return exercises, nil
}

// ClosedSessions returns all of the user's closed sessions with full
// exercise and set details, date ascending. The aggregation engine
// computes dashboard figures from this.
func (r *Repo) ClosedSessions(ctx context.Context, userID int) (_ []SessionDetails, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.gym.closedSessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, date, start_time, end_time, COALESCE(notes, ''), created_at
		FROM gym_sessions
		WHERE user_id = $1 AND end_time IS NOT NULL
		ORDER BY date ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	var sessions []SessionDetails
	sessionIndex := map[int]int{}
	for rows.Next() {
		var s SessionDetails
		if err = rows.Scan(
			&s.ID, &s.UserID, &s.Date, &s.StartTime, &s.EndTime, &s.Notes, &s.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, err
		}
		sessionIndex[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(sessions) == 0 {
		return sessions, nil
	}

	exerciseRows, err := r.db.Query(ctx, `
		SELECT e.id, e.session_id, e.exercise_name, COALESCE(e.exercise_order, 0)
		FROM gym_exercises e
		JOIN gym_sessions s ON e.session_id = s.id
		WHERE s.user_id = $1 AND s.end_time IS NOT NULL
		ORDER BY e.session_id, e.exercise_order`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	exercises, err := rows2exercises(exerciseRows)
	if err != nil {
		return nil, err
	}

	setRows, err := r.db.Query(ctx, `
		SELECT gs.id, gs.exercise_id, gs.set_number, gs.weight::text, gs.reps, gs.completed_at
		FROM gym_sets gs
		JOIN gym_exercises e ON gs.exercise_id = e.id
		JOIN gym_sessions s ON e.session_id = s.id
		WHERE s.user_id = $1 AND s.end_time IS NOT NULL
		ORDER BY gs.exercise_id, gs.set_number`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	sets, err := rows2sets(setRows)
	if err != nil {
		return nil, err
	}

	setsPerExercise := map[int][]Set{}
	for _, set := range sets {
		setsPerExercise[set.ExerciseID] = append(setsPerExercise[set.ExerciseID], set)
	}
	for _, exercise := range exercises {
		exercise.Sets = setsPerExercise[exercise.ID]
		if i, ok := sessionIndex[exercise.SessionID]; ok {
			sessions[i].Exercises = append(sessions[i].Exercises, exercise)
		}
	}

	return sessions, nil
}

func rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	defer rows.Close()

	var exercises []Exercise
	for rows.Next() {
		var e Exercise
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Name, &e.Order); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		exercises = append(exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exercises, nil
}

func rows2sets(rows pgx.Rows) ([]Set, error) {
	defer rows.Close()

	var sets []Set
	for rows.Next() {
		var (
			s         Set
			weightStr string
		)
		if err := rows.Scan(&s.ID, &s.ExerciseID, &s.SetNumber, &weightStr, &s.Reps, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		weight, err := decimal.NewFromString(weightStr)
		if err != nil {
			return nil, fmt.Errorf("parse set weight: %w", err)
		}
		s.Weight = weight
		sets = append(sets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sets, nil
}
