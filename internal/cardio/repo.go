package cardio

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vukovx/fitlog/internal/telemetry/tracing"
)

var ErrLogNotFound = errors.New("cardio log not found")

// Repo stores cardio logs of one activity. The runs, cycles and swims
// tables share the same columns, so a single repo serves all three.
type Repo struct {
	db       *pgxpool.Pool
	activity Activity
	table    string
}

func NewRepo(db *pgxpool.Pool, activity Activity) *Repo {
	return &Repo{
		db:       db,
		activity: activity,
		table:    activity.Table(),
	}
}

func (r *Repo) Add(ctx context.Context, log Log) (_ *Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.cardio.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("cardio.activity", string(r.activity)))

	err = r.db.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (user_id, date, distance, duration, stroke, notes)
		VALUES ($1, $2, $3::numeric, $4, NULLIF($5, ''), $6)
		RETURNING id, created_at`, r.table),
		log.UserID, log.Date, log.Distance.String(), log.Duration, log.Stroke, log.Notes,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &log, nil
}

func (r *Repo) List(ctx context.Context, userID int) (_ []Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.cardio.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("cardio.activity", string(r.activity)))

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT id, user_id, date, distance::text, duration, COALESCE(stroke, ''), COALESCE(notes, ''), created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY date DESC`, r.table),
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		var (
			l           Log
			distanceStr string
		)
		if err = rows.Scan(
			&l.ID, &l.UserID, &l.Date, &distanceStr, &l.Duration, &l.Stroke, &l.Notes, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if l.Distance, err = decimal.NewFromString(distanceStr); err != nil {
			return nil, fmt.Errorf("parse distance: %w", err)
		}
		logs = append(logs, l)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *Repo) Update(ctx context.Context, log Log) (_ *Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.cardio.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("cardio.id", log.ID))

	err = r.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE %s
		SET date = $1, distance = $2::numeric, duration = $3, stroke = NULLIF($4, ''), notes = $5
		WHERE id = $6 AND user_id = $7
		RETURNING created_at`, r.table),
		log.Date, log.Distance.String(), log.Duration, log.Stroke, log.Notes, log.ID, log.UserID,
	).Scan(&log.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrLogNotFound
		}
		return nil, err
	}

	return &log, nil
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.cardio.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("cardio.id", id))

	tag, err := r.db.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.table),
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}
	return nil
}
