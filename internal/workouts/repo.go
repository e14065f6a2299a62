package workouts

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vukovx/fitlog/internal/telemetry/tracing"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, entry Entry) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.type", entry.Type))

	err = r.db.QueryRow(ctx, `
		INSERT INTO workouts (user_id, date, type, duration, distance, notes)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING id, created_at`,
		entry.UserID, entry.Date, entry.Type, entry.Duration, entry.Distance.String(), entry.Notes,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *Repo) List(ctx context.Context, userID int) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, date, type, duration, distance::text, COALESCE(notes, ''), created_at
		FROM workouts
		WHERE user_id = $1
		ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			distanceStr string
		)
		if err = rows.Scan(
			&e.ID, &e.UserID, &e.Date, &e.Type, &e.Duration, &distanceStr, &e.Notes, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if e.Distance, err = decimal.NewFromString(distanceStr); err != nil {
			return nil, fmt.Errorf("parse distance: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
