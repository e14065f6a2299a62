package feedback

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

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

func (r *Repo) Add(ctx context.Context, feedback Feedback) (_ *Feedback, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.feedback.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(ctx, `
		INSERT INTO feedback (message, email)
		VALUES ($1, NULLIF($2, ''))
		RETURNING id, created_at`,
		feedback.Message, feedback.Email,
	).Scan(&feedback.ID, &feedback.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &feedback, nil
}

func (r *Repo) List(ctx context.Context) (_ []Feedback, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.feedback.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, message, COALESCE(email, ''), created_at
		FROM feedback
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feedbacks []Feedback
	for rows.Next() {
		var f Feedback
		if err = rows.Scan(&f.ID, &f.Message, &f.Email, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		feedbacks = append(feedbacks, f)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return feedbacks, nil
}
