package gym

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vukovx/fitlog/internal/telemetry/tracing"
)

type DashboardStats struct {
	TotalSessions     int             `json:"totalSessions"`
	SessionsThisWeek  int             `json:"sessionsThisWeek"`
	SessionsThisMonth int             `json:"sessionsThisMonth"`
	TotalVolume       decimal.Decimal `json:"totalVolume"`
	VolumeThisWeek    decimal.Decimal `json:"volumeThisWeek"`
	TotalSets         int             `json:"totalSets"`
	UniqueExercises   int             `json:"uniqueExercises"`
	HeaviestWeight    decimal.Decimal `json:"heaviestWeight"`
}

type ExerciseFrequency struct {
	Name         string          `json:"name"`
	SessionCount int             `json:"sessionCount"`
	TotalSets    int             `json:"totalSets"`
	TotalVolume  decimal.Decimal `json:"totalVolume"`
}

type SessionVolume struct {
	SessionID     int             `json:"sessionId"`
	Date          time.Time       `json:"date"`
	SessionVolume decimal.Decimal `json:"sessionVolume"`
	ExerciseCount int             `json:"exerciseCount"`
	SetCount      int             `json:"setCount"`
}

type Dashboard struct {
	Stats             DashboardStats      `json:"stats"`
	ExerciseFrequency []ExerciseFrequency `json:"exerciseFrequency"`
	VolumeOverTime    []SessionVolume     `json:"volumeOverTime"`
	RecentSessions    []SessionOverview   `json:"recentSessions"`
}

type closedSessionsRepo interface {
	ClosedSessions(ctx context.Context, userID int) ([]SessionDetails, error)
}

// Analyzer computes dashboard statistics from a user's closed sessions.
// Only closed sessions count, an open session stays out of the figures
// until it is ended. All volume arithmetic is decimal, no float drift.
type Analyzer struct {
	repo closedSessionsRepo

	// now is replaceable in tests to pin the week/month windows
	now func() time.Time
}

func NewAnalyzer(repo closedSessionsRepo) *Analyzer {
	return &Analyzer{
		repo: repo,
		now:  time.Now,
	}
}

func (a *Analyzer) Dashboard(ctx context.Context, userID int) (_ *Dashboard, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gym.analyzer.dashboard")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sessions, err := a.repo.ClosedSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := a.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekCutoff := today.AddDate(0, 0, -7)
	monthCutoff := today.AddDate(0, 0, -30)

	dashboard := &Dashboard{
		Stats: DashboardStats{
			TotalVolume:    decimal.Zero,
			VolumeThisWeek: decimal.Zero,
			HeaviestWeight: decimal.Zero,
		},
		ExerciseFrequency: []ExerciseFrequency{},
		VolumeOverTime:    []SessionVolume{},
		RecentSessions:    []SessionOverview{},
	}
	stats := &dashboard.Stats

	exerciseNames := map[string]struct{}{}
	frequency := map[string]*ExerciseFrequency{}
	frequencySessions := map[string]map[int]struct{}{}

	for _, session := range sessions {
		inWeek := !session.Date.Before(weekCutoff)
		inMonth := !session.Date.Before(monthCutoff)

		stats.TotalSessions++
		if inWeek {
			stats.SessionsThisWeek++
		}
		if inMonth {
			stats.SessionsThisMonth++
		}

		sessionVolume := SessionVolume{
			SessionID:     session.ID,
			Date:          session.Date,
			SessionVolume: decimal.Zero,
			ExerciseCount: len(session.Exercises),
		}

		for _, exercise := range session.Exercises {
			exerciseNames[exercise.Name] = struct{}{}

			freq := frequency[exercise.Name]
			if freq == nil {
				freq = &ExerciseFrequency{Name: exercise.Name, TotalVolume: decimal.Zero}
				frequency[exercise.Name] = freq
				frequencySessions[exercise.Name] = map[int]struct{}{}
			}
			frequencySessions[exercise.Name][session.ID] = struct{}{}

			for _, set := range exercise.Sets {
				volume := set.Volume()

				stats.TotalSets++
				stats.TotalVolume = stats.TotalVolume.Add(volume)
				if inWeek {
					stats.VolumeThisWeek = stats.VolumeThisWeek.Add(volume)
				}
				if set.Weight.GreaterThan(stats.HeaviestWeight) {
					stats.HeaviestWeight = set.Weight
				}

				freq.TotalSets++
				freq.TotalVolume = freq.TotalVolume.Add(volume)

				sessionVolume.SessionVolume = sessionVolume.SessionVolume.Add(volume)
				sessionVolume.SetCount++
			}
		}

		dashboard.VolumeOverTime = append(dashboard.VolumeOverTime, sessionVolume)
	}

	stats.UniqueExercises = len(exerciseNames)

	for name, freq := range frequency {
		freq.SessionCount = len(frequencySessions[name])
		dashboard.ExerciseFrequency = append(dashboard.ExerciseFrequency, *freq)
	}
	sort.Slice(dashboard.ExerciseFrequency, func(i, j int) bool {
		fi, fj := dashboard.ExerciseFrequency[i], dashboard.ExerciseFrequency[j]
		if fi.SessionCount != fj.SessionCount {
			return fi.SessionCount > fj.SessionCount
		}
		return fi.Name < fj.Name
	})

	// closed sessions come date ascending, take the last 5 for the recent list
	for i := len(sessions) - 1; i >= 0 && len(dashboard.RecentSessions) < 5; i-- {
		session := sessions[i]
		overview := SessionOverview{
			Session:       session.Session,
			ExerciseCount: len(session.Exercises),
		}
		for _, exercise := range session.Exercises {
			overview.TotalSets += len(exercise.Sets)
		}
		dashboard.RecentSessions = append(dashboard.RecentSessions, overview)
	}

	return dashboard, nil
}
