package gym

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTestSession(
	t *testing.T,
	repo *repoMock,
	userID int,
	date time.Time,
	exercises map[string][][2]string, // name -> sets of [weight, reps]
	closed bool,
) *Session {
	t.Helper()
	ctx := context.Background()

	session, err := repo.StartSession(ctx, userID, date)
	require.NoError(t, err)

	order := 1
	for name, sets := range exercises {
		exercise, err := repo.AddExercise(ctx, session.ID, name, order)
		require.NoError(t, err)
		order++
		for i, set := range sets {
			weight := decimal.RequireFromString(set[0])
			reps, err := strconv.Atoi(set[1])
			require.NoError(t, err)
			_, err = repo.AddSet(ctx, userID, exercise.ID, i+1, weight, reps)
			require.NoError(t, err)
		}
	}

	if closed {
		session, err = repo.EndSession(ctx, userID, session.ID, "")
		require.NoError(t, err)
	}
	return session
}

func TestAnalyzer_Dashboard(t *testing.T) {
	repo := NewRepoMock()
	analyzer := NewAnalyzer(repo)

	now := time.Date(2024, 5, 20, 10, 30, 0, 0, time.UTC)
	analyzer.now = func() time.Time { return now }

	day := func(daysAgo int) time.Time {
		return time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
	}

	userID := 1
	addTestSession(t, repo, userID, day(40), map[string][][2]string{
		"deadlift": {{"140", "2"}},
	}, true)
	addTestSession(t, repo, userID, day(20), map[string][][2]string{
		"bench press": {{"90", "5"}},
	}, true)
	addTestSession(t, repo, userID, day(2), map[string][][2]string{
		"bench press": {{"100", "5"}, {"102.5", "3"}},
		"squat":       {{"120", "5"}},
	}, true)
	// open session, must stay out of all figures
	addTestSession(t, repo, userID, day(0), map[string][][2]string{
		"bench press": {{"200", "10"}},
	}, false)
	// another user's data must not leak in
	addTestSession(t, repo, 99, day(1), map[string][][2]string{
		"squat": {{"300", "10"}},
	}, true)

	dashboard, err := analyzer.Dashboard(context.Background(), userID)
	require.NoError(t, err)

	stats := dashboard.Stats
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 1, stats.SessionsThisWeek)
	assert.Equal(t, 2, stats.SessionsThisMonth)
	assert.Equal(t, 5, stats.TotalSets)
	assert.Equal(t, 3, stats.UniqueExercises)
	// 140*2 + 90*5 + 100*5 + 102.5*3 + 120*5 = 2137.5, exact
	assert.True(t, stats.TotalVolume.Equal(decimal.RequireFromString("2137.5")),
		"total volume: %s", stats.TotalVolume)
	assert.True(t, stats.VolumeThisWeek.Equal(decimal.RequireFromString("1407.5")),
		"volume this week: %s", stats.VolumeThisWeek)
	assert.True(t, stats.HeaviestWeight.Equal(decimal.RequireFromString("140")),
		"heaviest weight: %s", stats.HeaviestWeight)

	require.Len(t, dashboard.ExerciseFrequency, 3)
	benchPress := dashboard.ExerciseFrequency[0]
	assert.Equal(t, "bench press", benchPress.Name)
	assert.Equal(t, 2, benchPress.SessionCount)
	assert.Equal(t, 3, benchPress.TotalSets)
	assert.True(t, benchPress.TotalVolume.Equal(decimal.RequireFromString("1257.5")))
	assert.Equal(t, "deadlift", dashboard.ExerciseFrequency[1].Name)
	assert.Equal(t, "squat", dashboard.ExerciseFrequency[2].Name)

	require.Len(t, dashboard.VolumeOverTime, 3)
	assert.Equal(t, day(40), dashboard.VolumeOverTime[0].Date)
	assert.True(t, dashboard.VolumeOverTime[0].SessionVolume.Equal(decimal.RequireFromString("280")))
	assert.Equal(t, day(2), dashboard.VolumeOverTime[2].Date)
	assert.True(t, dashboard.VolumeOverTime[2].SessionVolume.Equal(decimal.RequireFromString("1407.5")))
	assert.Equal(t, 2, dashboard.VolumeOverTime[2].ExerciseCount)
	assert.Equal(t, 3, dashboard.VolumeOverTime[2].SetCount)

	require.Len(t, dashboard.RecentSessions, 3)
	assert.Equal(t, day(2), dashboard.RecentSessions[0].Date)
	assert.Equal(t, 2, dashboard.RecentSessions[0].ExerciseCount)
	assert.Equal(t, 3, dashboard.RecentSessions[0].TotalSets)
	assert.Equal(t, day(40), dashboard.RecentSessions[2].Date)
}

func TestAnalyzer_Dashboard_NoSessions(t *testing.T) {
	repo := NewRepoMock()
	analyzer := NewAnalyzer(repo)

	dashboard, err := analyzer.Dashboard(context.Background(), 1)
	require.NoError(t, err)

	stats := dashboard.Stats
	assert.Zero(t, stats.TotalSessions)
	assert.Zero(t, stats.SessionsThisWeek)
	assert.Zero(t, stats.SessionsThisMonth)
	assert.Zero(t, stats.TotalSets)
	assert.Zero(t, stats.UniqueExercises)
	assert.True(t, stats.TotalVolume.IsZero())
	assert.True(t, stats.VolumeThisWeek.IsZero())
	assert.True(t, stats.HeaviestWeight.IsZero())
	assert.Empty(t, dashboard.ExerciseFrequency)
	assert.Empty(t, dashboard.VolumeOverTime)
	assert.Empty(t, dashboard.RecentSessions)
}

func TestAnalyzer_Dashboard_NoFloatDrift(t *testing.T) {
	repo := NewRepoMock()
	analyzer := NewAnalyzer(repo)

	// 0.1 cannot be represented in binary floating point, ten of
	// them summed with float64 would not equal exactly 1
	sets := make([][2]string, 10)
	for i := range sets {
		sets[i] = [2]string{"0.1", "1"}
	}
	addTestSession(t, repo, 1, time.Now(), map[string][][2]string{
		"band pull apart": sets,
	}, true)

	dashboard, err := analyzer.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, dashboard.Stats.TotalVolume.Equal(decimal.RequireFromString("1")),
		"total volume: %s", dashboard.Stats.TotalVolume)
}

func TestAnalyzer_Dashboard_RecentSessionsCap(t *testing.T) {
	repo := NewRepoMock()
	analyzer := NewAnalyzer(repo)

	for i := 0; i < 8; i++ {
		addTestSession(t, repo, 1, time.Now().AddDate(0, 0, -i), map[string][][2]string{
			"squat": {{"100", "5"}},
		}, true)
	}

	dashboard, err := analyzer.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 8, dashboard.Stats.TotalSessions)
	assert.Len(t, dashboard.RecentSessions, 5)
}
