package gym

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session is one gym visit. An open session has a nil EndTime,
// at most one open session exists per user.
type Session struct {
	ID        int        `json:"id"`
	UserID    int        `json:"userId"`
	Date      time.Time  `json:"date"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (s *Session) IsActive() bool {
	return s.EndTime == nil
}

type Exercise struct {
	ID        int    `json:"id"`
	SessionID int    `json:"sessionId"`
	Name      string `json:"exerciseName"`
	Order     int    `json:"exerciseOrder"`
	Sets      []Set  `json:"sets"`
}

type Set struct {
	ID          int             `json:"id"`
	ExerciseID  int             `json:"exerciseId"`
	SetNumber   int             `json:"setNumber"`
	Weight      decimal.Decimal `json:"weight"`
	Reps        int             `json:"reps"`
	CompletedAt time.Time       `json:"completedAt"`
}

// Volume is the training-load metric of a single set: weight times reps.
func (s *Set) Volume() decimal.Decimal {
	return s.Weight.Mul(decimal.NewFromInt(int64(s.Reps)))
}

type SessionDetails struct {
	Session
	Exercises []Exercise `json:"exercises"`
}

// SessionOverview is a closed session with its aggregate counts,
// as returned by session listings.
type SessionOverview struct {
	Session
	ExerciseCount int `json:"exerciseCount"`
	TotalSets     int `json:"totalSets"`
}

// LastWorkout holds the sets of the most recent closed session
// that contains the given exercise.
type LastWorkout struct {
	ExerciseName string    `json:"exerciseName"`
	Date         time.Time `json:"date"`
	Sets         []Set     `json:"sets"`
}

type UserExercise struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
