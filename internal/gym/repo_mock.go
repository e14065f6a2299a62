package gym

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	_ gymRepo            = (*repoMock)(nil)
	_ closedSessionsRepo = (*repoMock)(nil)
)

type repoMock struct {
	mutex sync.Mutex

	Sessions       map[int]*Session
	Exercises      map[int]*Exercise
	Sets           map[int]*Set
	SavedExercises map[int][]UserExercise

	nextSessionID  int
	nextExerciseID int
	nextSetID      int
}

func NewRepoMock() *repoMock {
	return &repoMock{
		Sessions:       map[int]*Session{},
		Exercises:      map[int]*Exercise{},
		Sets:           map[int]*Set{},
		SavedExercises: map[int][]UserExercise{},
		nextSessionID:  1,
		nextExerciseID: 1,
		nextSetID:      1,
	}
}

func (r *repoMock) StartSession(_ context.Context, userID int, date time.Time) (*Session, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, s := range r.Sessions {
		if s.UserID == userID && s.EndTime == nil {
			return nil, ErrActiveSessionExists
		}
	}

	session := &Session{
		ID:        r.nextSessionID,
		UserID:    userID,
		Date:      date,
		StartTime: time.Now(),
		CreatedAt: time.Now(),
	}
	r.nextSessionID++
	r.Sessions[session.ID] = session

	sessionCopy := *session
	return &sessionCopy, nil
}

func (r *repoMock) ActiveSession(_ context.Context, userID int) (*Session, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, s := range r.Sessions {
		if s.UserID == userID && s.EndTime == nil {
			sessionCopy := *s
			return &sessionCopy, nil
		}
	}
	return nil, ErrNoActiveSession
}

func (r *repoMock) SessionDetails(_ context.Context, userID, sessionID int) (*SessionDetails, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.sessionDetails(userID, sessionID)
}

func (r *repoMock) sessionDetails(userID, sessionID int) (*SessionDetails, error) {
	session, ok := r.Sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, ErrSessionNotFound
	}

	details := &SessionDetails{Session: *session}
	for _, e := range r.Exercises {
		if e.SessionID != sessionID {
			continue
		}
		exercise := *e
		for _, s := range r.Sets {
			if s.ExerciseID == e.ID {
				exercise.Sets = append(exercise.Sets, *s)
			}
		}
		sort.Slice(exercise.Sets, func(i, j int) bool {
			return exercise.Sets[i].SetNumber < exercise.Sets[j].SetNumber
		})
		details.Exercises = append(details.Exercises, exercise)
	}
	sort.Slice(details.Exercises, func(i, j int) bool {
		return details.Exercises[i].Order < details.Exercises[j].Order
	})

	return details, nil
}

func (r *repoMock) AddExercise(_ context.Context, sessionID int, name string, order int) (*Exercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}

	exercise := &Exercise{
		ID:        r.nextExerciseID,
		SessionID: sessionID,
		Name:      name,
		Order:     order,
	}
	r.nextExerciseID++
	r.Exercises[exercise.ID] = exercise

	exerciseCopy := *exercise
	return &exerciseCopy, nil
}

func (r *repoMock) AddSet(_ context.Context, userID, exerciseID, setNumber int, weight decimal.Decimal, reps int) (*Set, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !weight.IsPositive() || reps <= 0 {
		return nil, ErrInvalidSet
	}
	exercise, ok := r.Exercises[exerciseID]
	if !ok {
		return nil, ErrExerciseNotFound
	}
	if session, ok := r.Sessions[exercise.SessionID]; !ok || session.UserID != userID {
		return nil, ErrExerciseNotFound
	}

	set := &Set{
		ID:          r.nextSetID,
		ExerciseID:  exerciseID,
		SetNumber:   setNumber,
		Weight:      weight,
		Reps:        reps,
		CompletedAt: time.Now(),
	}
	r.nextSetID++
	r.Sets[set.ID] = set

	setCopy := *set
	return &setCopy, nil
}

func (r *repoMock) EndSession(_ context.Context, userID, sessionID int, notes string) (*Session, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.Sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, ErrSessionNotFound
	}

	now := time.Now()
	session.EndTime = &now
	session.Notes = notes

	sessionCopy := *session
	return &sessionCopy, nil
}

func (r *repoMock) DeleteSession(_ context.Context, userID, sessionID int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.Sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil
	}

	delete(r.Sessions, sessionID)
	for eid, e := range r.Exercises {
		if e.SessionID != sessionID {
			continue
		}
		for sid, s := range r.Sets {
			if s.ExerciseID == eid {
				delete(r.Sets, sid)
			}
		}
		delete(r.Exercises, eid)
	}
	return nil
}

func (r *repoMock) ListSessions(_ context.Context, userID int) ([]SessionOverview, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var sessions []SessionOverview
	for _, s := range r.Sessions {
		if s.UserID != userID || s.EndTime == nil {
			continue
		}
		overview := SessionOverview{Session: *s}
		for _, e := range r.Exercises {
			if e.SessionID != s.ID {
				continue
			}
			overview.ExerciseCount++
			for _, set := range r.Sets {
				if set.ExerciseID == e.ID {
					overview.TotalSets++
				}
			}
		}
		sessions = append(sessions, overview)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Date.After(sessions[j].Date)
	})

	return sessions, nil
}

func (r *repoMock) LastWorkoutForExercise(_ context.Context, userID int, exerciseName string) (*LastWorkout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var (
		lastExercise *Exercise
		lastDate     time.Time
	)
	for _, e := range r.Exercises {
		if e.Name != exerciseName {
			continue
		}
		session, ok := r.Sessions[e.SessionID]
		if !ok || session.UserID != userID || session.EndTime == nil {
			continue
		}
		if lastExercise == nil || session.Date.After(lastDate) {
			lastExercise = e
			lastDate = session.Date
		}
	}
	if lastExercise == nil {
		return nil, nil
	}

	lastWorkout := &LastWorkout{ExerciseName: exerciseName, Date: lastDate}
	for _, s := range r.Sets {
		if s.ExerciseID == lastExercise.ID {
			lastWorkout.Sets = append(lastWorkout.Sets, *s)
		}
	}
	sort.Slice(lastWorkout.Sets, func(i, j int) bool {
		return lastWorkout.Sets[i].SetNumber < lastWorkout.Sets[j].SetNumber
	})

	return lastWorkout, nil
}

func (r *repoMock) SaveUserExercise(_ context.Context, userID int, name string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, ue := range r.SavedExercises[userID] {
		if ue.Name == name {
			return nil
		}
	}
	r.SavedExercises[userID] = append(r.SavedExercises[userID], UserExercise{
		ID:   len(r.SavedExercises[userID]) + 1,
		Name: name,
	})
	return nil
}

func (r *repoMock) UserExercises(_ context.Context, userID int) ([]UserExercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	exercises := make([]UserExercise, len(r.SavedExercises[userID]))
	copy(exercises, r.SavedExercises[userID])
	sort.Slice(exercises, func(i, j int) bool {
		return exercises[i].Name < exercises[j].Name
	})
	return exercises, nil
}

func (r *repoMock) ClosedSessions(_ context.Context, userID int) ([]SessionDetails, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	sessions := []SessionDetails{}
	for _, s := range r.Sessions {
		if s.UserID != userID || s.EndTime == nil {
			continue
		}
		details, err := r.sessionDetails(userID, s.ID)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *details)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Date.Before(sessions[j].Date)
	})

	return sessions, nil
}
