package workouts

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var _ workoutsRepo = (*repoMock)(nil)

type repoMock struct {
	mutex   sync.Mutex
	Entries map[int]*Entry
	nextID  int

	// when set, Add fails for entries of this type
	FailOnType string
}

func NewRepoMock() *repoMock {
	return &repoMock{
		Entries: map[int]*Entry{},
		nextID:  1,
	}
}

func (r *repoMock) Add(_ context.Context, entry Entry) (*Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.FailOnType != "" && entry.Type == r.FailOnType {
		return nil, errors.New("insert failed")
	}

	entry.ID = r.nextID
	entry.CreatedAt = time.Now()
	r.nextID++
	r.Entries[entry.ID] = &entry

	entryCopy := entry
	return &entryCopy, nil
}

func (r *repoMock) List(_ context.Context, userID int) ([]Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var entries []Entry
	for _, e := range r.Entries {
		if e.UserID == userID {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries, nil
}
