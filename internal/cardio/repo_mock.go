package cardio

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ cardioRepo = (*repoMock)(nil)

type repoMock struct {
	mutex  sync.Mutex
	Logs   map[int]*Log
	nextID int
}

func NewRepoMock() *repoMock {
	return &repoMock{
		Logs:   map[int]*Log{},
		nextID: 1,
	}
}

func (r *repoMock) Add(_ context.Context, log Log) (*Log, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	log.ID = r.nextID
	log.CreatedAt = time.Now()
	r.nextID++
	r.Logs[log.ID] = &log

	logCopy := log
	return &logCopy, nil
}

func (r *repoMock) List(_ context.Context, userID int) ([]Log, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var logs []Log
	for _, l := range r.Logs {
		if l.UserID == userID {
			logs = append(logs, *l)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Date.After(logs[j].Date)
	})
	return logs, nil
}

func (r *repoMock) Update(_ context.Context, log Log) (*Log, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, ok := r.Logs[log.ID]
	if !ok || existing.UserID != log.UserID {
		return nil, ErrLogNotFound
	}

	log.CreatedAt = existing.CreatedAt
	r.Logs[log.ID] = &log

	logCopy := log
	return &logCopy, nil
}

func (r *repoMock) Delete(_ context.Context, userID, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, ok := r.Logs[id]
	if !ok || existing.UserID != userID {
		return ErrLogNotFound
	}
	delete(r.Logs, id)
	return nil
}
