package local_event

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/studydesk/studydesk/pkg/calendar"
)

type RepositoryStub struct {
	mu      sync.RWMutex
	records map[uuid.UUID]calendar.LocalEventRecord
	userIds map[uuid.UUID]int
	Err     error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		records: make(map[uuid.UUID]calendar.LocalEventRecord),
		userIds: make(map[uuid.UUID]int),
	}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	originalRecords := make(map[uuid.UUID]calendar.LocalEventRecord, len(r.records))
	for k, v := range r.records {
		originalRecords[k] = v
	}
	originalUserIds := make(map[uuid.UUID]int, len(r.userIds))
	for k, v := range r.userIds {
		originalUserIds[k] = v
	}
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.records = originalRecords
		r.userIds = originalUserIds
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) List(ctx context.Context, userId int) ([]calendar.LocalEventRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	records := []calendar.LocalEventRecord{}
	for id, rec := range r.records {
		if r.userIds[id] == userId {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].Id < records[j].Id
	})
	return records, nil
}

func (r *RepositoryStub) Get(ctx context.Context, userId int, id uuid.UUID) (calendar.LocalEventRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return calendar.LocalEventRecord{}, r.Err
	}
	rec, ok := r.records[id]
	if !ok || r.userIds[id] != userId {
		return calendar.LocalEventRecord{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return rec, nil
}

func (r *RepositoryStub) Store(ctx context.Context, userId int, id uuid.UUID, rec calendar.LocalEventRecord) (calendar.LocalEventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return calendar.LocalEventRecord{}, r.Err
	}
	rec.Id = id.String()
	r.records[id] = rec
	r.userIds[id] = userId
	return rec, nil
}

func (r *RepositoryStub) Update(ctx context.Context, userId int, id uuid.UUID, rec calendar.LocalEventRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	if _, ok := r.records[id]; !ok || r.userIds[id] != userId {
		return false, nil
	}
	rec.Id = id.String()
	r.records[id] = rec
	return true, nil
}

func (r *RepositoryStub) Delete(ctx context.Context, userId int, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	if _, ok := r.records[id]; !ok || r.userIds[id] != userId {
		return false, nil
	}
	delete(r.records, id)
	delete(r.userIds, id)
	return true, nil
}
