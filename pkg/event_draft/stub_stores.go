package event_draft

import (
	"context"
	"fmt"
	"sync"

	"github.com/studydesk/studydesk/pkg/calendar"
)

type StubLocalStore struct {
	mu      sync.Mutex
	Created []calendar.LocalEventRecord
	Updates map[string]calendar.LocalEventPatch
	Deleted []string
	Err     error
}

func (s *StubLocalStore) Create(ctx context.Context, rec calendar.LocalEventRecord) (calendar.LocalEventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return calendar.LocalEventRecord{}, s.Err
	}
	rec.Id = fmt.Sprintf("created-%d", len(s.Created)+1)
	s.Created = append(s.Created, rec)
	return rec, nil
}

func (s *StubLocalStore) Update(ctx context.Context, id string, patch calendar.LocalEventPatch) (calendar.LocalEventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return calendar.LocalEventRecord{}, s.Err
	}
	if s.Updates == nil {
		s.Updates = make(map[string]calendar.LocalEventPatch)
	}
	s.Updates[id] = patch
	title := "updated"
	if patch.Title != nil {
		title = *patch.Title
	}
	date := "2024-03-04"
	if patch.Date != nil {
		date = *patch.Date
	}
	return calendar.LocalEventRecord{Id: id, Title: title, Date: date}, nil
}

func (s *StubLocalStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Deleted = append(s.Deleted, id)
	return nil
}

type StubExternalStore struct {
	mu      sync.Mutex
	Patches map[string]calendar.ExternalEventPatch
	Deleted []string
	Err     error
}

func (s *StubExternalStore) UpdateExternalEvent(ctx context.Context, calendarId, id string, patch calendar.ExternalEventPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.Patches == nil {
		s.Patches = make(map[string]calendar.ExternalEventPatch)
	}
	s.Patches[calendarId+"/"+id] = patch
	return nil
}

func (s *StubExternalStore) DeleteExternalEvent(ctx context.Context, calendarId, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Deleted = append(s.Deleted, calendarId+"/"+id)
	return nil
}

type StubTracker struct {
	mu         sync.Mutex
	Tracked    []calendar.Event
	Kinds      []calendar.ChangeKind
	RolledBack []string
}

func (s *StubTracker) TrackChange(ctx context.Context, e calendar.Event, kind calendar.ChangeKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tracked = append(s.Tracked, e)
	s.Kinds = append(s.Kinds, kind)
}

func (s *StubTracker) RollBackChange(ctx context.Context, source calendar.SourceKind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RolledBack = append(s.RolledBack, string(source)+"/"+id)
}
