package calendar

import (
	"context"
	"sync"
	"time"
)

type StubLocalSource struct {
	mu      sync.Mutex
	Records []LocalEventRecord
	Err     error
	Calls   int
}

func (s *StubLocalSource) ListLocalEvents(ctx context.Context) ([]LocalEventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]LocalEventRecord(nil), s.Records...), nil
}

func (s *StubLocalSource) SetRecords(records []LocalEventRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = records
}

func (s *StubLocalSource) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}

type StubExternalSource struct {
	mu           sync.Mutex
	Events       []ExternalEventRecord
	Calendars    []ExternalCalendar
	Err          error
	CalendarsErr error
	Calls        int
	LastFrom     time.Time
	LastTo       time.Time
}

func (s *StubExternalSource) ListExternalEvents(ctx context.Context, from, to time.Time) ([]ExternalEventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	s.LastFrom, s.LastTo = from, to
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]ExternalEventRecord(nil), s.Events...), nil
}

func (s *StubExternalSource) ListExternalCalendars(ctx context.Context) ([]ExternalCalendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CalendarsErr != nil {
		return nil, s.CalendarsErr
	}
	return append([]ExternalCalendar(nil), s.Calendars...), nil
}

func (s *StubExternalSource) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}

type StubTaskSource struct {
	Tasks []TaskRecord
	Err   error
}

func (s *StubTaskSource) ListTasks(ctx context.Context) ([]TaskRecord, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Tasks, nil
}
