package google

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/pkg/calendar"
)

// ServiceImpl exposes the connected Google account as the external calendar feed, as the
// store external event edits are written to and as a task source.
// Reads of a user without a connected account return nothing; writes fail with ErrUnathenticated.
type ServiceImpl struct {
	client Client
}

func NewService(client Client) *ServiceImpl {
	return &ServiceImpl{client: client}
}

func (s *ServiceImpl) ListExternalCalendars(ctx context.Context) ([]calendar.ExternalCalendar, error) {
	entries, err := s.client.ListCalendars(ctx)
	if errors.Is(err, ErrUnathenticated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	calendars := make([]calendar.ExternalCalendar, 0, len(entries))
	for _, entry := range entries {
		calendars = append(calendars, toExternalCalendar(entry))
	}
	return calendars, nil
}

func (s *ServiceImpl) ListExternalEvents(ctx context.Context, from, to time.Time) ([]calendar.ExternalEventRecord, error) {
	entries, err := s.client.ListCalendars(ctx)
	if errors.Is(err, ErrUnathenticated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []calendar.ExternalEventRecord
	for _, entry := range entries {
		events, err := s.client.ListEvents(ctx, entry.Id, from, to)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			if e == nil || e.Status == eventStatusCancelled {
				continue
			}
			records = append(records, toExternalRecord(e, entry))
		}
	}
	log.Debugf("fetched %d Google events between %s and %s", len(records), from.Format(time.DateOnly), to.Format(time.DateOnly))
	return records, nil
}

func (s *ServiceImpl) UpdateExternalEvent(ctx context.Context, calendarId, id string, patch calendar.ExternalEventPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	return s.client.PatchEvent(ctx, calendarId, id, toPatchEvent(patch))
}

func (s *ServiceImpl) DeleteExternalEvent(ctx context.Context, calendarId, id string) error {
	return s.client.DeleteEvent(ctx, calendarId, id)
}

func (s *ServiceImpl) ListTasks(ctx context.Context) ([]calendar.TaskRecord, error) {
	tasks, err := s.client.ListTasks(ctx)
	if errors.Is(err, ErrUnathenticated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	records := make([]calendar.TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		if t == nil || t.Deleted {
			continue
		}
		records = append(records, toTaskRecord(t))
	}
	return records, nil
}
