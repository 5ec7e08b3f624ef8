package google

import (
	"context"
	"sync"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	gtasks "google.golang.org/api/tasks/v1"
)

type ClientStub struct {
	mu        sync.RWMutex
	calendars []*gcal.CalendarListEntry
	events    map[string][]*gcal.Event // calendarId -> events
	tasks     []*gtasks.Task
	err       error

	Patched map[string]*gcal.Event // calendarId/eventId -> patch body
	Deleted []string               // calendarId/eventId
	Ranges  []time.Time            // from, to of every ListEvents call
}

func NewClientStub() *ClientStub {
	return &ClientStub{
		events:  make(map[string][]*gcal.Event),
		Patched: make(map[string]*gcal.Event),
	}
}

func (c *ClientStub) AddCalendar(entry *gcal.CalendarListEntry, events ...*gcal.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calendars = append(c.calendars, entry)
	c.events[entry.Id] = append(c.events[entry.Id], events...)
}

func (c *ClientStub) SetTasks(tasks ...*gtasks.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = tasks
}

// SetError makes every call fail with err.
func (c *ClientStub) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *ClientStub) ListCalendars(ctx context.Context) ([]*gcal.CalendarListEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.calendars, nil
}

func (c *ClientStub) ListEvents(ctx context.Context, calendarId string, from, to time.Time) ([]*gcal.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.Ranges = append(c.Ranges, from, to)
	return c.events[calendarId], nil
}

func (c *ClientStub) PatchEvent(ctx context.Context, calendarId, eventId string, event *gcal.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.Patched[calendarId+"/"+eventId] = event
	return nil
}

func (c *ClientStub) DeleteEvent(ctx context.Context, calendarId, eventId string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.Deleted = append(c.Deleted, calendarId+"/"+eventId)
	return nil
}

func (c *ClientStub) ListTasks(ctx context.Context) ([]*gtasks.Task, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.tasks, nil
}
