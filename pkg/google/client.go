package google

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/pkg/calendar"
	"github.com/studydesk/studydesk/pkg/user"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"
)

var ErrUnathenticated = fmt.Errorf("user is unauthenticated, authentication is required: %w", calendar.ErrNotConnected)

// Client is the subset of the Google Calendar and Tasks APIs the planner uses.
type Client interface {
	ListCalendars(ctx context.Context) ([]*gcal.CalendarListEntry, error)
	// ListEvents expands recurring events into single instances within [from, to).
	ListEvents(ctx context.Context, calendarId string, from, to time.Time) ([]*gcal.Event, error)
	PatchEvent(ctx context.Context, calendarId, eventId string, event *gcal.Event) error
	DeleteEvent(ctx context.Context, calendarId, eventId string) error
	// ListTasks returns the tasks of every task list, completed and hidden ones included.
	ListTasks(ctx context.Context) ([]*gtasks.Task, error)
}

type ClientImpl struct {
	auth *GoogleAuth
}

func NewClient(auth *GoogleAuth) *ClientImpl {
	return &ClientImpl{auth: auth}
}

func (c *ClientImpl) httpClient(ctx context.Context) (*http.Client, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	client, err := c.auth.getClient(ctx, userId)
	if err != nil {
		log.Errorf("unable to retrieve Google auth client: %v", err)
		return nil, err
	}
	if client == nil {
		log.Debug("user is unauthenticated, authentication is required")
		return nil, ErrUnathenticated
	}
	return client, nil
}

func (c *ClientImpl) calendarService(ctx context.Context) (*gcal.Service, error) {
	client, err := c.httpClient(ctx)
	if err != nil {
		return nil, err
	}
	service, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}
	return service, nil
}

func (c *ClientImpl) tasksService(ctx context.Context) (*gtasks.Service, error) {
	client, err := c.httpClient(ctx)
	if err != nil {
		return nil, err
	}
	service, err := gtasks.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Tasks client: %w", err)
	}
	return service, nil
}

func (c *ClientImpl) ListCalendars(ctx context.Context) ([]*gcal.CalendarListEntry, error) {
	service, err := c.calendarService(ctx)
	if err != nil {
		return nil, err
	}
	var entries []*gcal.CalendarListEntry
	err = service.CalendarList.List().Pages(ctx, func(page *gcal.CalendarList) error {
		entries = append(entries, page.Items...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendars from Google Calendar: %w", err)
	}
	return entries, nil
}

func (c *ClientImpl) ListEvents(ctx context.Context, calendarId string, from, to time.Time) ([]*gcal.Event, error) {
	service, err := c.calendarService(ctx)
	if err != nil {
		return nil, err
	}
	var events []*gcal.Event
	err = service.Events.List(calendarId).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Pages(ctx, func(page *gcal.Events) error {
			events = append(events, page.Items...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events of calendar %s: %w", calendarId, err)
	}
	return events, nil
}

func (c *ClientImpl) PatchEvent(ctx context.Context, calendarId, eventId string, event *gcal.Event) error {
	service, err := c.calendarService(ctx)
	if err != nil {
		return err
	}
	if _, err := service.Events.Patch(calendarId, eventId, event).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to update event %s in calendar %s: %w", eventId, calendarId, err)
	}
	return nil
}

func (c *ClientImpl) DeleteEvent(ctx context.Context, calendarId, eventId string) error {
	service, err := c.calendarService(ctx)
	if err != nil {
		return err
	}
	if err := service.Events.Delete(calendarId, eventId).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to delete event %s from calendar %s: %w", eventId, calendarId, err)
	}
	return nil
}

func (c *ClientImpl) ListTasks(ctx context.Context) ([]*gtasks.Task, error) {
	service, err := c.tasksService(ctx)
	if err != nil {
		return nil, err
	}
	var lists []*gtasks.TaskList
	err = service.Tasklists.List().Pages(ctx, func(page *gtasks.TaskLists) error {
		lists = append(lists, page.Items...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google task lists: %w", err)
	}

	var result []*gtasks.Task
	for _, list := range lists {
		err := service.Tasks.List(list.Id).ShowCompleted(true).ShowHidden(true).
			Pages(ctx, func(page *gtasks.Tasks) error {
				result = append(result, page.Items...)
				return nil
			})
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve tasks of list %s: %w", list.Id, err)
		}
	}
	return result, nil
}
