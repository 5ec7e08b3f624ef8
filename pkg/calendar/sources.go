package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrNotConnected is returned by external stores when the user has no linked account.
var ErrNotConnected = errors.New("external calendar is not connected")

// LocalSource lists every event of the current user's own store. There is no range filter;
// day membership is computed here.
type LocalSource interface {
	ListLocalEvents(ctx context.Context) ([]LocalEventRecord, error)
}

// ExternalSource is the synced calendar feed of the current user.
type ExternalSource interface {
	ListExternalEvents(ctx context.Context, from, to time.Time) ([]ExternalEventRecord, error)
	ListExternalCalendars(ctx context.Context) ([]ExternalCalendar, error)
}

type TaskSource interface {
	ListTasks(ctx context.Context) ([]TaskRecord, error)
}
