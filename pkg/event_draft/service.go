package event_draft

import (
	"context"
	"fmt"
	"sync"

	"github.com/studydesk/studydesk/internal/event_bus"
	"github.com/studydesk/studydesk/pkg/calendar"
	"github.com/studydesk/studydesk/pkg/user"
)

// EventFinder looks up an event among the ones the calendar view has loaded.
type EventFinder interface {
	FindEvent(ctx context.Context, source calendar.SourceKind, id string) (calendar.Event, error)
}

// Service hands out the editor of the current user.
type Service struct {
	mu      sync.Mutex
	editors map[int]*Editor

	local       LocalStore
	external    ExternalStore
	tracker     ChangeTracker
	finder      EventFinder
	eventBus    *event_bus.EventBus
	defaultZone string
}

func NewService(
	local LocalStore,
	external ExternalStore,
	tracker ChangeTracker,
	finder EventFinder,
	eventBus *event_bus.EventBus,
	defaultZone string,
) *Service {
	return &Service{
		editors:     make(map[int]*Editor),
		local:       local,
		external:    external,
		tracker:     tracker,
		finder:      finder,
		eventBus:    eventBus,
		defaultZone: defaultZone,
	}
}

// Editor returns the current user's editor with the user's zone and email applied.
func (s *Service) Editor(ctx context.Context) (*Editor, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	s.mu.Lock()
	editor, ok := s.editors[currentUser.Id]
	if !ok {
		editor = NewEditor(currentUser.Id, s.local, s.external, s.tracker, s.eventBus)
		s.editors[currentUser.Id] = editor
	}
	s.mu.Unlock()

	zone := currentUser.Settings.Timezone
	if zone == "" {
		zone = s.defaultZone
	}
	if zone == "" {
		zone = SystemZone()
	}
	editor.SetAmbient(zone, currentUser.Email)
	return editor, nil
}

// OpenEdit opens a draft for a loaded event of the current user and returns it together with
// the editor state it opened in.
func (s *Service) OpenEdit(ctx context.Context, source calendar.SourceKind, id string) (Draft, State, error) {
	editor, err := s.Editor(ctx)
	if err != nil {
		return Draft{}, StateClosed, err
	}
	e, err := s.finder.FindEvent(ctx, source, id)
	if err != nil {
		return Draft{}, editor.State(), err
	}
	return editor.openEdit(e)
}
