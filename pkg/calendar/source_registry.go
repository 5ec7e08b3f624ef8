package calendar

import (
	"sync"
)

type SourceOwner string

const (
	OwnerLocal    SourceOwner = "local"
	OwnerExternal SourceOwner = "external"
)

type CalendarSource struct {
	Id    string      `json:"id"`
	Name  string      `json:"name"`
	Color string      `json:"color"`
	Owner SourceOwner `json:"owner"`
}

// SourceRegistry keeps calendar metadata and the visibility selection apart, so a refreshed
// calendar list never resets what the user toggled.
type SourceRegistry struct {
	mu           sync.RWMutex
	local        CalendarSource
	external     []CalendarSource
	selected     map[string]struct{}
	known        map[string]struct{}
	localVisible bool
}

func NewSourceRegistry(localName, localColor string) *SourceRegistry {
	return &SourceRegistry{
		local: CalendarSource{
			Id:    LocalCalendarId,
			Name:  localName,
			Color: localColor,
			Owner: OwnerLocal,
		},
		selected:     make(map[string]struct{}),
		known:        make(map[string]struct{}),
		localVisible: true,
	}
}

// SetExternalSources replaces the external calendar metadata. Calendars seen for the first
// time start selected; earlier choices for known calendars are kept.
func (r *SourceRegistry) SetExternalSources(calendars []ExternalCalendar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sources := make([]CalendarSource, 0, len(calendars))
	for _, c := range calendars {
		sources = append(sources, CalendarSource{Id: c.Id, Name: c.Name, Color: c.Color, Owner: OwnerExternal})
		if _, seen := r.known[c.Id]; !seen {
			r.known[c.Id] = struct{}{}
			r.selected[c.Id] = struct{}{}
		}
	}
	r.external = sources
}

// Sources returns the local source followed by the external calendars.
func (r *SourceRegistry) Sources() []CalendarSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sources := make([]CalendarSource, 0, len(r.external)+1)
	sources = append(sources, r.local)
	return append(sources, r.external...)
}

func (r *SourceRegistry) SetSelected(calendarId string, selected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if calendarId == LocalCalendarId {
		r.localVisible = selected
		return
	}
	r.known[calendarId] = struct{}{}
	if selected {
		r.selected[calendarId] = struct{}{}
	} else {
		delete(r.selected, calendarId)
	}
}

// Toggle flips the selection of calendarId and returns the new state.
func (r *SourceRegistry) Toggle(calendarId string) bool {
	selected := !r.IsSelected(calendarId)
	r.SetSelected(calendarId, selected)
	return selected
}

func (r *SourceRegistry) IsSelected(calendarId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if calendarId == LocalCalendarId {
		return r.localVisible
	}
	_, ok := r.selected[calendarId]
	return ok
}

func (r *SourceRegistry) SetLocalVisible(visible bool) {
	r.SetSelected(LocalCalendarId, visible)
}

func (r *SourceRegistry) LocalVisible() bool {
	return r.IsSelected(LocalCalendarId)
}

// IsVisible decides whether e may be shown. External events of calendars that are not in
// the selection are hidden, including calendars whose metadata has not loaded yet.
func (r *SourceRegistry) IsVisible(e Event) bool {
	switch e.Source {
	case SourceLocal:
		return r.LocalVisible()
	case SourceExternal:
		r.mu.RLock()
		defer r.mu.RUnlock()
		_, ok := r.selected[e.CalendarId]
		return ok
	}
	return false
}
