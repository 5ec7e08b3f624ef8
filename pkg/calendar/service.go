package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/internal/config"
	"github.com/studydesk/studydesk/internal/event_bus"
	"github.com/studydesk/studydesk/internal/utils"
	"github.com/studydesk/studydesk/pkg/user"
)

var ErrEventNotFound = errors.New("event not found")
var ErrUnknownCalendar = errors.New("unknown calendar")

const localKey = "all"

type Service interface {
	View(ctx context.Context) (View, error)
	Prev(ctx context.Context) (View, error)
	Next(ctx context.Context) (View, error)
	Today(ctx context.Context) (View, error)
	SetMode(ctx context.Context, mode Mode) (View, error)
	JumpTo(ctx context.Context, date time.Time) (View, error)
	// SelectDay promotes Month and Week views to the Day view of date.
	SelectDay(ctx context.Context, date time.Time) (View, error)

	Sources(ctx context.Context) ([]SourceState, error)
	SetSourceVisible(ctx context.Context, calendarId string, visible bool) ([]SourceState, error)
	Search(ctx context.Context, query string) ([]Event, error)
	// FindEvent looks an event up among the currently loaded events.
	FindEvent(ctx context.Context, source SourceKind, id string) (Event, error)
	VisibleEvents(ctx context.Context) (from time.Time, to time.Time, events []Event, err error)
	// ExportICS renders the visible events of the current view as iCalendar.
	ExportICS(ctx context.Context) (string, error)

	TrackChange(ctx context.Context, e Event, kind ChangeKind)
	RollBackChange(ctx context.Context, source SourceKind, id string)
	// RefreshExternal drops the cached external data of every session.
	RefreshExternal()
}

type SourceState struct {
	CalendarSource
	Selected bool `json:"selected"`
}

type View struct {
	State      ViewState
	RangeStart time.Time
	RangeEnd   time.Time
	Sources    []SourceState
	Days       []DayCell
	// Columns is set for the Week and the Day mode only.
	Columns      []DayColumn
	ColumnHeight float64
	Tasks        TaskSummary
}

type session struct {
	mu        sync.Mutex
	navigator *ViewNavigator
	registry  *SourceRegistry
	// location and the navigator follow the user's settings; both are guarded by mu.
	location *time.Location

	local     *FetchLedger[string, []Event]
	external  *FetchLedger[MonthKey, []Event]
	calendars *FetchLedger[string, []ExternalCalendar]
	pending   *PendingChanges
}

type ServiceImpl struct {
	local       LocalSource
	external    ExternalSource
	tasks       []TaskSource
	clock       utils.Clock
	grid        TimeGrid
	cfg         config.Calendar
	defaultZone *time.Location

	mu       sync.Mutex
	sessions map[int]*session
}

func NewService(
	local LocalSource,
	external ExternalSource,
	tasks []TaskSource,
	clock utils.Clock,
	cfg config.Calendar,
	eventBus *event_bus.EventBus,
) *ServiceImpl {
	defaultZone := time.Local
	if cfg.DefaultTimezone != "" {
		loc, err := time.LoadLocation(cfg.DefaultTimezone)
		if err != nil {
			log.Warnf("invalid default timezone %q, using %s: %v", cfg.DefaultTimezone, defaultZone, err)
		} else {
			defaultZone = loc
		}
	}

	s := &ServiceImpl{
		local:       local,
		external:    external,
		tasks:       tasks,
		clock:       clock,
		grid:        TimeGrid{HourHeight: cfg.HourHeight, MinVisibleHeight: cfg.MinEventHeight},
		cfg:         cfg,
		defaultZone: defaultZone,
		sessions:    make(map[int]*session),
	}

	if eventBus != nil {
		event_bus.SubscribeTyped(eventBus, event_bus.CalendarEventSaved, func(e event_bus.EventT[event_bus.CalendarEventChanged]) error {
			log.Debugf("received calendar event saved: %+v", e.Data)
			s.handleEventChanged(e.Data)
			return nil
		})
		event_bus.SubscribeTyped(eventBus, event_bus.CalendarEventDeleted, func(e event_bus.EventT[event_bus.CalendarEventChanged]) error {
			log.Debugf("received calendar event deleted: %+v", e.Data)
			s.handleEventChanged(e.Data)
			return nil
		})
	}
	return s
}

// handleEventChanged invalidates the cache of the source owning the changed event so the
// next view refetches it, and confirms the optimistic change of that event.
func (s *ServiceImpl) handleEventChanged(change event_bus.CalendarEventChanged) {
	s.mu.Lock()
	sess, ok := s.sessions[change.UserId]
	s.mu.Unlock()
	if !ok {
		return
	}

	switch SourceKind(change.Source) {
	case SourceLocal:
		sess.local.Invalidate(localKey)
	case SourceExternal:
		sess.external.InvalidateAll()
	default:
		log.Warnf("calendar event changed with unknown source %q", change.Source)
		return
	}
	if change.EventId != "" {
		sess.pending.Confirm(SourceKind(change.Source), change.EventId)
	}
}

func (s *ServiceImpl) RefreshExternal() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.external.InvalidateAll()
		sess.calendars.InvalidateAll()
	}
	log.Debugf("external calendar cache dropped for %d session(s)", len(sessions))
}

func (s *ServiceImpl) session(ctx context.Context) (*session, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	loc := currentUser.Settings.Location(s.defaultZone)
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[currentUser.Id]; ok {
		if sess.applySettings(loc, currentUser.Settings.WeekFirstDay) {
			log.Debugf("calendar settings of user %d changed, view moved to %s", currentUser.Id, loc)
		}
		return sess, nil
	}
	sess := &session{
		navigator: NewViewNavigator(s.clock, loc, currentUser.Settings.WeekFirstDay),
		registry:  NewSourceRegistry(s.cfg.LocalSourceName, s.cfg.LocalSourceColor),
		location:  loc,
		local:     NewFetchLedger[string, []Event](),
		external:  NewFetchLedger[MonthKey, []Event](),
		calendars: NewFetchLedger[string, []ExternalCalendar](),
		pending:   NewPendingChanges(),
	}
	s.sessions[currentUser.Id] = sess
	return sess, nil
}

// applySettings moves the session to a new zone or week start. Cached events were normalized
// in the old zone, so they are dropped along with it.
func (sess *session) applySettings(loc *time.Location, weekStart time.Weekday) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.location.String() == loc.String() && sess.navigator.weekStart == weekStart {
		return false
	}
	if sess.location.String() != loc.String() {
		sess.local.InvalidateAll()
		sess.external.InvalidateAll()
	}
	sess.location = loc
	sess.navigator.Reconfigure(loc, weekStart)
	return true
}

func (sess *session) zone() *time.Location {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.location
}

func (s *ServiceImpl) View(ctx context.Context) (View, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return View{}, err
	}
	return s.render(ctx, sess), nil
}

func (s *ServiceImpl) navigate(ctx context.Context, action func(n *ViewNavigator)) (View, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	action(sess.navigator)
	sess.mu.Unlock()
	return s.render(ctx, sess), nil
}

func (s *ServiceImpl) Prev(ctx context.Context) (View, error) {
	return s.navigate(ctx, (*ViewNavigator).Prev)
}

func (s *ServiceImpl) Next(ctx context.Context) (View, error) {
	return s.navigate(ctx, (*ViewNavigator).Next)
}

func (s *ServiceImpl) Today(ctx context.Context) (View, error) {
	return s.navigate(ctx, (*ViewNavigator).Today)
}

func (s *ServiceImpl) SetMode(ctx context.Context, mode Mode) (View, error) {
	return s.navigate(ctx, func(n *ViewNavigator) { n.SetMode(mode) })
}

func (s *ServiceImpl) JumpTo(ctx context.Context, date time.Time) (View, error) {
	return s.navigate(ctx, func(n *ViewNavigator) { n.JumpTo(date) })
}

func (s *ServiceImpl) SelectDay(ctx context.Context, date time.Time) (View, error) {
	return s.navigate(ctx, func(n *ViewNavigator) { n.SelectDay(date) })
}

func (s *ServiceImpl) Sources(ctx context.Context) ([]SourceState, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	s.loadCalendars(ctx, sess)
	return sourceStates(sess.registry), nil
}

func (s *ServiceImpl) SetSourceVisible(ctx context.Context, calendarId string, visible bool) ([]SourceState, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	s.loadCalendars(ctx, sess)
	if calendarId != LocalCalendarId && !hasSource(sess.registry, calendarId) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCalendar, calendarId)
	}
	sess.registry.SetSelected(calendarId, visible)
	return sourceStates(sess.registry), nil
}

func (s *ServiceImpl) Search(ctx context.Context, query string) ([]Event, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	local, external := s.loadEvents(ctx, sess)
	return Search(concat(local, external), query, sess.registry), nil
}

func (s *ServiceImpl) FindEvent(ctx context.Context, source SourceKind, id string) (Event, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return Event{}, err
	}
	local, external := s.loadEvents(ctx, sess)
	for _, e := range concat(local, external) {
		if e.Source == source && e.Id == id {
			return e, nil
		}
	}
	return Event{}, fmt.Errorf("%w: %s %s", ErrEventNotFound, source, id)
}

func (s *ServiceImpl) VisibleEvents(ctx context.Context) (time.Time, time.Time, []Event, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	sess.mu.Lock()
	from, to := sess.navigator.VisibleRange()
	loc := sess.location
	sess.mu.Unlock()

	local, external := s.loadEvents(ctx, sess)
	rangeStart, _ := DayBounds(from, loc)
	_, rangeEnd := DayBounds(to, loc)
	var events []Event
	for _, e := range FilterVisible(concat(local, external), sess.registry) {
		if !e.Start.After(rangeEnd) && !e.End.Before(rangeStart) {
			events = append(events, e)
		}
	}
	SortForDisplay(events)
	return from, to, events, nil
}

func (s *ServiceImpl) ExportICS(ctx context.Context) (string, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return "", err
	}
	_, _, events, err := s.VisibleEvents(ctx)
	if err != nil {
		return "", err
	}
	return RenderICS(s.cfg.LocalSourceName, sess.zone(), events, s.clock.Now()), nil
}

func (s *ServiceImpl) TrackChange(ctx context.Context, e Event, kind ChangeKind) {
	sess, err := s.session(ctx)
	if err != nil {
		log.Warnf("cannot track change of event %s: %v", e.Id, err)
		return
	}
	sess.pending.Apply(e, kind)
}

func (s *ServiceImpl) RollBackChange(ctx context.Context, source SourceKind, id string) {
	sess, err := s.session(ctx)
	if err != nil {
		log.Warnf("cannot roll back change of event %s: %v", id, err)
		return
	}
	sess.pending.RollBack(source, id)
}

func (s *ServiceImpl) render(ctx context.Context, sess *session) View {
	local, external := s.loadEvents(ctx, sess)

	sess.mu.Lock()
	state := sess.navigator.State()
	from, to := sess.navigator.VisibleRange()
	loc := sess.location
	sess.mu.Unlock()

	localVisible := FilterVisible(local, sess.registry)
	externalVisible := FilterVisible(external, sess.registry)

	view := View{
		State:        state,
		RangeStart:   from,
		RangeEnd:     to,
		Sources:      sourceStates(sess.registry),
		Days:         BucketByDay(from, to, loc, localVisible, externalVisible),
		ColumnHeight: s.grid.ColumnHeight(),
		Tasks:        SummarizeTasks(ctx, s.clock.Now(), loc, s.tasks...),
	}
	if state.Mode != ModeMonth {
		for _, cell := range view.Days {
			view.Columns = append(view.Columns, s.grid.LayoutDay(cell.Date, loc, cell.Events))
		}
	}
	return view
}

// loadEvents returns the normalized local events and the external events of the visible
// month, with outstanding changes overlaid. Cached results are reused; the three fetches
// that are missing run in parallel and a failing one contributes no events.
func (s *ServiceImpl) loadEvents(ctx context.Context, sess *session) ([]Event, []Event) {
	sess.mu.Lock()
	key := sess.navigator.MonthKey()
	first, last := MonthBounds(sess.navigator.Anchor(), sess.location)
	from := sess.navigator.startOfWeek(first)
	to := sess.navigator.startOfWeek(last).AddDate(0, 0, 7)
	normalizer := NewNormalizer(sess.location)
	sess.mu.Unlock()

	localEvents, localCached := sess.local.Get(localKey)
	externalEvents, externalCached := sess.external.Get(key)

	var wg sync.WaitGroup
	if !localCached {
		ticket := sess.local.Issue(localKey)
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := s.local.ListLocalEvents(ctx)
			if err != nil {
				log.Errorf("failed to fetch local events: %v", err)
				return
			}
			localEvents = normalizer.NormalizeLocalAll(records)
			if sess.local.Resolve(ticket, localEvents) {
				sess.pending.Reconcile(SourceLocal)
			}
		}()
	}
	if !externalCached && s.external != nil {
		ticket := sess.external.Issue(key)
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := s.external.ListExternalEvents(ctx, from, to)
			if err != nil {
				log.Warnf("failed to fetch external events for %s: %v", key, err)
				return
			}
			externalEvents = normalizer.NormalizeExternalAll(records)
			if sess.external.Resolve(ticket, externalEvents) {
				sess.pending.Reconcile(SourceExternal)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.loadCalendars(ctx, sess)
	}()
	wg.Wait()

	return sess.pending.Overlay(SourceLocal, localEvents), sess.pending.Overlay(SourceExternal, externalEvents)
}

func (s *ServiceImpl) loadCalendars(ctx context.Context, sess *session) {
	if s.external == nil {
		return
	}
	if _, cached := sess.calendars.Get(localKey); cached {
		return
	}
	ticket := sess.calendars.Issue(localKey)
	calendars, err := s.external.ListExternalCalendars(ctx)
	if err != nil {
		log.Warnf("failed to fetch external calendars: %v", err)
		return
	}
	if sess.calendars.Resolve(ticket, calendars) {
		sess.registry.SetExternalSources(calendars)
	}
}

func sourceStates(registry *SourceRegistry) []SourceState {
	sources := registry.Sources()
	states := make([]SourceState, 0, len(sources))
	for _, source := range sources {
		states = append(states, SourceState{CalendarSource: source, Selected: registry.IsSelected(source.Id)})
	}
	return states
}

func hasSource(registry *SourceRegistry, calendarId string) bool {
	for _, source := range registry.Sources() {
		if source.Id == calendarId {
			return true
		}
	}
	return false
}

func concat(lists ...[]Event) []Event {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	all := make([]Event, 0, n)
	for _, l := range lists {
		all = append(all, l...)
	}
	return all
}
