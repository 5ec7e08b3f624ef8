package event_draft

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/internal/event_bus"
	"github.com/studydesk/studydesk/pkg/calendar"
)

type State string

const (
	StateClosed          State = "closed"
	StateCreatingLocal   State = "creating-local"
	StateEditingLocal    State = "editing-local"
	StateEditingExternal State = "editing-external"
)

type LocalStore interface {
	Create(ctx context.Context, rec calendar.LocalEventRecord) (calendar.LocalEventRecord, error)
	Update(ctx context.Context, id string, patch calendar.LocalEventPatch) (calendar.LocalEventRecord, error)
	Delete(ctx context.Context, id string) error
}

// ExternalStore updates and deletes synced events. Creating them is not supported.
type ExternalStore interface {
	UpdateExternalEvent(ctx context.Context, calendarId, id string, patch calendar.ExternalEventPatch) error
	DeleteExternalEvent(ctx context.Context, calendarId, id string) error
}

// ChangeTracker shows saved changes before the owning source is refetched.
type ChangeTracker interface {
	TrackChange(ctx context.Context, e calendar.Event, kind calendar.ChangeKind)
	RollBackChange(ctx context.Context, source calendar.SourceKind, id string)
}

// FieldPatch changes draft fields. Nil fields are left unchanged. Start and End are read
// as wall-clock values in the draft's time zone.
type FieldPatch struct {
	Title       *string
	Description *string
	Location    *string
	Start       *time.Time
	End         *time.Time

	EventType   *string
	Course      *string
	CourseId    *string
	Weight      *float64
	ClearWeight bool
	Color       *string

	ColorId      *string
	Visibility   *string
	Transparency *string
	Reminders    *calendar.Reminders
}

func (p FieldPatch) hasLocalOnly() bool {
	return p.EventType != nil || p.Course != nil || p.CourseId != nil || p.Weight != nil || p.ClearWeight || p.Color != nil
}

func (p FieldPatch) hasExternalOnly() bool {
	return p.ColorId != nil || p.Visibility != nil || p.Transparency != nil || p.Reminders != nil
}

// Editor is the edit form state of one user. At most one draft is open at a time.
type Editor struct {
	mu sync.Mutex

	userId      int
	selfEmail   string
	ambientZone string

	state            State
	draft            *Draft
	originalLocal    *calendar.LocalEventRecord
	originalExternal *calendar.ExternalEventRecord

	local    LocalStore
	external ExternalStore
	tracker  ChangeTracker
	eventBus *event_bus.EventBus
}

func NewEditor(userId int, local LocalStore, external ExternalStore, tracker ChangeTracker, eventBus *event_bus.EventBus) *Editor {
	return &Editor{
		userId:   userId,
		state:    StateClosed,
		local:    local,
		external: external,
		tracker:  tracker,
		eventBus: eventBus,
	}
}

// SetAmbient updates the user's zone and email used by drafts opened from now on.
func (e *Editor) SetAmbient(zone, selfEmail string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ambientZone = zone
	e.selfEmail = selfEmail
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Draft returns a copy of the open draft.
func (e *Editor) Draft() (Draft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return Draft{}, ErrDraftClosed
	}
	return e.draft.clone(), nil
}

// OpenCreate opens an empty local draft on date. An open draft is discarded.
func (e *Editor) OpenCreate(date time.Time) Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := newCreateDraft(date, e.ambientZone)
	e.open(StateCreatingLocal, &d, nil, nil)
	return d.clone()
}

// OpenEdit hydrates a draft from the source record of ev. An open draft is discarded.
func (e *Editor) OpenEdit(ev calendar.Event) (Draft, error) {
	d, _, err := e.openEdit(ev)
	return d, err
}

// openEdit also reports the state the editor entered, read under the same lock.
func (e *Editor) openEdit(ev calendar.Event) (Draft, State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case ev.Source == calendar.SourceLocal && ev.Local != nil:
		d, err := newLocalDraft(*ev.Local, e.ambientZone)
		if err != nil {
			return Draft{}, e.state, err
		}
		original := *ev.Local
		e.open(StateEditingLocal, &d, &original, nil)
		return d.clone(), e.state, nil
	case ev.Source == calendar.SourceExternal && ev.External != nil:
		d, err := newExternalDraft(*ev.External, e.ambientZone)
		if err != nil {
			return Draft{}, e.state, err
		}
		original := *ev.External
		e.open(StateEditingExternal, &d, nil, &original)
		return d.clone(), e.state, nil
	}
	return Draft{}, e.state, fmt.Errorf("%w: %s %s", ErrNoSourceRecord, ev.Source, ev.Id)
}

func (e *Editor) open(state State, d *Draft, local *calendar.LocalEventRecord, external *calendar.ExternalEventRecord) {
	if e.draft != nil {
		log.Debugf("discarding open draft %q of user %d", e.draft.Id, e.userId)
	}
	e.state = state
	e.draft = d
	e.originalLocal = local
	e.originalExternal = external
}

// Close discards the draft without writing anything.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.close()
}

func (e *Editor) close() {
	e.state = StateClosed
	e.draft = nil
	e.originalLocal = nil
	e.originalExternal = nil
}

// mutate runs fn on a copy of the draft and keeps the copy only when fn succeeds.
func (e *Editor) mutate(fn func(d *Draft) error) (Draft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return Draft{}, ErrDraftClosed
	}
	working := e.draft.clone()
	if err := fn(&working); err != nil {
		return Draft{}, err
	}
	e.draft = &working
	return working.clone(), nil
}

func (e *Editor) Apply(p FieldPatch) (Draft, error) {
	return e.mutate(func(d *Draft) error {
		if d.Variant == VariantLocal && p.hasExternalOnly() {
			return fmt.Errorf("%w: local events have no color id, visibility, availability or reminders", ErrUnsupportedField)
		}
		if d.Variant == VariantExternal && p.hasLocalOnly() {
			return fmt.Errorf("%w: external events have no course, weight, event type or color", ErrUnsupportedField)
		}
		if p.Visibility != nil && !slices.Contains(visibilityValues, *p.Visibility) {
			return fmt.Errorf("%w: visibility %q", ErrInvalidValue, *p.Visibility)
		}
		if p.Transparency != nil && !slices.Contains(transparencyValues, *p.Transparency) {
			return fmt.Errorf("%w: transparency %q", ErrInvalidValue, *p.Transparency)
		}
		if p.Weight != nil && *p.Weight < 0 {
			return fmt.Errorf("%w: weight %v", ErrInvalidValue, *p.Weight)
		}
		if p.Reminders != nil {
			if err := validateReminders(*p.Reminders); err != nil {
				return err
			}
		}

		assign(&d.Title, p.Title)
		assign(&d.Description, p.Description)
		assign(&d.Location, p.Location)
		if p.Start != nil {
			d.setStart(*p.Start)
		}
		if p.End != nil {
			d.setEnd(*p.End)
		}
		assign(&d.EventType, p.EventType)
		assign(&d.Course, p.Course)
		assign(&d.CourseId, p.CourseId)
		assign(&d.Color, p.Color)
		switch {
		case p.ClearWeight:
			d.Weight = nil
		case p.Weight != nil:
			w := *p.Weight
			d.Weight = &w
		}
		assign(&d.ColorId, p.ColorId)
		assign(&d.Visibility, p.Visibility)
		assign(&d.Transparency, p.Transparency)
		if p.Reminders != nil {
			r := *p.Reminders
			r.Overrides = append([]calendar.Reminder(nil), p.Reminders.Overrides...)
			d.Reminders = &r
		}
		return nil
	})
}

func (e *Editor) SetAllDay(allDay bool) (Draft, error) {
	return e.mutate(func(d *Draft) error {
		d.setAllDay(allDay)
		return nil
	})
}

// SetTimeZone changes the zone annotation; the wall-clock values stay as they are.
func (e *Editor) SetTimeZone(zone string) (Draft, error) {
	return e.mutate(func(d *Draft) error {
		return d.setTimeZone(zone)
	})
}

func (e *Editor) SetRecurrencePreset(p Preset) (Draft, error) {
	return e.mutate(func(d *Draft) error {
		rule, err := PresetRule(p)
		if err != nil {
			return err
		}
		return d.setRecurrence(rule)
	})
}

func (e *Editor) SetCustomRecurrence(rule string) (Draft, error) {
	return e.mutate(func(d *Draft) error {
		return d.setRecurrence(rule)
	})
}

func (e *Editor) AddAttendee(email string) (Draft, error) {
	return e.mutate(func(d *Draft) error {
		if d.Variant != VariantExternal {
			return fmt.Errorf("%w: attendees", ErrUnsupportedField)
		}
		return d.addAttendee(email)
	})
}

func (e *Editor) RemoveAttendee(email string) (Draft, error) {
	selfEmail := e.selfEmailSnapshot()
	return e.mutate(func(d *Draft) error {
		if d.Variant != VariantExternal {
			return fmt.Errorf("%w: attendees", ErrUnsupportedField)
		}
		return d.removeAttendee(email, selfEmail)
	})
}

func (e *Editor) selfEmailSnapshot() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selfEmail
}

// Save validates the draft and writes it to its owning source. On success the draft is
// closed and the change is announced on the event bus; on failure it stays open.
func (e *Editor) Save(ctx context.Context) (calendar.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return calendar.Event{}, ErrDraftClosed
	}
	if err := e.draft.validate(); err != nil {
		return calendar.Event{}, err
	}

	var saved calendar.Event
	var err error
	switch e.state {
	case StateCreatingLocal:
		saved, err = e.createLocal(ctx)
	case StateEditingLocal:
		saved, err = e.updateLocal(ctx)
	case StateEditingExternal:
		saved, err = e.updateExternal(ctx)
	default:
		return calendar.Event{}, ErrDraftClosed
	}
	if err != nil {
		log.Errorf("failed to save %s draft %q: %v", e.state, e.draft.Id, err)
		return calendar.Event{}, err
	}

	e.publish(event_bus.CalendarEventSaved, saved)
	e.close()
	return saved, nil
}

func (e *Editor) createLocal(ctx context.Context) (calendar.Event, error) {
	if e.local == nil {
		return calendar.Event{}, ErrSourceUnavailable
	}
	created, err := e.local.Create(ctx, e.draft.localRecord())
	if err != nil {
		return calendar.Event{}, fmt.Errorf("failed to create local event: %w", err)
	}
	return e.normalizeLocal(created), nil
}

func (e *Editor) updateLocal(ctx context.Context) (calendar.Event, error) {
	if e.local == nil {
		return calendar.Event{}, ErrSourceUnavailable
	}
	id := e.originalLocal.Id
	patch := e.draft.localPatch(*e.originalLocal)
	if patch.IsEmpty() {
		log.Debugf("local event %s unchanged, nothing to save", id)
		return e.normalizeLocal(*e.originalLocal), nil
	}

	optimistic := e.normalizeLocal(patch.ApplyTo(*e.originalLocal))
	e.track(ctx, optimistic, calendar.ChangeUpsert)
	updated, err := e.local.Update(ctx, id, patch)
	if err != nil {
		e.rollBack(ctx, calendar.SourceLocal, id)
		return calendar.Event{}, fmt.Errorf("failed to update local event %s: %w", id, err)
	}
	return e.normalizeLocal(updated), nil
}

func (e *Editor) updateExternal(ctx context.Context) (calendar.Event, error) {
	if e.external == nil {
		return calendar.Event{}, ErrSourceUnavailable
	}
	original := *e.originalExternal
	patch := e.draft.externalPatch(original)
	if patch.IsEmpty() {
		log.Debugf("external event %s unchanged, nothing to save", original.Id)
		return e.normalizeExternal(original), nil
	}

	optimistic := e.normalizeExternal(patch.ApplyTo(original))
	e.track(ctx, optimistic, calendar.ChangeUpsert)
	if err := e.external.UpdateExternalEvent(ctx, original.CalendarId, original.Id, patch); err != nil {
		e.rollBack(ctx, calendar.SourceExternal, original.Id)
		return calendar.Event{}, fmt.Errorf("failed to update external event %s: %w", original.Id, err)
	}
	return optimistic, nil
}

// Delete removes the event from its owning source and closes the draft. A draft that was
// never saved is just closed. On failure the draft stays open.
func (e *Editor) Delete(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var deleted calendar.Event
	switch e.state {
	case StateClosed:
		return ErrDraftClosed
	case StateCreatingLocal:
		e.close()
		return nil
	case StateEditingLocal:
		if e.local == nil {
			return ErrSourceUnavailable
		}
		deleted = e.normalizeLocal(*e.originalLocal)
		e.track(ctx, deleted, calendar.ChangeDelete)
		if err := e.local.Delete(ctx, deleted.Id); err != nil {
			e.rollBack(ctx, calendar.SourceLocal, deleted.Id)
			log.Errorf("failed to delete local event %s: %v", deleted.Id, err)
			return fmt.Errorf("failed to delete local event %s: %w", deleted.Id, err)
		}
	case StateEditingExternal:
		if e.external == nil {
			return ErrSourceUnavailable
		}
		deleted = e.normalizeExternal(*e.originalExternal)
		e.track(ctx, deleted, calendar.ChangeDelete)
		if err := e.external.DeleteExternalEvent(ctx, deleted.CalendarId, deleted.Id); err != nil {
			e.rollBack(ctx, calendar.SourceExternal, deleted.Id)
			log.Errorf("failed to delete external event %s: %v", deleted.Id, err)
			return fmt.Errorf("failed to delete external event %s: %w", deleted.Id, err)
		}
	}

	e.publish(event_bus.CalendarEventDeleted, deleted)
	e.close()
	return nil
}

func (e *Editor) normalizeLocal(rec calendar.LocalEventRecord) calendar.Event {
	ev, ok := calendar.NewNormalizer(e.draft.location()).NormalizeLocal(rec)
	if !ok {
		return calendar.Event{Id: rec.Id, Title: rec.Title, Source: calendar.SourceLocal, CalendarId: calendar.LocalCalendarId, Local: &rec}
	}
	return ev
}

func (e *Editor) normalizeExternal(rec calendar.ExternalEventRecord) calendar.Event {
	ev, ok := calendar.NewNormalizer(e.draft.location()).NormalizeExternal(rec)
	if !ok {
		return calendar.Event{Id: rec.Id, Title: rec.Summary, Source: calendar.SourceExternal, CalendarId: rec.CalendarId, External: &rec}
	}
	return ev
}

func (e *Editor) track(ctx context.Context, ev calendar.Event, kind calendar.ChangeKind) {
	if e.tracker != nil {
		e.tracker.TrackChange(ctx, ev, kind)
	}
}

func (e *Editor) rollBack(ctx context.Context, source calendar.SourceKind, id string) {
	if e.tracker != nil {
		e.tracker.RollBackChange(ctx, source, id)
	}
}

func (e *Editor) publish(eventType event_bus.EventType, ev calendar.Event) {
	if e.eventBus == nil {
		return
	}
	payload := event_bus.CalendarEventChanged{
		UserId:     e.userId,
		Source:     string(ev.Source),
		EventId:    ev.Id,
		CalendarId: ev.CalendarId,
	}
	// detached from the request context: the store call has already succeeded
	if err := e.eventBus.Publish(event_bus.NewEvent(context.Background(), eventType, payload)); err != nil {
		log.Errorf("failed to publish %s for event %s: %v", eventType, ev.Id, err)
	}
}

func assign(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}
