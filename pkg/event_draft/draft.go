package event_draft

import (
	"fmt"
	"strings"
	"time"

	"github.com/studydesk/studydesk/pkg/calendar"
)

type Variant string

const (
	VariantLocal    Variant = "local"
	VariantExternal Variant = "external"
)

// Draft is the editable form of one event. Start and End are wall-clock values in
// TimeZone; for all-day drafts only their dates count and End is the last covered day.
type Draft struct {
	Variant    Variant
	Id         string
	CalendarId string

	Title       string
	Description string
	Location    string

	AllDay   bool
	Start    time.Time
	End      time.Time
	TimeZone string

	Recurrence string
	// RecurrenceLocked is set for a single occurrence of an external series.
	RecurrenceLocked bool

	EventType string
	Course    string
	CourseId  string
	Weight    *float64
	Color     string

	ColorId      string
	Attendees    []calendar.Attendee
	Visibility   string
	Transparency string
	Reminders    *calendar.Reminders

	// endExplicit is false while End is only the display default of a record without an end.
	endExplicit  bool
	originalZone string
	// storedRecurrence is the rule as loaded from the store; it is not re-validated on save.
	storedRecurrence string
	startClock       *clockTime
	endClock         *clockTime
}

func (d *Draft) clone() Draft {
	c := *d
	c.Attendees = append([]calendar.Attendee(nil), d.Attendees...)
	if d.Weight != nil {
		w := *d.Weight
		c.Weight = &w
	}
	if d.Reminders != nil {
		r := *d.Reminders
		r.Overrides = append([]calendar.Reminder(nil), d.Reminders.Overrides...)
		c.Reminders = &r
	}
	return c
}

func (d *Draft) location() *time.Location {
	loc, err := loadZone(d.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (d *Draft) RecurrencePreset() Preset {
	return ClassifyRecurrence(d.Recurrence)
}

// EndExplicit reports whether End will be written back on save.
func (d *Draft) EndExplicit() bool {
	return d.endExplicit
}

// setAllDay converts between timed and all-day drafts. Switching on keeps the calendar
// dates and remembers the times of day; switching off restores them, or 09:00-10:00.
func (d *Draft) setAllDay(on bool) {
	if d.AllDay == on {
		return
	}
	if on {
		sc, ec := clockOf(d.Start), clockOf(d.End)
		d.startClock, d.endClock = &sc, &ec

		start, end := dateOf(d.Start), dateOf(d.End)
		if ec == (clockTime{}) && end.After(start) {
			end = end.AddDate(0, 0, -1)
		}
		if end.Before(start) {
			end = start
		}
		d.Start, d.End, d.AllDay = start, end, true
		return
	}

	sc := clockTime{hour: defaultStartHour}
	ec := clockTime{hour: defaultEndHour}
	if d.startClock != nil && d.endClock != nil {
		sc, ec = *d.startClock, *d.endClock
		if *d.endClock == (clockTime{}) {
			// the remembered end was midnight after the last covered day
			d.End = d.End.AddDate(0, 0, 1)
		}
	}
	start, end := sc.on(d.Start), ec.on(d.End)
	if end.Before(start) {
		end = start.Add(time.Hour)
	}
	d.Start, d.End, d.AllDay = start, end, false
	d.startClock, d.endClock = nil, nil
}

func (d *Draft) setTimeZone(name string) error {
	loc, err := loadZone(name)
	if err != nil {
		return err
	}
	d.TimeZone = name
	d.Start = repoint(d.Start, loc)
	d.End = repoint(d.End, loc)
	return nil
}

func (d *Draft) setStart(t time.Time) {
	start := repoint(t, d.location())
	if d.AllDay {
		start = dateOf(start)
	}
	d.Start = start
	if !d.endExplicit {
		d.End = defaultEnd(start, d.AllDay)
	}
}

func (d *Draft) setEnd(t time.Time) {
	end := repoint(t, d.location())
	if d.AllDay {
		end = dateOf(end)
	}
	d.End = end
	d.endExplicit = true
}

func (d *Draft) setRecurrence(rule string) error {
	if d.RecurrenceLocked {
		return ErrRecurrenceLocked
	}
	if err := ValidateRecurrence(rule); err != nil {
		return err
	}
	d.Recurrence = normalizeRule(rule)
	return nil
}

// validate runs every check that must pass before the draft reaches a store.
func (d *Draft) validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if d.End.Before(d.Start) {
		return fmt.Errorf("%w: %s < %s", ErrEndBeforeStart, d.End, d.Start)
	}
	if !d.RecurrenceLocked && d.Recurrence != d.storedRecurrence {
		if err := ValidateRecurrence(d.Recurrence); err != nil {
			return err
		}
	}
	for _, a := range d.Attendees {
		if !strings.Contains(a.Email, "@") {
			return fmt.Errorf("%w: %q", ErrInvalidAttendeeEmail, a.Email)
		}
	}
	return nil
}

func defaultEnd(start time.Time, allDay bool) time.Time {
	if allDay {
		return start
	}
	return start.Add(time.Hour)
}
