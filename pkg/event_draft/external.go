package event_draft

import (
	"fmt"
	"slices"
	"time"

	"github.com/studydesk/studydesk/pkg/calendar"
)

var (
	visibilityValues   = []string{"default", "public", "private", "confidential"}
	transparencyValues = []string{"opaque", "transparent"}
	reminderMethods    = []string{"email", "popup"}
)

// newExternalDraft hydrates a draft from a synced calendar record. The all-day end is
// converted from the exclusive end date to the last covered day.
func newExternalDraft(rec calendar.ExternalEventRecord, ambientZone string) (Draft, error) {
	zone, loc := ResolveTimeZone(externalZoneCandidates(rec, ambientZone)...)
	e, ok := calendar.NewNormalizer(loc).NormalizeExternal(rec)
	if !ok {
		return Draft{}, fmt.Errorf("%w: external event %s", calendar.ErrUnparseableDate, rec.Id)
	}

	d := Draft{
		Variant:          VariantExternal,
		Id:               rec.Id,
		CalendarId:       rec.CalendarId,
		Title:            rec.Summary,
		Description:      rec.Description,
		Location:         rec.Location,
		AllDay:           e.AllDay,
		Start:            e.Start.In(loc),
		End:              e.End.In(loc),
		TimeZone:         zone,
		Recurrence:       joinRecurrence(rec.Recurrence),
		RecurrenceLocked: rec.RecurringEventId != "",
		ColorId:          rec.ColorId,
		Attendees:        append([]calendar.Attendee(nil), rec.Attendees...),
		Visibility:       rec.Visibility,
		Transparency:     rec.Transparency,
		endExplicit:      rec.End.DateTime != "" || rec.End.Date != "",
		originalZone:     zone,
	}
	d.storedRecurrence = d.Recurrence
	if rec.Reminders != nil {
		r := *rec.Reminders
		r.Overrides = append([]calendar.Reminder(nil), rec.Reminders.Overrides...)
		d.Reminders = &r
	}
	return d, nil
}

// externalTimes serializes start and end. All-day drafts get an exclusive end date.
func (d *Draft) externalTimes() (calendar.EventDateTime, calendar.EventDateTime) {
	if d.AllDay {
		return calendar.EventDateTime{Date: d.Start.Format(dateLayout)},
			calendar.EventDateTime{Date: d.End.AddDate(0, 0, 1).Format(dateLayout)}
	}
	return calendar.EventDateTime{DateTime: d.Start.Format(time.RFC3339), TimeZone: d.TimeZone},
		calendar.EventDateTime{DateTime: d.End.Format(time.RFC3339), TimeZone: d.TimeZone}
}

// externalPatch lists the fields of the draft that differ from original.
func (d *Draft) externalPatch(original calendar.ExternalEventRecord) calendar.ExternalEventPatch {
	var p calendar.ExternalEventPatch
	p.Summary = changed(original.Summary, d.Title)
	p.Description = changed(original.Description, d.Description)
	p.Location = changed(original.Location, d.Location)

	start, end := d.externalTimes()
	startChanged := !d.sameEndpoint(original.Start, start)
	endChanged := d.endExplicit && !d.sameEndpoint(original.End, end)
	if startChanged || endChanged {
		p.Start, p.End = &start, &end
	}

	if !d.RecurrenceLocked && joinRecurrence(original.Recurrence) != d.Recurrence {
		rules := splitRecurrence(d.Recurrence)
		p.Recurrence = &rules
	}
	p.ColorId = changed(original.ColorId, d.ColorId)
	if !slices.Equal(original.Attendees, d.Attendees) {
		attendees := append([]calendar.Attendee{}, d.Attendees...)
		p.Attendees = &attendees
	}
	p.Visibility = changed(original.Visibility, d.Visibility)
	p.Transparency = changed(original.Transparency, d.Transparency)
	if !sameReminders(original.Reminders, d.Reminders) && d.Reminders != nil {
		r := *d.Reminders
		p.Reminders = &r
	}
	if d.TimeZone != d.originalZone {
		p.PrivateProperties = map[string]string{timeZoneProperty: d.TimeZone}
	}
	return p
}

// sameEndpoint compares by meaning: same date, or same instant in the same zone.
func (d *Draft) sameEndpoint(original, desired calendar.EventDateTime) bool {
	if desired.Date != "" {
		return original.DateTime == "" && original.Date == desired.Date
	}
	if original.DateTime == "" {
		return false
	}
	n := calendar.NewNormalizer(d.location())
	a, errA := n.ParseInstant(original.DateTime)
	b, errB := n.ParseInstant(desired.DateTime)
	if errA != nil || errB != nil || !a.Equal(b) {
		return false
	}
	originalZone := original.TimeZone
	if originalZone == "" {
		originalZone = d.originalZone
	}
	return originalZone == desired.TimeZone
}

func sameReminders(a, b *calendar.Reminders) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UseDefault == b.UseDefault && slices.Equal(a.Overrides, b.Overrides)
}

func validateReminders(r calendar.Reminders) error {
	if r.UseDefault && len(r.Overrides) > 0 {
		return fmt.Errorf("%w: reminders cannot use defaults and overrides together", ErrInvalidValue)
	}
	for _, o := range r.Overrides {
		if !slices.Contains(reminderMethods, o.Method) {
			return fmt.Errorf("%w: reminder method %q", ErrInvalidValue, o.Method)
		}
		if o.Minutes < 0 || o.Minutes > 40320 {
			return fmt.Errorf("%w: reminder minutes %d", ErrInvalidValue, o.Minutes)
		}
	}
	return nil
}
