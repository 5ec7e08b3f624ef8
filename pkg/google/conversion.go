package google

import (
	"github.com/studydesk/studydesk/pkg/calendar"
	gcal "google.golang.org/api/calendar/v3"
	gtasks "google.golang.org/api/tasks/v1"
)

const (
	eventStatusCancelled = "cancelled"
	taskStatusCompleted  = "completed"
)

func calendarName(entry *gcal.CalendarListEntry) string {
	if entry.SummaryOverride != "" {
		return entry.SummaryOverride
	}
	return entry.Summary
}

func toExternalCalendar(entry *gcal.CalendarListEntry) calendar.ExternalCalendar {
	return calendar.ExternalCalendar{
		Id:    entry.Id,
		Name:  calendarName(entry),
		Color: entry.BackgroundColor,
	}
}

func toEventDateTime(dt *gcal.EventDateTime) calendar.EventDateTime {
	if dt == nil {
		return calendar.EventDateTime{}
	}
	return calendar.EventDateTime{DateTime: dt.DateTime, Date: dt.Date, TimeZone: dt.TimeZone}
}

func toExternalRecord(e *gcal.Event, entry *gcal.CalendarListEntry) calendar.ExternalEventRecord {
	rec := calendar.ExternalEventRecord{
		Id:               e.Id,
		Summary:          e.Summary,
		Description:      e.Description,
		Location:         e.Location,
		Start:            toEventDateTime(e.Start),
		End:              toEventDateTime(e.End),
		Recurrence:       e.Recurrence,
		RecurringEventId: e.RecurringEventId,
		ColorId:          e.ColorId,
		CalendarId:       entry.Id,
		CalendarSummary:  calendarName(entry),
		CalendarColor:    entry.BackgroundColor,
		Visibility:       e.Visibility,
		Transparency:     e.Transparency,
	}
	for _, a := range e.Attendees {
		if a == nil {
			continue
		}
		rec.Attendees = append(rec.Attendees, calendar.Attendee{
			Email:          a.Email,
			DisplayName:    a.DisplayName,
			ResponseStatus: a.ResponseStatus,
			Optional:       a.Optional,
			Organizer:      a.Organizer,
			Self:           a.Self,
		})
	}
	if e.Reminders != nil {
		reminders := &calendar.Reminders{UseDefault: e.Reminders.UseDefault}
		for _, o := range e.Reminders.Overrides {
			reminders.Overrides = append(reminders.Overrides, calendar.Reminder{Method: o.Method, Minutes: o.Minutes})
		}
		rec.Reminders = reminders
	}
	if e.ExtendedProperties != nil && len(e.ExtendedProperties.Private) > 0 {
		rec.PrivateProperties = e.ExtendedProperties.Private
	}
	return rec
}

// fromEventDateTime clears the other representation so that switching between all-day and
// timed does not leave both Date and DateTime on the stored event.
func fromEventDateTime(dt *calendar.EventDateTime) *gcal.EventDateTime {
	out := &gcal.EventDateTime{DateTime: dt.DateTime, Date: dt.Date, TimeZone: dt.TimeZone}
	if dt.DateTime != "" {
		out.NullFields = append(out.NullFields, "Date")
	} else {
		out.NullFields = append(out.NullFields, "DateTime")
	}
	return out
}

// toPatchEvent builds a PATCH body carrying only the fields set on patch. Values that are
// empty on purpose are force-sent so that they clear the stored value.
func toPatchEvent(patch calendar.ExternalEventPatch) *gcal.Event {
	e := &gcal.Event{}
	if patch.Summary != nil {
		e.Summary = *patch.Summary
		e.ForceSendFields = append(e.ForceSendFields, "Summary")
	}
	if patch.Description != nil {
		e.Description = *patch.Description
		e.ForceSendFields = append(e.ForceSendFields, "Description")
	}
	if patch.Location != nil {
		e.Location = *patch.Location
		e.ForceSendFields = append(e.ForceSendFields, "Location")
	}
	if patch.Start != nil {
		e.Start = fromEventDateTime(patch.Start)
	}
	if patch.End != nil {
		e.End = fromEventDateTime(patch.End)
	}
	if patch.Recurrence != nil {
		e.Recurrence = append([]string{}, *patch.Recurrence...)
		e.ForceSendFields = append(e.ForceSendFields, "Recurrence")
	}
	if patch.ColorId != nil {
		e.ColorId = *patch.ColorId
		e.ForceSendFields = append(e.ForceSendFields, "ColorId")
	}
	if patch.Attendees != nil {
		e.Attendees = make([]*gcal.EventAttendee, 0, len(*patch.Attendees))
		for _, a := range *patch.Attendees {
			e.Attendees = append(e.Attendees, &gcal.EventAttendee{
				Email:          a.Email,
				DisplayName:    a.DisplayName,
				ResponseStatus: a.ResponseStatus,
				Optional:       a.Optional,
				Organizer:      a.Organizer,
				Self:           a.Self,
			})
		}
		e.ForceSendFields = append(e.ForceSendFields, "Attendees")
	}
	if patch.Visibility != nil {
		e.Visibility = *patch.Visibility
		e.ForceSendFields = append(e.ForceSendFields, "Visibility")
	}
	if patch.Transparency != nil {
		e.Transparency = *patch.Transparency
		e.ForceSendFields = append(e.ForceSendFields, "Transparency")
	}
	if patch.Reminders != nil {
		reminders := &gcal.EventReminders{
			UseDefault:      patch.Reminders.UseDefault,
			Overrides:       make([]*gcal.EventReminder, 0, len(patch.Reminders.Overrides)),
			ForceSendFields: []string{"UseDefault", "Overrides"},
		}
		for _, o := range patch.Reminders.Overrides {
			reminders.Overrides = append(reminders.Overrides, &gcal.EventReminder{
				Method:          o.Method,
				Minutes:         o.Minutes,
				ForceSendFields: []string{"Minutes"},
			})
		}
		e.Reminders = reminders
	}
	if len(patch.PrivateProperties) > 0 {
		e.ExtendedProperties = &gcal.EventExtendedProperties{Private: patch.PrivateProperties}
	}
	return e
}

// toTaskRecord maps a Google task. Google stores due dates as midnight UTC timestamps, only
// the date part is meaningful.
func toTaskRecord(t *gtasks.Task) calendar.TaskRecord {
	due := t.Due
	if len(due) > len("2006-01-02") {
		due = due[:len("2006-01-02")]
	}
	return calendar.TaskRecord{
		Id:        t.Id,
		Title:     t.Title,
		Due:       due,
		Completed: t.Status == taskStatusCompleted,
		Source:    calendar.SourceExternal,
	}
}
