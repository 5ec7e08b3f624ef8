package google

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydesk/studydesk/pkg/calendar"
	gcal "google.golang.org/api/calendar/v3"
	gtasks "google.golang.org/api/tasks/v1"
)

var lectures = &gcal.CalendarListEntry{
	Id:              "lectures@group.calendar.google.com",
	Summary:         "Lectures",
	SummaryOverride: "Uni lectures",
	BackgroundColor: "#0b8043",
}

func ptr[T any](v T) *T {
	return &v
}

func TestToExternalRecord(t *testing.T) {
	// given
	event := &gcal.Event{
		Id:               "abc_20240304",
		Summary:          "Algebra",
		Location:         "Room 101",
		Start:            &gcal.EventDateTime{DateTime: "2024-03-04T10:00:00+01:00", TimeZone: "Europe/Warsaw"},
		End:              &gcal.EventDateTime{DateTime: "2024-03-04T11:30:00+01:00", TimeZone: "Europe/Warsaw"},
		RecurringEventId: "abc",
		Attendees: []*gcal.EventAttendee{
			{Email: "prof@uni.edu", Organizer: true, ResponseStatus: "accepted"},
			nil,
			{Email: "me@uni.edu", Self: true},
		},
		Reminders:          &gcal.EventReminders{Overrides: []*gcal.EventReminder{{Method: "popup", Minutes: 10}}},
		ExtendedProperties: &gcal.EventExtendedProperties{Private: map[string]string{"timeZone": "Europe/Warsaw"}},
	}

	// when
	rec := toExternalRecord(event, lectures)

	// then
	assert.Equal(t, "abc_20240304", rec.Id)
	assert.Equal(t, "Uni lectures", rec.CalendarSummary)
	assert.Equal(t, "#0b8043", rec.CalendarColor)
	assert.Equal(t, lectures.Id, rec.CalendarId)
	assert.Equal(t, calendar.EventDateTime{DateTime: "2024-03-04T10:00:00+01:00", TimeZone: "Europe/Warsaw"}, rec.Start)
	assert.Equal(t, "abc", rec.RecurringEventId)
	assert.Equal(t, []calendar.Attendee{
		{Email: "prof@uni.edu", Organizer: true, ResponseStatus: "accepted"},
		{Email: "me@uni.edu", Self: true},
	}, rec.Attendees)
	assert.Equal(t, &calendar.Reminders{Overrides: []calendar.Reminder{{Method: "popup", Minutes: 10}}}, rec.Reminders)
	assert.Equal(t, "Europe/Warsaw", rec.PrivateProperties["timeZone"])
}

func TestToExternalRecord_AllDayWithoutOptionalParts(t *testing.T) {
	event := &gcal.Event{
		Id:    "exam",
		Start: &gcal.EventDateTime{Date: "2024-03-04"},
		End:   &gcal.EventDateTime{Date: "2024-03-05"},
	}

	rec := toExternalRecord(event, &gcal.CalendarListEntry{Id: "primary", Summary: "Me"})

	assert.Equal(t, "Me", rec.CalendarSummary)
	assert.Equal(t, calendar.EventDateTime{Date: "2024-03-05"}, rec.End)
	assert.Nil(t, rec.Reminders)
	assert.Nil(t, rec.PrivateProperties)
	assert.Empty(t, rec.Attendees)
}

func patchJSON(t *testing.T, patch calendar.ExternalEventPatch) map[string]any {
	body, err := json.Marshal(toPatchEvent(patch))
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))
	return fields
}

func TestToPatchEvent(t *testing.T) {
	t.Run("only set fields are sent", func(t *testing.T) {
		fields := patchJSON(t, calendar.ExternalEventPatch{Summary: ptr("Algebra II")})

		assert.Equal(t, map[string]any{"summary": "Algebra II"}, fields)
	})

	t.Run("empty values clear the stored ones", func(t *testing.T) {
		fields := patchJSON(t, calendar.ExternalEventPatch{
			Description: ptr(""),
			Recurrence:  &[]string{},
			Attendees:   &[]calendar.Attendee{},
		})

		assert.Equal(t, "", fields["description"])
		assert.Equal(t, []any{}, fields["recurrence"])
		assert.Equal(t, []any{}, fields["attendees"])
	})

	t.Run("switching to all-day nulls the date-time", func(t *testing.T) {
		fields := patchJSON(t, calendar.ExternalEventPatch{
			Start: &calendar.EventDateTime{Date: "2024-03-04"},
			End:   &calendar.EventDateTime{Date: "2024-03-05"},
		})

		assert.Equal(t, map[string]any{"date": "2024-03-04", "dateTime": nil}, fields["start"])
		assert.Equal(t, map[string]any{"date": "2024-03-05", "dateTime": nil}, fields["end"])
	})

	t.Run("timed endpoints null the date", func(t *testing.T) {
		fields := patchJSON(t, calendar.ExternalEventPatch{
			Start: &calendar.EventDateTime{DateTime: "2024-03-04T10:00:00+01:00", TimeZone: "Europe/Warsaw"},
		})

		assert.Equal(t, map[string]any{
			"date":     nil,
			"dateTime": "2024-03-04T10:00:00+01:00",
			"timeZone": "Europe/Warsaw",
		}, fields["start"])
	})

	t.Run("reminders without default are sent explicitly", func(t *testing.T) {
		fields := patchJSON(t, calendar.ExternalEventPatch{
			Reminders: &calendar.Reminders{Overrides: []calendar.Reminder{{Method: "popup", Minutes: 0}}},
		})

		assert.Equal(t, map[string]any{
			"useDefault": false,
			"overrides":  []any{map[string]any{"method": "popup", "minutes": float64(0)}},
		}, fields["reminders"])
	})

	t.Run("private properties", func(t *testing.T) {
		fields := patchJSON(t, calendar.ExternalEventPatch{
			PrivateProperties: map[string]string{"timeZone": "Asia/Tokyo"},
		})

		assert.Equal(t, map[string]any{"private": map[string]any{"timeZone": "Asia/Tokyo"}}, fields["extendedProperties"])
	})
}

func TestToTaskRecord(t *testing.T) {
	rec := toTaskRecord(&gtasks.Task{Id: "t1", Title: "Read chapter 3", Due: "2024-03-05T00:00:00.000Z", Status: "completed"})

	assert.Equal(t, calendar.TaskRecord{
		Id:        "t1",
		Title:     "Read chapter 3",
		Due:       "2024-03-05",
		Completed: true,
		Source:    calendar.SourceExternal,
	}, rec)

	open := toTaskRecord(&gtasks.Task{Id: "t2", Title: "Lab report", Status: "needsAction"})
	assert.False(t, open.Completed)
	assert.Empty(t, open.Due)
}
