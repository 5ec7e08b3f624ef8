package event_draft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydesk/studydesk/pkg/calendar"
)

func ptr[T any](v T) *T {
	return &v
}

func wall(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestResolveTimeZone(t *testing.T) {
	t.Run("first known candidate wins", func(t *testing.T) {
		name, loc := ResolveTimeZone("", "Not/AZone", "Europe/Berlin", "Asia/Tokyo")
		assert.Equal(t, "Europe/Berlin", name)
		assert.Equal(t, "Europe/Berlin", loc.String())
	})

	t.Run("falls back to UTC", func(t *testing.T) {
		name, loc := ResolveTimeZone("", " ")
		assert.Equal(t, "UTC", name)
		assert.Equal(t, time.UTC, loc)
	})
}

func TestNewExternalDraft_TimeZonePrecedence(t *testing.T) {
	rec := calendar.ExternalEventRecord{
		Id:                "g1",
		Summary:           "Seminar",
		CalendarId:        "uni",
		Start:             calendar.EventDateTime{DateTime: "2024-03-04T14:00:00Z", TimeZone: "America/New_York"},
		End:               calendar.EventDateTime{DateTime: "2024-03-04T15:00:00Z", TimeZone: "America/New_York"},
		PrivateProperties: map[string]string{"timeZone": "Europe/Berlin"},
	}

	t.Run("start zone first", func(t *testing.T) {
		d, err := newExternalDraft(rec, "Asia/Tokyo")
		require.NoError(t, err)
		assert.Equal(t, "America/New_York", d.TimeZone)
		assert.Equal(t, 9, d.Start.Hour())
		assert.Equal(t, 10, d.End.Hour())
	})

	t.Run("then the private property", func(t *testing.T) {
		r := rec
		r.Start.TimeZone = ""
		d, err := newExternalDraft(r, "Asia/Tokyo")
		require.NoError(t, err)
		assert.Equal(t, "Europe/Berlin", d.TimeZone)
		assert.Equal(t, 15, d.Start.Hour())
	})

	t.Run("then the ambient zone", func(t *testing.T) {
		r := rec
		r.Start.TimeZone = ""
		r.PrivateProperties = nil
		d, err := newExternalDraft(r, "Asia/Tokyo")
		require.NoError(t, err)
		assert.Equal(t, "Asia/Tokyo", d.TimeZone)
		assert.Equal(t, 23, d.Start.Hour())
	})

	t.Run("then UTC", func(t *testing.T) {
		r := rec
		r.Start.TimeZone = ""
		r.PrivateProperties = nil
		d, err := newExternalDraft(r, "")
		require.NoError(t, err)
		assert.Equal(t, "UTC", d.TimeZone)
		assert.Equal(t, 14, d.Start.Hour())
	})
}

func TestDraft_SetTimeZoneKeepsWallClock(t *testing.T) {
	d := newCreateDraft(wall(2024, 3, 5, 0, 0), "Europe/Warsaw")
	d.setAllDay(false)

	require.NoError(t, d.setTimeZone("America/Chicago"))

	assert.Equal(t, "America/Chicago", d.TimeZone)
	assert.Equal(t, 9, d.Start.Hour())
	assert.Equal(t, 10, d.End.Hour())
	assert.Equal(t, "America/Chicago", d.Start.Location().String())

	assert.ErrorIs(t, d.setTimeZone("Mars/Olympus"), ErrInvalidTimeZone)
	assert.ErrorIs(t, d.setTimeZone(""), ErrInvalidTimeZone)
	assert.Equal(t, "America/Chicago", d.TimeZone)
}

func TestDraft_AllDayRoundTrip(t *testing.T) {
	t.Run("new all-day draft gets default hours", func(t *testing.T) {
		d := newCreateDraft(wall(2024, 3, 5, 0, 0), "UTC")
		require.True(t, d.AllDay)

		d.setAllDay(false)
		assert.Equal(t, wall(2024, 3, 5, 9, 0), d.Start)
		assert.Equal(t, wall(2024, 3, 5, 10, 0), d.End)
	})

	t.Run("times of day survive switching all-day on and off", func(t *testing.T) {
		d := newCreateDraft(wall(2024, 3, 5, 0, 0), "UTC")
		d.setAllDay(false)
		d.setStart(wall(2024, 3, 5, 13, 30))
		d.setEnd(wall(2024, 3, 5, 15, 0))

		d.setAllDay(true)
		assert.Equal(t, wall(2024, 3, 5, 0, 0), d.Start)
		assert.Equal(t, wall(2024, 3, 5, 0, 0), d.End)

		d.setAllDay(false)
		assert.Equal(t, wall(2024, 3, 5, 13, 30), d.Start)
		assert.Equal(t, wall(2024, 3, 5, 15, 0), d.End)
	})

	t.Run("midnight end does not cover the next day", func(t *testing.T) {
		d := newCreateDraft(wall(2024, 3, 5, 0, 0), "UTC")
		d.setAllDay(false)
		d.setStart(wall(2024, 3, 5, 22, 0))
		d.setEnd(wall(2024, 3, 6, 0, 0))

		d.setAllDay(true)
		assert.Equal(t, wall(2024, 3, 5, 0, 0), d.End)

		d.setAllDay(false)
		assert.Equal(t, wall(2024, 3, 5, 22, 0), d.Start)
		assert.Equal(t, wall(2024, 3, 6, 0, 0), d.End)
	})
}

func TestDraft_ExternalAllDayEnd(t *testing.T) {
	rec := calendar.ExternalEventRecord{
		Id:         "trip",
		Summary:    "Field trip",
		CalendarId: "uni",
		Start:      calendar.EventDateTime{Date: "2024-03-04"},
		End:        calendar.EventDateTime{Date: "2024-03-07"},
	}

	d, err := newExternalDraft(rec, "UTC")
	require.NoError(t, err)
	assert.True(t, d.AllDay)
	assert.Equal(t, wall(2024, 3, 6, 0, 0), d.End)

	t.Run("unchanged draft produces an empty patch", func(t *testing.T) {
		assert.True(t, d.externalPatch(rec).IsEmpty())
	})

	t.Run("end is written back exclusive", func(t *testing.T) {
		moved := d.clone()
		moved.setEnd(wall(2024, 3, 8, 0, 0))
		patch := moved.externalPatch(rec)
		require.NotNil(t, patch.Start)
		require.NotNil(t, patch.End)
		assert.Equal(t, "2024-03-04", patch.Start.Date)
		assert.Equal(t, "2024-03-09", patch.End.Date)
	})
}

func TestDraft_LocalPatchOmitsDisplayEnd(t *testing.T) {
	rec := calendar.LocalEventRecord{Id: "r1", Title: "Lecture", Date: "2024-03-04T09:00:00Z"}
	d, err := newLocalDraft(rec, "UTC")
	require.NoError(t, err)
	require.False(t, d.EndExplicit())
	assert.Equal(t, wall(2024, 3, 4, 10, 0), d.End)

	d.setStart(wall(2024, 3, 4, 11, 0))
	assert.Equal(t, wall(2024, 3, 4, 12, 0), d.End)

	patch := d.localPatch(rec)
	require.NotNil(t, patch.Date)
	assert.Equal(t, "2024-03-04T11:00:00Z", *patch.Date)
	assert.Nil(t, patch.EndDate)
	assert.Nil(t, patch.Title)
	assert.Nil(t, patch.AllDay)
}

func TestDraft_LocalAllDayEndIsInclusive(t *testing.T) {
	rec := calendar.LocalEventRecord{Id: "r2", Title: "Exam week", Date: "2024-03-04", EndDate: ptr("2024-03-06")}
	d, err := newLocalDraft(rec, "UTC")
	require.NoError(t, err)
	assert.True(t, d.AllDay)
	assert.Equal(t, wall(2024, 3, 6, 0, 0), d.End)
	assert.True(t, d.localPatch(rec).IsEmpty())

	d.setEnd(wall(2024, 3, 7, 0, 0))
	patch := d.localPatch(rec)
	require.NotNil(t, patch.EndDate)
	assert.Equal(t, "2024-03-07", *patch.EndDate)
}

func TestDraft_Validate(t *testing.T) {
	d := newCreateDraft(wall(2024, 3, 5, 0, 0), "UTC")
	assert.ErrorIs(t, d.validate(), ErrTitleRequired)

	d.Title = "Essay"
	assert.NoError(t, d.validate())

	d.setAllDay(false)
	d.setEnd(wall(2024, 3, 5, 8, 0))
	assert.ErrorIs(t, d.validate(), ErrEndBeforeStart)
}

func TestDraft_Attendees(t *testing.T) {
	d := Draft{
		Variant: VariantExternal,
		Attendees: []calendar.Attendee{
			{Email: "me@uni.edu", Self: true},
			{Email: "ann@uni.edu"},
		},
	}

	assert.ErrorIs(t, d.addAttendee("bob"), ErrInvalidAttendeeEmail)
	assert.ErrorIs(t, d.addAttendee("ann@uni.edu"), ErrDuplicateAttendee)

	require.NoError(t, d.addAttendee(" bob@uni.edu "))
	assert.Equal(t, calendar.Attendee{Email: "bob@uni.edu", ResponseStatus: "needsAction"}, d.Attendees[2])

	assert.ErrorIs(t, d.removeAttendee("me@uni.edu", ""), ErrCannotRemoveSelf)
	assert.ErrorIs(t, d.removeAttendee("carl@uni.edu", ""), ErrAttendeeNotFound)

	require.NoError(t, d.removeAttendee("ann@uni.edu", ""))
	assert.Equal(t, []string{"me@uni.edu", "bob@uni.edu"}, emails(d.Attendees))

	t.Run("the user's own address is protected without the self flag", func(t *testing.T) {
		d := Draft{Attendees: []calendar.Attendee{{Email: "Me@Uni.edu"}}}
		assert.ErrorIs(t, d.removeAttendee("Me@Uni.edu", "me@uni.edu"), ErrCannotRemoveSelf)
	})
}

func emails(attendees []calendar.Attendee) []string {
	var out []string
	for _, a := range attendees {
		out = append(out, a.Email)
	}
	return out
}
