package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestNormalizer_NormalizeLocal(t *testing.T) {
	n := NewNormalizer(time.UTC)

	t.Run("timed record without end gets a one hour duration", func(t *testing.T) {
		// given
		rec := LocalEventRecord{Id: "q1", Title: "Quiz 1", Date: "2024-03-04T09:00:00Z"}

		// when
		e, ok := n.NormalizeLocal(rec)

		// then
		require.True(t, ok)
		assert.False(t, e.AllDay)
		assert.True(t, e.Start.Equal(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)))
		assert.True(t, e.End.Equal(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)))
		assert.Equal(t, SourceLocal, e.Source)
		assert.Equal(t, LocalCalendarId, e.CalendarId)
		require.NotNil(t, e.Local)
		assert.Nil(t, e.Local.EndDate, "synthetic end must not leak into the original record")
		assert.Nil(t, e.External)
	})

	t.Run("date-only record without flag is all-day", func(t *testing.T) {
		e, ok := n.NormalizeLocal(LocalEventRecord{Id: "1", Title: "Exam week", Date: "2024-03-04", EndDate: ptr("2024-03-08")})

		require.True(t, ok)
		assert.True(t, e.AllDay)
		assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), e.Start)
		assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), e.End, "local end date is inclusive")
	})

	t.Run("explicit all-day flag wins over an instant", func(t *testing.T) {
		e, ok := n.NormalizeLocal(LocalEventRecord{Id: "1", Title: "Lecture", Date: "2024-03-04T15:30:00Z", AllDay: ptr(true)})

		require.True(t, ok)
		assert.True(t, e.AllDay)
		assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), e.Start)
		assert.Equal(t, e.Start, e.End)
	})

	t.Run("explicit timed flag on a date-only value", func(t *testing.T) {
		e, ok := n.NormalizeLocal(LocalEventRecord{Id: "1", Title: "Lab", Date: "2024-03-04", AllDay: ptr(false)})

		require.True(t, ok)
		assert.False(t, e.AllDay)
		assert.Equal(t, time.Hour, e.End.Sub(e.Start))
	})

	t.Run("unparseable end falls back to the default", func(t *testing.T) {
		e, ok := n.NormalizeLocal(LocalEventRecord{Id: "1", Title: "Seminar", Date: "2024-03-04T09:00", EndDate: ptr("soon")})

		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), e.End)
	})

	t.Run("empty title becomes Untitled", func(t *testing.T) {
		e, ok := n.NormalizeLocal(LocalEventRecord{Id: "1", Title: "  ", Date: "2024-03-04"})

		require.True(t, ok)
		assert.Equal(t, "Untitled", e.Title)
	})

	t.Run("unparseable start skips the record", func(t *testing.T) {
		_, ok := n.NormalizeLocal(LocalEventRecord{Id: "1", Title: "Broken", Date: "next tuesday"})

		assert.False(t, ok)
	})
}

func TestNormalizer_ZonelessInstantUsesLocation(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	n := NewNormalizer(warsaw)

	e, ok := n.NormalizeLocal(LocalEventRecord{Id: "1", Title: "Lecture", Date: "2024-03-04T09:00:00"})

	require.True(t, ok)
	assert.True(t, e.Start.Equal(time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)))
}

func TestNormalizer_NormalizeExternal(t *testing.T) {
	n := NewNormalizer(time.UTC)

	t.Run("date without dateTime is all-day with an exclusive end", func(t *testing.T) {
		// given
		rec := ExternalEventRecord{
			Id:         "g1",
			Summary:    "Holiday",
			Start:      EventDateTime{Date: "2024-03-05"},
			End:        EventDateTime{Date: "2024-03-06"},
			CalendarId: "primary",
		}

		// when
		e, ok := n.NormalizeExternal(rec)

		// then
		require.True(t, ok)
		assert.True(t, e.AllDay)
		assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), e.Start)
		assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), e.End)
		assert.True(t, OccursOn(e, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), time.UTC))
		assert.False(t, OccursOn(e, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), time.UTC))
	})

	t.Run("multi-day all-day event ends on its last covered day", func(t *testing.T) {
		e, ok := n.NormalizeExternal(ExternalEventRecord{
			Id:    "g2",
			Start: EventDateTime{Date: "2024-03-05"},
			End:   EventDateTime{Date: "2024-03-08"},
		})

		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), e.End)
	})

	t.Run("degenerate all-day range never ends before start", func(t *testing.T) {
		e, ok := n.NormalizeExternal(ExternalEventRecord{
			Id:    "g3",
			Start: EventDateTime{Date: "2024-03-05"},
			End:   EventDateTime{Date: "2024-03-05"},
		})

		require.True(t, ok)
		assert.Equal(t, e.Start, e.End)
	})

	t.Run("timed event keeps calendar metadata", func(t *testing.T) {
		e, ok := n.NormalizeExternal(ExternalEventRecord{
			Id:              "g4",
			Summary:         "Office hours",
			Start:           EventDateTime{DateTime: "2024-03-05T14:00:00+01:00"},
			End:             EventDateTime{DateTime: "2024-03-05T15:00:00+01:00"},
			CalendarId:      "uni",
			CalendarSummary: "University",
			CalendarColor:   "#ff0000",
		})

		require.True(t, ok)
		assert.False(t, e.AllDay)
		assert.True(t, e.Start.Equal(time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC)))
		assert.Equal(t, "University", e.CalendarName)
		assert.Equal(t, "#ff0000", e.CalendarColor)
		assert.Equal(t, SourceExternal, e.Source)
		assert.Empty(t, e.EventType)
		require.NotNil(t, e.External)
	})

	t.Run("missing end of a timed event defaults to one hour", func(t *testing.T) {
		e, ok := n.NormalizeExternal(ExternalEventRecord{Id: "g5", Start: EventDateTime{DateTime: "2024-03-05T14:00:00Z"}})

		require.True(t, ok)
		assert.Equal(t, time.Hour, e.End.Sub(e.Start))
		assert.Equal(t, "Untitled", e.Title)
	})

	t.Run("unparseable start skips only that record", func(t *testing.T) {
		events := n.NormalizeExternalAll([]ExternalEventRecord{
			{Id: "bad", Start: EventDateTime{DateTime: "garbage"}},
			{Id: "good", Start: EventDateTime{Date: "2024-03-05"}, End: EventDateTime{Date: "2024-03-06"}},
		})

		require.Len(t, events, 1)
		assert.Equal(t, "good", events[0].Id)
	})
}
