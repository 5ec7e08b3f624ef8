package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydesk/studydesk/internal/config"
	"github.com/studydesk/studydesk/internal/event_bus"
	"github.com/studydesk/studydesk/internal/utils"
	"github.com/studydesk/studydesk/pkg/user"
)

var testUser = user.User{
	Id:       1,
	Username: "student",
	Settings: user.Settings{Timezone: "UTC", WeekFirstDay: time.Monday},
}

var testCalendarConfig = config.Calendar{
	HourHeight:       48,
	MinEventHeight:   20,
	LocalSourceName:  "Study planner",
	LocalSourceColor: "#4f46e5",
}

type serviceFixture struct {
	service  *ServiceImpl
	local    *StubLocalSource
	external *StubExternalSource
	tasks    *StubTaskSource
	bus      *event_bus.EventBus
	clock    *utils.MockClock
	ctx      context.Context
}

func setupService(t *testing.T) serviceFixture {
	t.Helper()
	f := serviceFixture{
		local: &StubLocalSource{Records: []LocalEventRecord{
			{Id: "quiz-1", Title: "Quiz 1", Date: "2024-03-04T09:00:00Z"},
			{Id: "exam-week", Title: "Exam week", Date: "2024-03-04", EndDate: ptr("2024-03-06")},
		}},
		external: &StubExternalSource{
			Events: []ExternalEventRecord{
				{
					Id:         "g-quiz",
					Summary:    "Pop quiz",
					Start:      EventDateTime{DateTime: "2024-03-04T08:00:00Z"},
					End:        EventDateTime{DateTime: "2024-03-04T08:30:00Z"},
					CalendarId: "uni",
				},
			},
			Calendars: []ExternalCalendar{{Id: "uni", Name: "University", Color: "#ff0000"}},
		},
		tasks: &StubTaskSource{Tasks: []TaskRecord{
			{Id: "t1", Title: "Read chapter 3", Due: "2024-03-04"},
			{Id: "t2", Title: "Essay", Due: "2024-03-01"},
			{Id: "t3", Title: "Flashcards", Completed: true},
		}},
		bus:   event_bus.NewEventBus(),
		clock: &utils.MockClock{FixedNow: at(4, 10, 0)},
		ctx:   user.WithUser(context.Background(), testUser),
	}
	f.service = NewService(f.local, f.external, []TaskSource{f.tasks}, f.clock, testCalendarConfig, f.bus)
	return f
}

func cellFor(t *testing.T, view View, d time.Time) DayCell {
	t.Helper()
	for _, cell := range view.Days {
		if cell.Date.Equal(d) {
			return cell
		}
	}
	t.Fatalf("no cell for %s", d)
	return DayCell{}
}

func TestService_View(t *testing.T) {
	t.Run("merges both sources into the month grid", func(t *testing.T) {
		// given
		f := setupService(t)

		// when
		view, err := f.service.View(f.ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, ModeMonth, view.State.Mode)
		assert.Equal(t, time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC), view.RangeStart)
		assert.Equal(t, day(31), view.RangeEnd)
		assert.Len(t, view.Days, 35)
		assert.Empty(t, view.Columns)
		assert.Equal(t, []string{"exam-week", "g-quiz", "quiz-1"}, ids(cellFor(t, view, day(4)).Events))
		assert.Equal(t, []string{"exam-week"}, ids(cellFor(t, view, day(6)).Events))
		assert.Equal(t, view.RangeStart, f.external.LastFrom)
		assert.Equal(t, day(31).AddDate(0, 0, 1), f.external.LastTo)
	})

	t.Run("failing external source leaves local events", func(t *testing.T) {
		f := setupService(t)
		f.external.Err = errors.New("google is down")

		view, err := f.service.View(f.ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"exam-week", "quiz-1"}, ids(cellFor(t, view, day(4)).Events))
	})

	t.Run("failing local source leaves external events", func(t *testing.T) {
		f := setupService(t)
		f.local.Err = errors.New("db is down")

		view, err := f.service.View(f.ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"g-quiz"}, ids(cellFor(t, view, day(4)).Events))
	})

	t.Run("task summary ignores failing sources", func(t *testing.T) {
		f := setupService(t)
		f.service.tasks = append(f.service.tasks, &StubTaskSource{Err: errors.New("tasks api down")})

		view, err := f.service.View(f.ctx)

		require.NoError(t, err)
		assert.Equal(t, TaskSummary{Total: 3, Completed: 1, Open: 2, DueToday: 1, Overdue: 1}, view.Tasks)
	})

	t.Run("day mode lays out the time grid", func(t *testing.T) {
		f := setupService(t)

		view, err := f.service.SelectDay(f.ctx, day(4))

		require.NoError(t, err)
		assert.Equal(t, ModeDay, view.State.Mode)
		require.Len(t, view.Columns, 1)
		column := view.Columns[0]
		assert.Equal(t, []string{"exam-week"}, ids(column.AllDay))
		require.Len(t, column.Timed, 2)
		assert.Equal(t, "g-quiz", column.Timed[0].Event.Id)
		assert.InDelta(t, 384, column.Timed[0].Top, 0.0001)
		assert.InDelta(t, 24, column.Timed[0].Height, 0.0001)
		assert.InDelta(t, 1152, view.ColumnHeight, 0.0001)
	})

	t.Run("requires a user", func(t *testing.T) {
		f := setupService(t)

		_, err := f.service.View(context.Background())

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestService_FollowsUserSettings(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// given
	f := setupService(t)
	_, err = f.service.View(f.ctx)
	require.NoError(t, err)
	moved := testUser
	moved.Settings = user.Settings{Timezone: "Asia/Tokyo", WeekFirstDay: time.Sunday}
	ctx := user.WithUser(context.Background(), moved)

	// when
	view, err := f.service.View(ctx)

	// then
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 2, 25, 0, 0, 0, 0, tokyo).Equal(view.RangeStart), "range starts %s", view.RangeStart)
	assert.Equal(t, time.Sunday, view.RangeStart.In(tokyo).Weekday())
	assert.Contains(t, ids(cellFor(t, view, time.Date(2024, 3, 4, 0, 0, 0, 0, tokyo)).Events), "g-quiz")
	assert.Equal(t, 2, f.local.CallCount())
	assert.Equal(t, 2, f.external.CallCount())
	assert.Equal(t, "Asia/Tokyo", f.service.sessions[testUser.Id].zone().String())

	t.Run("unchanged settings keep the cache", func(t *testing.T) {
		_, err := f.service.View(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, f.local.CallCount())
		assert.Equal(t, 2, f.external.CallCount())
	})
}

func TestService_Caching(t *testing.T) {
	t.Run("reuses fetched events until a saved event invalidates the source", func(t *testing.T) {
		// given
		f := setupService(t)
		_, err := f.service.View(f.ctx)
		require.NoError(t, err)
		_, err = f.service.View(f.ctx)
		require.NoError(t, err)
		require.Equal(t, 1, f.local.CallCount())
		require.Equal(t, 1, f.external.CallCount())

		// when
		f.local.SetRecords([]LocalEventRecord{{Id: "new", Title: "New", Date: "2024-03-04T12:00:00Z"}})
		err = f.bus.Publish(event_bus.NewEvent(f.ctx, event_bus.CalendarEventSaved, event_bus.CalendarEventChanged{
			UserId: testUser.Id,
			Source: string(SourceLocal),
		}))
		require.NoError(t, err)
		view, err := f.service.View(f.ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, f.local.CallCount())
		assert.Equal(t, 1, f.external.CallCount())
		assert.Equal(t, []string{"g-quiz", "new"}, ids(cellFor(t, view, day(4)).Events))
	})

	t.Run("navigating to another month fetches it", func(t *testing.T) {
		f := setupService(t)
		_, err := f.service.View(f.ctx)
		require.NoError(t, err)

		_, err = f.service.Next(f.ctx)
		require.NoError(t, err)
		_, err = f.service.Prev(f.ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, f.external.CallCount())
		assert.Equal(t, 1, f.local.CallCount())
	})

	t.Run("periodic refresh drops external events", func(t *testing.T) {
		f := setupService(t)
		_, err := f.service.View(f.ctx)
		require.NoError(t, err)

		f.service.RefreshExternal()
		_, err = f.service.View(f.ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, f.external.CallCount())
	})

	t.Run("failed fetch is retried", func(t *testing.T) {
		f := setupService(t)
		f.external.Err = errors.New("timeout")
		_, err := f.service.View(f.ctx)
		require.NoError(t, err)

		f.external.Err = nil
		view, err := f.service.View(f.ctx)

		require.NoError(t, err)
		assert.Contains(t, ids(cellFor(t, view, day(4)).Events), "g-quiz")
	})
}

func TestService_PendingChanges(t *testing.T) {
	// given
	f := setupService(t)
	_, err := f.service.View(f.ctx)
	require.NoError(t, err)
	original, err := f.service.FindEvent(f.ctx, SourceLocal, "quiz-1")
	require.NoError(t, err)
	edited := original
	edited.Title = "Quiz 1 (moved)"
	edited.Start = at(5, 9, 0)
	edited.End = at(5, 10, 0)

	// when
	f.service.TrackChange(f.ctx, edited, ChangeUpsert)
	optimistic, err := f.service.View(f.ctx)
	require.NoError(t, err)

	// then
	assert.NotContains(t, ids(cellFor(t, optimistic, day(4)).Events), "quiz-1")
	assert.Contains(t, ids(cellFor(t, optimistic, day(5)).Events), "quiz-1")

	// when the store confirms and the refetch returns the authoritative record
	f.local.SetRecords([]LocalEventRecord{{Id: "quiz-1", Title: "Quiz 1 (moved)", Date: "2024-03-05T09:30:00Z"}})
	require.NoError(t, f.bus.Publish(event_bus.NewEvent(f.ctx, event_bus.CalendarEventSaved, event_bus.CalendarEventChanged{
		UserId:  testUser.Id,
		Source:  string(SourceLocal),
		EventId: "quiz-1",
	})))
	confirmed, err := f.service.View(f.ctx)
	require.NoError(t, err)

	// then the authoritative start wins
	e, err := f.service.FindEvent(f.ctx, SourceLocal, "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, at(5, 9, 30), e.Start)
	assert.Contains(t, ids(cellFor(t, confirmed, day(5)).Events), "quiz-1")
	assert.Zero(t, f.service.sessions[testUser.Id].pending.Len())
}

func TestService_RollBackChange(t *testing.T) {
	f := setupService(t)
	_, err := f.service.View(f.ctx)
	require.NoError(t, err)
	e, err := f.service.FindEvent(f.ctx, SourceExternal, "g-quiz")
	require.NoError(t, err)

	f.service.TrackChange(f.ctx, e, ChangeDelete)
	hidden, err := f.service.View(f.ctx)
	require.NoError(t, err)
	f.service.RollBackChange(f.ctx, SourceExternal, "g-quiz")
	restored, err := f.service.View(f.ctx)
	require.NoError(t, err)

	assert.NotContains(t, ids(cellFor(t, hidden, day(4)).Events), "g-quiz")
	assert.Contains(t, ids(cellFor(t, restored, day(4)).Events), "g-quiz")
}

func TestService_SourcesAndSearch(t *testing.T) {
	t.Run("search with external hidden returns local matches only", func(t *testing.T) {
		// given
		f := setupService(t)
		_, err := f.service.SetSourceVisible(f.ctx, "uni", false)
		require.NoError(t, err)

		// when
		result, err := f.service.Search(f.ctx, "QUIZ")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"quiz-1"}, ids(result))
	})

	t.Run("hidden local source", func(t *testing.T) {
		f := setupService(t)
		sources, err := f.service.SetSourceVisible(f.ctx, LocalCalendarId, false)
		require.NoError(t, err)

		result, err := f.service.Search(f.ctx, "quiz")

		require.NoError(t, err)
		assert.Equal(t, []string{"g-quiz"}, ids(result))
		require.Len(t, sources, 2)
		assert.False(t, sources[0].Selected)
		assert.True(t, sources[1].Selected)
	})

	t.Run("unknown calendar", func(t *testing.T) {
		f := setupService(t)

		_, err := f.service.SetSourceVisible(f.ctx, "nope", true)

		assert.ErrorIs(t, err, ErrUnknownCalendar)
	})

	t.Run("find missing event", func(t *testing.T) {
		f := setupService(t)

		_, err := f.service.FindEvent(f.ctx, SourceLocal, "g-quiz")

		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestService_VisibleEventsAndExport(t *testing.T) {
	f := setupService(t)
	_, err := f.service.SelectDay(f.ctx, day(6))
	require.NoError(t, err)

	from, to, events, err := f.service.VisibleEvents(f.ctx)
	require.NoError(t, err)
	ics, err := f.service.ExportICS(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, day(6), from)
	assert.Equal(t, day(6), to)
	assert.Equal(t, []string{"exam-week"}, ids(events))
	assert.Contains(t, ics, "SUMMARY:Exam week")
	assert.NotContains(t, ics, "Quiz 1")
}
