package calendar

import (
	"sort"
	"time"

	"github.com/studydesk/studydesk/internal/utils"
)

// DayBounds returns the first and the last instant of day in loc.
func DayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	start := utils.StartOfDay(day, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// OccursOn reports whether e overlaps day. The test is inclusive on both ends, so
// multi-day events are members of every day they touch.
func OccursOn(e Event, day time.Time, loc *time.Location) bool {
	dayStart, dayEnd := DayBounds(day, loc)
	return !e.Start.After(dayEnd) && !e.End.Before(dayStart)
}

// EventsForDay applies the membership test to each source separately, concatenates the
// results in source order and sorts all-day events first, then by start.
func EventsForDay(day time.Time, loc *time.Location, sources ...[]Event) []Event {
	var members []Event
	for _, events := range sources {
		for _, e := range events {
			if OccursOn(e, day, loc) {
				members = append(members, e)
			}
		}
	}
	SortForDisplay(members)
	return members
}

// SortForDisplay orders all-day events before timed ones and each group by ascending start.
// Equal keys keep their discovery order.
func SortForDisplay(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].AllDay != events[j].AllDay {
			return events[i].AllDay
		}
		return events[i].Start.Before(events[j].Start)
	})
}

// Days lists each calendar day of [from, to] in loc.
func Days(from, to time.Time, loc *time.Location) []time.Time {
	var days []time.Time
	last := utils.StartOfDay(to, loc)
	for d := utils.StartOfDay(from, loc); !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

type DayCell struct {
	Date   time.Time
	Events []Event
}

// BucketByDay builds one cell per day of [from, to].
func BucketByDay(from, to time.Time, loc *time.Location, sources ...[]Event) []DayCell {
	days := Days(from, to, loc)
	cells := make([]DayCell, 0, len(days))
	for _, d := range days {
		cells = append(cells, DayCell{Date: d, Events: EventsForDay(d, loc, sources...)})
	}
	return cells
}
