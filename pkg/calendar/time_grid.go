package calendar

import (
	"time"
)

const hoursPerDay = 24

// TimeGrid computes the geometry of timed events inside a 24-row day column.
// Overlapping events get the same horizontal slot; there is no column packing.
type TimeGrid struct {
	HourHeight       float64
	MinVisibleHeight float64
}

type Placement struct {
	Event  Event
	Top    float64
	Height float64
}

type DayColumn struct {
	Date   time.Time
	AllDay []Event
	Timed  []Placement
}

// ColumnHeight is the pixel height of the whole day column.
func (g TimeGrid) ColumnHeight() float64 {
	return hoursPerDay * g.HourHeight
}

// Place positions e inside the column starting at columnStart. The part of the event
// outside the column is clipped first; the height never drops below MinVisibleHeight.
func (g TimeGrid) Place(columnStart time.Time, e Event) Placement {
	columnEnd := columnStart.AddDate(0, 0, 1)

	start := e.Start
	if start.Before(columnStart) {
		start = columnStart
	}
	end := e.End
	if end.After(columnEnd) {
		end = columnEnd
	}

	top := start.Sub(columnStart).Minutes() / 60 * g.HourHeight
	height := end.Sub(start).Minutes() / 60 * g.HourHeight
	if height < g.MinVisibleHeight {
		height = g.MinVisibleHeight
	}
	return Placement{Event: e, Top: top, Height: height}
}

// LayoutDay splits the day's events into the all-day strip and the timed grid.
// events must already be members of day.
func (g TimeGrid) LayoutDay(day time.Time, loc *time.Location, events []Event) DayColumn {
	columnStart, _ := DayBounds(day, loc)
	column := DayColumn{Date: columnStart}
	for _, e := range events {
		if e.AllDay {
			column.AllDay = append(column.AllDay, e)
			continue
		}
		column.Timed = append(column.Timed, g.Place(columnStart, e))
	}
	return column
}
