package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/studydesk/studydesk/internal/utils"
)

type Mode string

const (
	ModeMonth Mode = "month"
	ModeWeek  Mode = "week"
	ModeDay   Mode = "day"
)

var ErrUnknownMode = fmt.Errorf("unknown view mode")

func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeMonth:
		return ModeMonth, nil
	case ModeWeek:
		return ModeWeek, nil
	case ModeDay:
		return ModeDay, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
}

// MonthKey identifies the visible month. External fetches are cached per key.
type MonthKey struct {
	Year  int
	Month time.Month
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

type ViewState struct {
	Anchor time.Time `json:"anchor"`
	Mode   Mode      `json:"mode"`
}

// ViewNavigator owns the anchor date and the display mode. The anchor is always midnight
// in Location.
type ViewNavigator struct {
	anchor    time.Time
	mode      Mode
	weekStart time.Weekday
	location  *time.Location
	clock     utils.Clock
}

func NewViewNavigator(clock utils.Clock, loc *time.Location, weekStart time.Weekday) *ViewNavigator {
	if loc == nil {
		loc = time.UTC
	}
	return &ViewNavigator{
		anchor:    utils.StartOfDay(clock.Now(), loc),
		mode:      ModeMonth,
		weekStart: weekStart,
		location:  loc,
		clock:     clock,
	}
}

func (n *ViewNavigator) State() ViewState {
	return ViewState{Anchor: n.anchor, Mode: n.mode}
}

func (n *ViewNavigator) Anchor() time.Time {
	return n.anchor
}

func (n *ViewNavigator) Mode() Mode {
	return n.mode
}

func (n *ViewNavigator) Location() *time.Location {
	return n.location
}

// Reconfigure switches the zone and the week start. The anchor keeps its calendar date.
func (n *ViewNavigator) Reconfigure(loc *time.Location, weekStart time.Weekday) {
	if loc == nil {
		loc = time.UTC
	}
	n.anchor = sameDateIn(n.anchor, loc)
	n.location = loc
	n.weekStart = weekStart
}

func (n *ViewNavigator) Prev() {
	n.step(-1)
}

func (n *ViewNavigator) Next() {
	n.step(1)
}

func (n *ViewNavigator) step(direction int) {
	switch n.mode {
	case ModeMonth:
		n.anchor = addMonthsClamped(n.anchor, direction)
	case ModeWeek:
		n.anchor = n.anchor.AddDate(0, 0, 7*direction)
	case ModeDay:
		n.anchor = n.anchor.AddDate(0, 0, direction)
	}
}

// Today moves the anchor to the current day and keeps the mode.
func (n *ViewNavigator) Today() {
	n.anchor = utils.StartOfDay(n.clock.Now(), n.location)
}

// SetMode switches the mode and keeps the anchor.
func (n *ViewNavigator) SetMode(mode Mode) {
	n.mode = mode
}

// JumpTo anchors the view at the calendar date of date, read in date's own location.
func (n *ViewNavigator) JumpTo(date time.Time) {
	n.anchor = sameDateIn(date, n.location)
}

// SelectDay handles a click on a day cell. Month and Week views are promoted to Day view
// anchored at date; there is no way back other than SetMode.
func (n *ViewNavigator) SelectDay(date time.Time) {
	n.anchor = sameDateIn(date, n.location)
	n.mode = ModeDay
}

// VisibleRange returns the first and the last visible day. Month view covers whole weeks.
func (n *ViewNavigator) VisibleRange() (time.Time, time.Time) {
	switch n.mode {
	case ModeMonth:
		first, last := MonthBounds(n.anchor, n.location)
		return n.startOfWeek(first), n.startOfWeek(last).AddDate(0, 0, 6)
	case ModeWeek:
		start := n.startOfWeek(n.anchor)
		return start, start.AddDate(0, 0, 6)
	default:
		return n.anchor, n.anchor
	}
}

// MonthKey is the month the anchor falls in.
func (n *ViewNavigator) MonthKey() MonthKey {
	return MonthKey{Year: n.anchor.Year(), Month: n.anchor.Month()}
}

func (n *ViewNavigator) startOfWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) - int(n.weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthBounds returns the first and the last day of the month containing day.
func MonthBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	d := day.In(loc)
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, loc)
	return first, first.AddDate(0, 1, -1)
}

func sameDateIn(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
}

func addMonthsClamped(day time.Time, months int) time.Time {
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location()).AddDate(0, months, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	d := day.Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, day.Location())
}
