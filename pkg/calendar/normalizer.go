package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/internal/utils"
)

const (
	untitled        = "Untitled"
	defaultDuration = time.Hour
	dateLayout      = "2006-01-02"
)

var ErrUnparseableDate = errors.New("unparseable date")

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Normalizer converts native records into Events. Date-only values and instants without
// an offset are interpreted in Location.
type Normalizer struct {
	Location *time.Location
}

func NewNormalizer(loc *time.Location) Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return Normalizer{Location: loc}
}

// ParseInstant parses an RFC3339 instant or a zone-less date-time in the normalizer's location.
func (n Normalizer) ParseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(n.Location), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, n.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, value)
}

// ParseDate parses a date-only value as midnight in the normalizer's location.
func (n Normalizer) ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), n.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, value)
	}
	return t, nil
}

func isDateOnly(value string) bool {
	_, err := time.Parse(dateLayout, strings.TrimSpace(value))
	return err == nil
}

// NormalizeLocal converts a study planner record. The second result is false when the start
// cannot be parsed and the record has to be skipped.
func (n Normalizer) NormalizeLocal(rec LocalEventRecord) (Event, bool) {
	allDay := isDateOnly(rec.Date)
	if rec.AllDay != nil {
		allDay = *rec.AllDay
	}

	start, err := n.parseLocalEndpoint(rec.Date, allDay)
	if err != nil {
		log.Warnf("skipping local event %s: %v", rec.Id, err)
		return Event{}, false
	}

	var end time.Time
	var endErr error = ErrUnparseableDate
	if rec.EndDate != nil && strings.TrimSpace(*rec.EndDate) != "" {
		end, endErr = n.parseLocalEndpoint(*rec.EndDate, allDay)
		if endErr != nil {
			log.Debugf("local event %s has invalid end date, using default: %v", rec.Id, endErr)
		}
	}
	if endErr != nil {
		end = defaultEnd(start, allDay)
	}

	original := rec
	return Event{
		Id:         rec.Id,
		Title:      titleOrUntitled(rec.Title),
		Start:      start,
		End:        end,
		AllDay:     allDay,
		Source:     SourceLocal,
		CalendarId: LocalCalendarId,
		EventType:  rec.EventType,
		Color:      rec.Color,
		Local:      &original,
	}, true
}

func (n Normalizer) parseLocalEndpoint(value string, allDay bool) (time.Time, error) {
	if isDateOnly(value) {
		return n.ParseDate(value)
	}
	t, err := n.ParseInstant(value)
	if err != nil {
		return time.Time{}, err
	}
	if allDay {
		return utils.StartOfDay(t, n.Location), nil
	}
	return t, nil
}

// NormalizeExternal converts a synced calendar record. All-day records carry an exclusive
// end date, so the normalized end is the last covered day.
func (n Normalizer) NormalizeExternal(rec ExternalEventRecord) (Event, bool) {
	allDay := rec.Start.DateTime == "" && rec.Start.Date != ""

	start, err := n.parseExternalEndpoint(rec.Start)
	if err != nil {
		log.Warnf("skipping external event %s from calendar %s: %v", rec.Id, rec.CalendarId, err)
		return Event{}, false
	}
	if allDay {
		start = utils.StartOfDay(start, n.Location)
	}

	end, err := n.parseExternalEndpoint(rec.End)
	switch {
	case err != nil:
		end = defaultEnd(start, allDay)
	case allDay:
		end = utils.StartOfDay(end, n.Location).AddDate(0, 0, -1)
		if end.Before(start) {
			end = start
		}
	}

	original := rec
	return Event{
		Id:            rec.Id,
		Title:         titleOrUntitled(rec.Summary),
		Start:         start,
		End:           end,
		AllDay:        allDay,
		Source:        SourceExternal,
		CalendarId:    rec.CalendarId,
		CalendarColor: rec.CalendarColor,
		CalendarName:  rec.CalendarSummary,
		External:      &original,
	}, true
}

func (n Normalizer) parseExternalEndpoint(dt EventDateTime) (time.Time, error) {
	if dt.DateTime != "" {
		if t, err := n.ParseInstant(dt.DateTime); err == nil {
			return t, nil
		}
	}
	if dt.Date != "" {
		if t, err := n.ParseDate(dt.Date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: dateTime=%q date=%q", ErrUnparseableDate, dt.DateTime, dt.Date)
}

// NormalizeLocalAll normalizes a batch, dropping records whose start cannot be parsed.
func (n Normalizer) NormalizeLocalAll(records []LocalEventRecord) []Event {
	events := make([]Event, 0, len(records))
	for _, rec := range records {
		if e, ok := n.NormalizeLocal(rec); ok {
			events = append(events, e)
		}
	}
	return events
}

func (n Normalizer) NormalizeExternalAll(records []ExternalEventRecord) []Event {
	events := make([]Event, 0, len(records))
	for _, rec := range records {
		if e, ok := n.NormalizeExternal(rec); ok {
			events = append(events, e)
		}
	}
	return events
}

func defaultEnd(start time.Time, allDay bool) time.Time {
	if allDay {
		return start
	}
	return start.Add(defaultDuration)
}

func titleOrUntitled(title string) string {
	if strings.TrimSpace(title) == "" {
		return untitled
	}
	return title
}
