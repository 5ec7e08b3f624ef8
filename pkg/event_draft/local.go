package event_draft

import (
	"fmt"
	"strings"
	"time"

	"github.com/studydesk/studydesk/pkg/calendar"
)

// newCreateDraft starts an all-day local draft on date, read as a calendar date.
func newCreateDraft(date time.Time, ambientZone string) Draft {
	zone, loc := ResolveTimeZone(ambientZone)
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return Draft{
		Variant:      VariantLocal,
		CalendarId:   calendar.LocalCalendarId,
		AllDay:       true,
		Start:        start,
		End:          start,
		TimeZone:     zone,
		originalZone: zone,
	}
}

// newLocalDraft hydrates a draft from a study planner record. Local records carry no zone,
// so the ambient zone is used.
func newLocalDraft(rec calendar.LocalEventRecord, ambientZone string) (Draft, error) {
	zone, loc := ResolveTimeZone(ambientZone)
	e, ok := calendar.NewNormalizer(loc).NormalizeLocal(rec)
	if !ok {
		return Draft{}, fmt.Errorf("%w: local event %s", calendar.ErrUnparseableDate, rec.Id)
	}

	d := Draft{
		Variant:      VariantLocal,
		Id:           rec.Id,
		CalendarId:   calendar.LocalCalendarId,
		Title:        rec.Title,
		Description:  rec.Notes,
		Location:     rec.Location,
		AllDay:       e.AllDay,
		Start:        e.Start.In(loc),
		End:          e.End.In(loc),
		TimeZone:     zone,
		Recurrence:   normalizeRule(rec.Recurrence),
		EventType:    rec.EventType,
		Course:       rec.Course,
		CourseId:     rec.CourseId,
		Color:        rec.Color,
		endExplicit:  rec.EndDate != nil && strings.TrimSpace(*rec.EndDate) != "",
		originalZone: zone,
	}
	d.storedRecurrence = d.Recurrence
	if rec.Weight != nil {
		w := *rec.Weight
		d.Weight = &w
	}
	return d, nil
}

func (d *Draft) formatLocal(t time.Time) string {
	if d.AllDay {
		return t.Format(dateLayout)
	}
	return t.Format(time.RFC3339)
}

// localRecord serializes the draft into the native local shape. A display-only end is
// left out.
func (d *Draft) localRecord() calendar.LocalEventRecord {
	allDay := d.AllDay
	rec := calendar.LocalEventRecord{
		Id:         d.Id,
		Title:      strings.TrimSpace(d.Title),
		Date:       d.formatLocal(d.Start),
		AllDay:     &allDay,
		EventType:  d.EventType,
		Color:      d.Color,
		Recurrence: d.Recurrence,
		Notes:      d.Description,
		Location:   d.Location,
		Course:     d.Course,
		CourseId:   d.CourseId,
	}
	if d.endExplicit {
		end := d.formatLocal(d.End)
		rec.EndDate = &end
	}
	if d.Weight != nil {
		w := *d.Weight
		rec.Weight = &w
	}
	return rec
}

// localPatch lists the fields of the draft that differ from original.
func (d *Draft) localPatch(original calendar.LocalEventRecord) calendar.LocalEventPatch {
	desired := d.localRecord()
	n := calendar.NewNormalizer(d.location())
	var p calendar.LocalEventPatch

	p.Title = changed(original.Title, desired.Title)
	if !sameLocalValue(n, original.Date, desired.Date) {
		p.Date = &desired.Date
	}
	switch {
	case original.EndDate == nil && desired.EndDate != nil:
		p.EndDate = desired.EndDate
	case original.EndDate != nil && desired.EndDate == nil:
		empty := ""
		p.EndDate = &empty
	case original.EndDate != nil && desired.EndDate != nil && !sameLocalValue(n, *original.EndDate, *desired.EndDate):
		p.EndDate = desired.EndDate
	}
	originalAllDay := isDateOnly(original.Date)
	if original.AllDay != nil {
		originalAllDay = *original.AllDay
	}
	if originalAllDay != d.AllDay {
		p.AllDay = desired.AllDay
	}
	p.EventType = changed(original.EventType, desired.EventType)
	p.Color = changed(original.Color, desired.Color)
	p.Recurrence = changed(normalizeRule(original.Recurrence), desired.Recurrence)
	p.Notes = changed(original.Notes, desired.Notes)
	p.Location = changed(original.Location, desired.Location)
	p.Course = changed(original.Course, desired.Course)
	p.CourseId = changed(original.CourseId, desired.CourseId)
	switch {
	case original.Weight != nil && desired.Weight == nil:
		p.ClearWeight = true
	case desired.Weight != nil && (original.Weight == nil || *original.Weight != *desired.Weight):
		p.Weight = desired.Weight
	}
	return p
}

func changed(original, desired string) *string {
	if original == desired {
		return nil
	}
	return &desired
}

func isDateOnly(value string) bool {
	_, err := time.Parse(dateLayout, strings.TrimSpace(value))
	return err == nil
}

// sameLocalValue compares two local date values by meaning: equal dates, or instants
// that are the same moment.
func sameLocalValue(n calendar.Normalizer, a, b string) bool {
	if isDateOnly(a) || isDateOnly(b) {
		return isDateOnly(a) && isDateOnly(b) && strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	ta, errA := n.ParseInstant(a)
	tb, errB := n.ParseInstant(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ta.Equal(tb)
}
