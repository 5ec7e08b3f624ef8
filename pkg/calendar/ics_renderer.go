package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

const icsProductId = "-//studydesk//Calendar Export//EN"

// RenderICS writes events as an iCalendar document. All-day events get an exclusive
// DTEND, following the iCalendar convention.
func RenderICS(name string, loc *time.Location, events []Event, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetProductId(icsProductId)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(name)
	if loc != nil {
		cal.SetXWRTimezone(loc.String())
	}

	for _, e := range events {
		ve := cal.AddEvent(icsUid(e))
		ve.SetDtStampTime(stamp)
		ve.SetSummary(e.Title)
		if e.AllDay {
			ve.SetAllDayStartAt(e.Start)
			ve.SetAllDayEndAt(e.End.AddDate(0, 0, 1))
		} else {
			ve.SetStartAt(e.Start)
			ve.SetEndAt(e.End)
		}

		switch {
		case e.Local != nil:
			if e.Local.Notes != "" {
				ve.SetDescription(e.Local.Notes)
			}
			if e.Local.Location != "" {
				ve.SetLocation(e.Local.Location)
			}
			if e.EventType != "" {
				ve.SetProperty(ical.ComponentPropertyCategories, e.EventType)
			}
		case e.External != nil:
			if e.External.Description != "" {
				ve.SetDescription(e.External.Description)
			}
			if e.External.Location != "" {
				ve.SetLocation(e.External.Location)
			}
			if e.External.Transparency == "transparent" {
				ve.SetTimeTransparency(ical.TransparencyTransparent)
			}
			if e.External.Visibility == "private" {
				ve.SetClass(ical.ClassificationPrivate)
			}
		}
	}
	return cal.Serialize()
}

func icsUid(e Event) string {
	if e.Source == SourceExternal {
		return fmt.Sprintf("%s@%s.external.studydesk", e.Id, e.CalendarId)
	}
	return fmt.Sprintf("%s@local.studydesk", e.Id)
}
