package calendar

import "time"

type SourceKind string

const (
	SourceLocal    SourceKind = "local"
	SourceExternal SourceKind = "external"
)

// LocalCalendarId is the registry id of the study planner's own event store.
const LocalCalendarId = "local"

// Event is the normalized shape every record is converted to before layout.
// Exactly one of Local and External is set, matching Source.
type Event struct {
	Id            string
	Title         string
	Start         time.Time
	End           time.Time
	AllDay        bool
	Source        SourceKind
	CalendarId    string
	CalendarColor string
	CalendarName  string
	EventType     string
	Color         string

	Local    *LocalEventRecord
	External *ExternalEventRecord
}

type eventKey struct {
	source SourceKind
	id     string
}

func (e Event) key() eventKey {
	return eventKey{source: e.Source, id: e.Id}
}

// IsRecurringInstance reports whether e is a single occurrence of an external recurring series.
func (e Event) IsRecurringInstance() bool {
	return e.External != nil && e.External.RecurringEventId != ""
}
