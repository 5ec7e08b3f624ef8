package calendar

// LocalEventRecord is the native shape of an event owned by the study planner store.
// Date and EndDate hold either an instant (RFC3339) or a date-only value (2006-01-02).
// EndDate is inclusive for all-day events.
type LocalEventRecord struct {
	Id         string   `json:"id"`
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	EndDate    *string  `json:"endDate,omitempty"`
	AllDay     *bool    `json:"allDay,omitempty"`
	EventType  string   `json:"eventType,omitempty"`
	Color      string   `json:"color,omitempty"`
	Recurrence string   `json:"recurrence,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	Location   string   `json:"location,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
	Course     string   `json:"course,omitempty"`
	CourseId   string   `json:"courseId,omitempty"`
}

// EventDateTime is one endpoint of an external event: either DateTime or Date is set.
type EventDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
	Optional       bool   `json:"optional,omitempty"`
	Organizer      bool   `json:"organizer,omitempty"`
	// Self marks the attendee entry of the calendar owner.
	Self bool `json:"self,omitempty"`
}

type Reminder struct {
	Method  string `json:"method"`
	Minutes int64  `json:"minutes"`
}

type Reminders struct {
	UseDefault bool       `json:"useDefault"`
	Overrides  []Reminder `json:"overrides,omitempty"`
}

// ExternalEventRecord is the native shape of an event from a synced external calendar.
// End.Date is exclusive, following the calendar provider's convention.
type ExternalEventRecord struct {
	Id                string            `json:"id"`
	Summary           string            `json:"summary,omitempty"`
	Description       string            `json:"description,omitempty"`
	Location          string            `json:"location,omitempty"`
	Start             EventDateTime     `json:"start"`
	End               EventDateTime     `json:"end"`
	Recurrence        []string          `json:"recurrence,omitempty"`
	RecurringEventId  string            `json:"recurringEventId,omitempty"`
	ColorId           string            `json:"colorId,omitempty"`
	CalendarId        string            `json:"calendarId"`
	CalendarSummary   string            `json:"calendarSummary"`
	CalendarColor     string            `json:"calendarColor"`
	Attendees         []Attendee        `json:"attendees,omitempty"`
	Visibility        string            `json:"visibility,omitempty"`
	Transparency      string            `json:"transparency,omitempty"`
	Reminders         *Reminders        `json:"reminders,omitempty"`
	PrivateProperties map[string]string `json:"privateProperties,omitempty"`
}

// ExternalCalendar is an entry of the external calendar list.
type ExternalCalendar struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TaskRecord is a task from either source; tasks only feed the sidebar counts.
type TaskRecord struct {
	Id        string     `json:"id"`
	Title     string     `json:"title"`
	Due       string     `json:"due,omitempty"`
	Completed bool       `json:"completed"`
	Source    SourceKind `json:"source"`
}
