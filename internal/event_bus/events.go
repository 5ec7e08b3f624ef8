package event_bus

const (
	CalendarEventSaved   EventType = "calendar.event.saved"
	CalendarEventDeleted EventType = "calendar.event.deleted"
)

// CalendarEventChanged is published after a draft was flushed to its owning source.
type CalendarEventChanged struct {
	UserId     int
	Source     string // "local" or "external"
	EventId    string
	CalendarId string
}
