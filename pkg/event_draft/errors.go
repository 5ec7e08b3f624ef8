package event_draft

import (
	"errors"
)

var (
	ErrDraftClosed          = errors.New("no draft is open")
	ErrTitleRequired        = errors.New("title is required")
	ErrEndBeforeStart       = errors.New("end is before start")
	ErrInvalidAttendeeEmail = errors.New("attendee email must contain @")
	ErrDuplicateAttendee    = errors.New("attendee already added")
	ErrAttendeeNotFound     = errors.New("attendee not found")
	ErrCannotRemoveSelf     = errors.New("the calendar owner cannot be removed from attendees")
	ErrRecurrenceLocked     = errors.New("recurrence of a single occurrence cannot be edited")
	ErrInvalidRecurrence    = errors.New("invalid recurrence rule")
	ErrUnknownPreset        = errors.New("unknown recurrence preset")
	ErrUnsupportedField     = errors.New("field is not supported by this event source")
	ErrInvalidValue         = errors.New("invalid field value")
	ErrInvalidTimeZone      = errors.New("invalid time zone")
	ErrNoSourceRecord       = errors.New("event has no source record")
	ErrSourceUnavailable    = errors.New("event source is not configured")
)

var validationErrors = []error{
	ErrTitleRequired,
	ErrEndBeforeStart,
	ErrInvalidAttendeeEmail,
	ErrDuplicateAttendee,
	ErrAttendeeNotFound,
	ErrCannotRemoveSelf,
	ErrRecurrenceLocked,
	ErrInvalidRecurrence,
	ErrUnknownPreset,
	ErrUnsupportedField,
	ErrInvalidValue,
	ErrInvalidTimeZone,
}

// IsValidation reports whether err was rejected by the draft itself, before reaching any store.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
