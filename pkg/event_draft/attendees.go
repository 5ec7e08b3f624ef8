package event_draft

import (
	"fmt"
	"strings"

	"github.com/studydesk/studydesk/pkg/calendar"
)

func (d *Draft) addAttendee(email string) error {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: %q", ErrInvalidAttendeeEmail, email)
	}
	for _, a := range d.Attendees {
		if a.Email == email {
			return fmt.Errorf("%w: %s", ErrDuplicateAttendee, email)
		}
	}
	d.Attendees = append(d.Attendees, calendar.Attendee{Email: email, ResponseStatus: "needsAction"})
	return nil
}

// removeAttendee drops email from the list. The entry of the calendar owner, marked as self
// or matching selfEmail, is never removed.
func (d *Draft) removeAttendee(email, selfEmail string) error {
	email = strings.TrimSpace(email)
	for i, a := range d.Attendees {
		if a.Email != email {
			continue
		}
		if a.Self || (selfEmail != "" && strings.EqualFold(a.Email, selfEmail)) {
			return fmt.Errorf("%w: %s", ErrCannotRemoveSelf, email)
		}
		d.Attendees = append(d.Attendees[:i:i], d.Attendees[i+1:]...)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrAttendeeNotFound, email)
}
