package local_event

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studydesk/studydesk/pkg/calendar"
)

var ErrEventNotFound = errors.New("local event not found")
var ErrInvalidEvent = errors.New("invalid local event")

// validateRecord checks the values the calendar needs to place the event.
func validateRecord(rec calendar.LocalEventRecord) error {
	if err := validateDate(rec.Date); err != nil {
		return fmt.Errorf("%w: date: %v", ErrInvalidEvent, err)
	}
	if rec.EndDate != nil && strings.TrimSpace(*rec.EndDate) != "" {
		if err := validateDate(*rec.EndDate); err != nil {
			return fmt.Errorf("%w: endDate: %v", ErrInvalidEvent, err)
		}
	}
	if rec.Weight != nil && *rec.Weight < 0 {
		return fmt.Errorf("%w: weight must not be negative", ErrInvalidEvent)
	}
	return nil
}

func validateDate(value string) error {
	n := calendar.NewNormalizer(time.UTC)
	if _, err := n.ParseDate(value); err == nil {
		return nil
	}
	_, err := n.ParseInstant(value)
	return err
}
