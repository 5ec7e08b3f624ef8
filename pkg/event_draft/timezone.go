package event_draft

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/pkg/calendar"
)

const (
	utcZone          = "UTC"
	timeZoneProperty = "timeZone"
	defaultStartHour = 9
	defaultEndHour   = 10
	dateLayout       = "2006-01-02"
)

// SystemZone names the zone of time.Local. Go reports the host zone as "Local", so the name
// is taken from TZ or the /etc/localtime link then. Empty when no name can be found.
func SystemZone() string {
	if name := time.Local.String(); name != "Local" {
		return name
	}
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		return tz
	}
	target, err := filepath.EvalSymlinks("/etc/localtime")
	if err != nil {
		return ""
	}
	if _, name, ok := strings.Cut(target, "zoneinfo/"); ok {
		return name
	}
	return ""
}

// ResolveTimeZone returns the first candidate that names a known zone. Empty and unknown
// candidates are skipped; UTC is the last resort.
func ResolveTimeZone(candidates ...string) (string, *time.Location) {
	for _, name := range candidates {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Debugf("ignoring unknown time zone %q: %v", name, err)
			continue
		}
		return name, loc
	}
	return utcZone, time.UTC
}

// externalZoneCandidates lists the zone sources of an external record in precedence order:
// the zone of the start instant, then the private extended property.
func externalZoneCandidates(rec calendar.ExternalEventRecord, ambient string) []string {
	return []string{rec.Start.TimeZone, rec.PrivateProperties[timeZoneProperty], ambient}
}

func loadZone(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTimeZone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, name)
	}
	return loc, nil
}

// repoint keeps the wall-clock reading of t and attaches loc to it.
func repoint(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

type clockTime struct {
	hour, minute, second int
}

func clockOf(t time.Time) clockTime {
	return clockTime{hour: t.Hour(), minute: t.Minute(), second: t.Second()}
}

func (c clockTime) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.hour, c.minute, c.second, 0, day.Location())
}
