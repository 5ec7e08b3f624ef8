package user

import (
	"time"

	log "github.com/sirupsen/logrus"
)

type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
	// Email identifies the user among event attendees.
	Email    string
	Settings Settings
}

type Settings struct {
	Timezone     string
	WeekFirstDay time.Weekday
}

// Location resolves the user's timezone, falling back to the given zone when unset or invalid.
func (s Settings) Location(fallback *time.Location) *time.Location {
	if s.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		log.Warnf("invalid user timezone %q, using %s", s.Timezone, fallback)
		return fallback
	}
	return loc
}
