package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host     string   `koanf:"host"`
	Google   Google   `koanf:"google"`
	Database Database `koanf:"db"`
	Calendar Calendar `koanf:"calendar"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

// Calendar holds the time-grid geometry and the refresh schedule of external calendars.
type Calendar struct {
	// HourHeight is the pixel height of one hour row in the day/week grid.
	HourHeight float64 `koanf:"hourheight"`
	// MinEventHeight is the smallest height a timed event is rendered with.
	MinEventHeight float64 `koanf:"mineventheight"`
	// DefaultTimezone is used when a user has no timezone configured. Empty means the system zone.
	DefaultTimezone string `koanf:"defaulttimezone"`
	// RefreshCron drops cached external events on this schedule. Empty disables it.
	RefreshCron      string `koanf:"refreshcron"`
	LocalSourceName  string `koanf:"localsourcename"`
	LocalSourceColor string `koanf:"localsourcecolor"`
}

func defaults() Application {
	return Application{
		Host: "http://localhost:3000",
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "studydesk",
			Pass:   "",
			Name:   "studydesk",
			Schema: "studydesk",
		},
		Calendar: Calendar{
			HourHeight:       48,
			MinEventHeight:   20,
			RefreshCron:      "*/15 * * * *",
			LocalSourceName:  "Study planner",
			LocalSourceColor: "#4f46e5",
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "STUDYDESK_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "STUDYDESK_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
