package app

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/internal/config"
	"github.com/studydesk/studydesk/internal/event_bus"
	"github.com/studydesk/studydesk/internal/utils"
	"github.com/studydesk/studydesk/pkg/calendar"
	"github.com/studydesk/studydesk/pkg/event_draft"
	"github.com/studydesk/studydesk/pkg/google"
	"github.com/studydesk/studydesk/pkg/local_event"
	"github.com/studydesk/studydesk/pkg/task"
	"github.com/studydesk/studydesk/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	UserService user.Service
	UserHandler *user.Handler

	GoogleAuth    *google.GoogleAuth
	GoogleClient  google.Client
	GoogleService *google.ServiceImpl
	GoogleHandler *google.Handler

	LocalEventService *local_event.ServiceImpl
	LocalEventHandler *local_event.Handler

	TaskService *task.ServiceImpl
	TaskHandler *task.Handler

	CalendarService *calendar.ServiceImpl
	CalendarHandler *calendar.Handler

	DraftService *event_draft.Service
	DraftHandler *event_draft.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = utils.SystemClock{}

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.GoogleAuth = google.NewGoogleAuth(google.NewTokenRepository(db), deps.UserService, cfg)
	deps.GoogleClient = google.NewClient(deps.GoogleAuth)
	deps.GoogleService = google.NewService(deps.GoogleClient)
	deps.GoogleHandler = google.NewHandler(deps.GoogleClient)

	deps.LocalEventService = local_event.NewService(local_event.NewRepository(db))
	deps.LocalEventHandler = local_event.NewHandler(deps.LocalEventService, deps.EventBus)

	deps.TaskService = task.NewService(task.NewRepository(db), deps.Clock, defaultLocation(cfg.Calendar), deps.GoogleService)
	deps.TaskHandler = task.NewHandler(deps.TaskService)

	deps.CalendarService = calendar.NewService(
		deps.LocalEventService,
		deps.GoogleService,
		[]calendar.TaskSource{deps.TaskService, deps.GoogleService},
		deps.Clock,
		cfg.Calendar,
		deps.EventBus,
	)
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarService)

	deps.DraftService = event_draft.NewService(
		deps.LocalEventService,
		deps.GoogleService,
		deps.CalendarService,
		deps.CalendarService,
		deps.EventBus,
		defaultZoneName(cfg.Calendar),
	)
	deps.DraftHandler = event_draft.NewHandler(deps.DraftService)

	return deps
}

func defaultLocation(cfg config.Calendar) *time.Location {
	if cfg.DefaultTimezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		log.Warnf("invalid default timezone %q, using %s: %v", cfg.DefaultTimezone, time.Local, err)
		return time.Local
	}
	return loc
}

// defaultZoneName is the configured zone when it loads; empty leaves the choice to the system zone.
func defaultZoneName(cfg config.Calendar) string {
	if loc := defaultLocation(cfg); loc != time.Local {
		return loc.String()
	}
	return ""
}
