package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/internal/config"
	"github.com/studydesk/studydesk/internal/database"
)

// Application wires configuration, database, router, scheduler and server lifecycle.
type Application struct {
	cfg       config.Application
	db        *pgxpool.Pool
	router    *mux.Router
	srv       *http.Server
	scheduler *cron.Cron
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	// DB + migrations
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg.Database); err != nil {
		db.Close()
		return nil, err
	}

	r := mux.NewRouter()

	deps := BuildDependencies(db, cfg)

	SetupMiddleware(r, deps)

	RegisterRoutes(r, deps)

	scheduler, err := ScheduleRefresh(cfg.Calendar, deps)
	if err != nil {
		db.Close()
		return nil, err
	}

	srv := &http.Server{
		Handler:      r,
		Addr:         ":8181",
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, router: r, srv: srv, scheduler: scheduler}, nil
}

// ScheduleRefresh drops cached external events on the configured cron schedule.
// It returns nil when the schedule is empty.
func ScheduleRefresh(cfg config.Calendar, deps *Dependencies) (*cron.Cron, error) {
	if cfg.RefreshCron == "" {
		log.Info("external calendar refresh is disabled")
		return nil, nil
	}
	c := cron.New()
	_, err := c.AddFunc(cfg.RefreshCron, deps.CalendarService.RefreshExternal)
	if err != nil {
		return nil, err
	}
	log.Infof("Scheduled external calendar refresh (%s)", cfg.RefreshCron)
	return c, nil
}

// Run starts the scheduler and the HTTP server and blocks until SIGINT or SIGTERM.
func (a *Application) Run() error {
	if a.scheduler != nil {
		a.scheduler.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case runErr = <-errCh:
	case sig := <-sigCh:
		log.Infof("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		runErr = a.srv.Shutdown(ctx)
	}

	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
	}
	a.db.Close()
	return runErr
}
