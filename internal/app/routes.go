package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Calendar view
	r.HandleFunc("/api/calendar/view", deps.CalendarHandler.GetView).Methods("GET")
	r.HandleFunc("/api/calendar/view/prev", deps.CalendarHandler.Prev).Methods("POST")
	r.HandleFunc("/api/calendar/view/next", deps.CalendarHandler.Next).Methods("POST")
	r.HandleFunc("/api/calendar/view/today", deps.CalendarHandler.Today).Methods("POST")
	r.HandleFunc("/api/calendar/view/mode", deps.CalendarHandler.SetMode).Methods("PUT")
	r.HandleFunc("/api/calendar/view/date", deps.CalendarHandler.JumpTo).Methods("PUT")
	r.HandleFunc("/api/calendar/view/day", deps.CalendarHandler.SelectDay).Methods("POST")
	r.HandleFunc("/api/calendar/sources", deps.CalendarHandler.GetSources).Methods("GET")
	r.HandleFunc("/api/calendar/sources/{calendarId}", deps.CalendarHandler.SetSourceVisible).Methods("PUT")
	r.HandleFunc("/api/calendar/search", deps.CalendarHandler.Search).Methods("GET")
	r.HandleFunc("/api/calendar/export.ics", deps.CalendarHandler.ExportICS).Methods("GET")

	// Event draft
	r.HandleFunc("/api/calendar/draft", deps.DraftHandler.OpenCreate).Methods("POST")
	r.HandleFunc("/api/calendar/draft", deps.DraftHandler.GetDraft).Methods("GET")
	r.HandleFunc("/api/calendar/draft", deps.DraftHandler.UpdateFields).Methods("PATCH")
	r.HandleFunc("/api/calendar/draft", deps.DraftHandler.Close).Methods("DELETE")
	r.HandleFunc("/api/calendar/draft/edit", deps.DraftHandler.OpenEdit).Methods("POST")
	r.HandleFunc("/api/calendar/draft/all-day", deps.DraftHandler.SetAllDay).Methods("PUT")
	r.HandleFunc("/api/calendar/draft/timezone", deps.DraftHandler.SetTimeZone).Methods("PUT")
	r.HandleFunc("/api/calendar/draft/recurrence", deps.DraftHandler.SetRecurrence).Methods("PUT")
	r.HandleFunc("/api/calendar/draft/attendees", deps.DraftHandler.AddAttendee).Methods("POST")
	r.HandleFunc("/api/calendar/draft/attendees/{email}", deps.DraftHandler.RemoveAttendee).Methods("DELETE")
	r.HandleFunc("/api/calendar/draft/save", deps.DraftHandler.Save).Methods("POST")
	r.HandleFunc("/api/calendar/draft/delete", deps.DraftHandler.Delete).Methods("POST")

	// Local events
	r.HandleFunc("/api/events", deps.LocalEventHandler.List).Methods("GET")
	r.HandleFunc("/api/events", deps.LocalEventHandler.Create).Methods("POST")
	r.HandleFunc("/api/events/{eventId}", deps.LocalEventHandler.Update).Methods("PUT")
	r.HandleFunc("/api/events/{eventId}", deps.LocalEventHandler.Delete).Methods("DELETE")

	// Tasks
	r.HandleFunc("/api/tasks", deps.TaskHandler.List).Methods("GET")
	r.HandleFunc("/api/tasks", deps.TaskHandler.Create).Methods("POST")
	r.HandleFunc("/api/tasks/summary", deps.TaskHandler.Summary).Methods("GET")
	r.HandleFunc("/api/tasks/{taskId}/completed", deps.TaskHandler.SetCompleted).Methods("PUT")
	r.HandleFunc("/api/tasks/{taskId}", deps.TaskHandler.Delete).Methods("DELETE")

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")

	// Google integration
	r.HandleFunc("/api/integrations/google/auth/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/logout", deps.GoogleAuth.OAuthLogout).Methods("DELETE")
	r.HandleFunc("/api/integrations/google/auth/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/calendars", deps.GoogleHandler.ListCalendars).Methods("GET")
}
