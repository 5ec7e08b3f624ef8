package calendar

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/internal/rest"
	"github.com/studydesk/studydesk/pkg/user"
)

type EventDTO struct {
	Id                string    `json:"id"`
	Title             string    `json:"title"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	AllDay            bool      `json:"allDay"`
	Source            string    `json:"source"`
	CalendarId        string    `json:"calendarId"`
	CalendarColor     string    `json:"calendarColor,omitempty"`
	CalendarName      string    `json:"calendarName,omitempty"`
	EventType         string    `json:"eventType,omitempty"`
	Color             string    `json:"color,omitempty"`
	RecurringInstance bool      `json:"recurringInstance,omitempty"`
}

type PlacementDTO struct {
	Event  EventDTO `json:"event"`
	Top    float64  `json:"top"`
	Height float64  `json:"height"`
}

type DayCellDTO struct {
	Date   string     `json:"date"`
	Events []EventDTO `json:"events"`
}

type DayColumnDTO struct {
	Date   string         `json:"date"`
	AllDay []EventDTO     `json:"allDay"`
	Timed  []PlacementDTO `json:"timed"`
}

type ViewDTO struct {
	Anchor       string         `json:"anchor"`
	Mode         Mode           `json:"mode"`
	RangeStart   string         `json:"rangeStart"`
	RangeEnd     string         `json:"rangeEnd"`
	Sources      []SourceState  `json:"sources"`
	Days         []DayCellDTO   `json:"days"`
	Columns      []DayColumnDTO `json:"columns,omitempty"`
	ColumnHeight float64        `json:"columnHeight"`
	Tasks        TaskSummary    `json:"tasks"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetView godoc
// @Summary Render the current calendar view
// @Tags Calendar
// @Produce json
// @Success 200 {object} ViewDTO
// @Failure 403 {string} string "User not found"
// @Router /api/calendar/view [get]
// @Security XUserId
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context())
	h.writeView(w, view, err)
}

func (h *Handler) Prev(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Prev(r.Context())
	h.writeView(w, view, err)
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Next(r.Context())
	h.writeView(w, view, err)
}

func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Today(r.Context())
	h.writeView(w, view, err)
}

// SetMode godoc
// @Summary Switch between the month, week and day view
// @Tags Calendar
// @Accept json
// @Produce json
// @Param mode body object{mode=string} true "month, week or day"
// @Success 200 {object} ViewDTO
// @Failure 400 {object} rest.ErrorResponse "Unknown mode"
// @Router /api/calendar/view/mode [put]
// @Security XUserId
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	mode, err := ParseMode(body.Mode)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Unknown mode", "mode must be one of month, week, day")
		return
	}
	view, err := h.service.SetMode(r.Context(), mode)
	h.writeView(w, view, err)
}

// JumpTo godoc
// @Summary Move the view to a date, keeping the mode
// @Tags Calendar
// @Accept json
// @Produce json
// @Param date body object{date=string} true "Date in 2006-01-02 format"
// @Success 200 {object} ViewDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid date"
// @Router /api/calendar/view/date [put]
// @Security XUserId
func (h *Handler) JumpTo(w http.ResponseWriter, r *http.Request) {
	date, ok := decodeDate(w, r)
	if !ok {
		return
	}
	view, err := h.service.JumpTo(r.Context(), date)
	h.writeView(w, view, err)
}

// SelectDay opens the Day view of the clicked day cell.
func (h *Handler) SelectDay(w http.ResponseWriter, r *http.Request) {
	date, ok := decodeDate(w, r)
	if !ok {
		return
	}
	view, err := h.service.SelectDay(r.Context(), date)
	h.writeView(w, view, err)
}

func (h *Handler) GetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.service.Sources(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, sources)
}

// SetSourceVisible godoc
// @Summary Show or hide a calendar source
// @Tags Calendar
// @Accept json
// @Produce json
// @Param calendarId path string true "Calendar id, 'local' for the study planner"
// @Param visible body object{visible=bool} true "Visibility"
// @Success 200 {array} SourceState
// @Failure 404 {object} rest.ErrorResponse "Unknown calendar"
// @Router /api/calendar/sources/{calendarId} [put]
// @Security XUserId
func (h *Handler) SetSourceVisible(w http.ResponseWriter, r *http.Request) {
	calendarId := mux.Vars(r)["calendarId"]
	var body struct {
		Visible bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	sources, err := h.service.SetSourceVisible(r.Context(), calendarId, body.Visible)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, sources)
}

// Search godoc
// @Summary Search visible events by title
// @Tags Calendar
// @Produce json
// @Param q query string true "Case-insensitive part of the title"
// @Success 200 {array} EventDTO
// @Router /api/calendar/search [get]
// @Security XUserId
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, EventsToDTO(events))
}

func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request) {
	ics, err := h.service.ExportICS(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="studydesk.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(ics)); err != nil {
		log.Errorf("failed to write calendar export: %v", err)
	}
}

func (h *Handler) writeView(w http.ResponseWriter, view View, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ViewToDTO(view))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "User not found", http.StatusForbidden)
	case errors.Is(err, ErrUnknownCalendar):
		rest.WriteError(w, http.StatusNotFound, "Unknown calendar", err.Error())
	case errors.Is(err, ErrEventNotFound):
		rest.WriteError(w, http.StatusNotFound, "Event not found", err.Error())
	default:
		log.Errorf("calendar request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func decodeDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	var body struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return time.Time{}, false
	}
	date, err := time.Parse(dateLayout, body.Date)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "date must be in 2006-01-02 format")
		return time.Time{}, false
	}
	return date, true
}

func EventToDTO(e Event) EventDTO {
	return EventDTO{
		Id:                e.Id,
		Title:             e.Title,
		Start:             e.Start,
		End:               e.End,
		AllDay:            e.AllDay,
		Source:            string(e.Source),
		CalendarId:        e.CalendarId,
		CalendarColor:     e.CalendarColor,
		CalendarName:      e.CalendarName,
		EventType:         e.EventType,
		Color:             e.Color,
		RecurringInstance: e.IsRecurringInstance(),
	}
}

func EventsToDTO(events []Event) []EventDTO {
	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, EventToDTO(e))
	}
	return dtos
}

func ViewToDTO(view View) ViewDTO {
	dto := ViewDTO{
		Anchor:       view.State.Anchor.Format(dateLayout),
		Mode:         view.State.Mode,
		RangeStart:   view.RangeStart.Format(dateLayout),
		RangeEnd:     view.RangeEnd.Format(dateLayout),
		Sources:      view.Sources,
		Days:         make([]DayCellDTO, 0, len(view.Days)),
		ColumnHeight: view.ColumnHeight,
		Tasks:        view.Tasks,
	}
	for _, cell := range view.Days {
		dto.Days = append(dto.Days, DayCellDTO{Date: cell.Date.Format(dateLayout), Events: EventsToDTO(cell.Events)})
	}
	for _, column := range view.Columns {
		timed := make([]PlacementDTO, 0, len(column.Timed))
		for _, p := range column.Timed {
			timed = append(timed, PlacementDTO{Event: EventToDTO(p.Event), Top: p.Top, Height: p.Height})
		}
		dto.Columns = append(dto.Columns, DayColumnDTO{
			Date:   column.Date.Format(dateLayout),
			AllDay: EventsToDTO(column.AllDay),
			Timed:  timed,
		})
	}
	return dto
}
