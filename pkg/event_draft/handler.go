package event_draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/internal/rest"
	"github.com/studydesk/studydesk/pkg/calendar"
	"github.com/studydesk/studydesk/pkg/user"
)

const previewCount = 5

var wallClockLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", dateLayout}

type DraftDTO struct {
	State             State               `json:"state"`
	Variant           Variant             `json:"variant"`
	Id                string              `json:"id,omitempty"`
	CalendarId        string              `json:"calendarId"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Location          string              `json:"location"`
	AllDay            bool                `json:"allDay"`
	Start             string              `json:"start"`
	End               string              `json:"end"`
	TimeZone          string              `json:"timeZone"`
	Recurrence        string              `json:"recurrence"`
	RecurrencePreset  Preset              `json:"recurrencePreset"`
	RecurrenceLocked  bool                `json:"recurrenceLocked"`
	RecurrencePreview []string            `json:"recurrencePreview,omitempty"`
	EventType         string              `json:"eventType,omitempty"`
	Course            string              `json:"course,omitempty"`
	CourseId          string              `json:"courseId,omitempty"`
	Weight            *float64            `json:"weight,omitempty"`
	Color             string              `json:"color,omitempty"`
	ColorId           string              `json:"colorId,omitempty"`
	Attendees         []calendar.Attendee `json:"attendees,omitempty"`
	Visibility        string              `json:"visibility,omitempty"`
	Transparency      string              `json:"transparency,omitempty"`
	Reminders         *calendar.Reminders `json:"reminders,omitempty"`
}

type FieldPatchDTO struct {
	Title        *string             `json:"title"`
	Description  *string             `json:"description"`
	Location     *string             `json:"location"`
	Start        *string             `json:"start"`
	End          *string             `json:"end"`
	EventType    *string             `json:"eventType"`
	Course       *string             `json:"course"`
	CourseId     *string             `json:"courseId"`
	Weight       *float64            `json:"weight"`
	ClearWeight  bool                `json:"clearWeight"`
	Color        *string             `json:"color"`
	ColorId      *string             `json:"colorId"`
	Visibility   *string             `json:"visibility"`
	Transparency *string             `json:"transparency"`
	Reminders    *calendar.Reminders `json:"reminders"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// OpenCreate godoc
// @Summary Open a new study planner event draft
// @Tags Draft
// @Accept json
// @Produce json
// @Param date body object{date=string} true "Day of the new event, 2006-01-02"
// @Success 201 {object} DraftDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid date"
// @Router /api/calendar/draft [post]
// @Security XUserId
func (h *Handler) OpenCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date string `json:"date"`
	}
	if !decode(w, r, &body) {
		return
	}
	date, err := time.Parse(dateLayout, body.Date)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "date must be in 2006-01-02 format")
		return
	}
	editor, err := h.service.Editor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	draft := editor.OpenCreate(date)
	rest.WriteJSON(w, http.StatusCreated, ToDTO(editor.State(), draft))
}

// OpenEdit godoc
// @Summary Open an edit draft for a loaded event
// @Tags Draft
// @Accept json
// @Produce json
// @Param event body object{source=string,id=string} true "Event reference"
// @Success 200 {object} DraftDTO
// @Failure 404 {object} rest.ErrorResponse "Event not found"
// @Router /api/calendar/draft/edit [post]
// @Security XUserId
func (h *Handler) OpenEdit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Source string `json:"source"`
		Id     string `json:"id"`
	}
	if !decode(w, r, &body) {
		return
	}
	source := calendar.SourceKind(body.Source)
	if source != calendar.SourceLocal && source != calendar.SourceExternal {
		rest.WriteError(w, http.StatusBadRequest, "Invalid source", "source must be local or external")
		return
	}
	draft, state, err := h.service.OpenEdit(r.Context(), source, body.Id)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(state, draft))
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	editor, err := h.service.Editor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	draft, err := editor.Draft()
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(editor.State(), draft))
}

func (h *Handler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	var body FieldPatchDTO
	if !decode(w, r, &body) {
		return
	}
	patch, err := body.toPatch()
	if err != nil {
		writeError(w, err)
		return
	}
	h.withEditor(w, r, func(e *Editor) (Draft, error) { return e.Apply(patch) })
}

func (h *Handler) SetAllDay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AllDay bool `json:"allDay"`
	}
	if !decode(w, r, &body) {
		return
	}
	h.withEditor(w, r, func(e *Editor) (Draft, error) { return e.SetAllDay(body.AllDay) })
}

func (h *Handler) SetTimeZone(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TimeZone string `json:"timeZone"`
	}
	if !decode(w, r, &body) {
		return
	}
	h.withEditor(w, r, func(e *Editor) (Draft, error) { return e.SetTimeZone(body.TimeZone) })
}

// SetRecurrence godoc
// @Summary Set the recurrence from a preset or as custom rule text
// @Tags Draft
// @Accept json
// @Produce json
// @Param recurrence body object{preset=string,custom=string} true "Either preset (none, daily, weekly, monthly, yearly) or custom"
// @Success 200 {object} DraftDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid rule or recurrence locked"
// @Router /api/calendar/draft/recurrence [put]
// @Security XUserId
func (h *Handler) SetRecurrence(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Preset *string `json:"preset"`
		Custom *string `json:"custom"`
	}
	if !decode(w, r, &body) {
		return
	}
	switch {
	case body.Preset != nil && body.Custom == nil:
		preset, err := ParsePreset(*body.Preset)
		if err != nil {
			writeError(w, err)
			return
		}
		h.withEditor(w, r, func(e *Editor) (Draft, error) { return e.SetRecurrencePreset(preset) })
	case body.Custom != nil && body.Preset == nil:
		h.withEditor(w, r, func(e *Editor) (Draft, error) { return e.SetCustomRecurrence(*body.Custom) })
	default:
		rest.WriteError(w, http.StatusBadRequest, "Invalid recurrence", "exactly one of preset and custom is required")
	}
}

func (h *Handler) AddAttendee(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &body) {
		return
	}
	h.withEditor(w, r, func(e *Editor) (Draft, error) { return e.AddAttendee(body.Email) })
}

func (h *Handler) RemoveAttendee(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	h.withEditor(w, r, func(e *Editor) (Draft, error) { return e.RemoveAttendee(email) })
}

// Save godoc
// @Summary Save the open draft to its owning source
// @Tags Draft
// @Produce json
// @Success 200 {object} calendar.EventDTO
// @Failure 400 {object} rest.ErrorResponse "Validation failed"
// @Failure 409 {object} rest.ErrorResponse "No draft is open"
// @Failure 502 {object} rest.ErrorResponse "The source rejected the change, the draft stays open"
// @Router /api/calendar/draft/save [post]
// @Security XUserId
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	editor, err := h.service.Editor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	saved, err := editor.Save(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, calendar.EventToDTO(saved))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	editor, err := h.service.Editor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := editor.Delete(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Close discards the open draft.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	editor, err := h.service.Editor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	editor.Close()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) withEditor(w http.ResponseWriter, r *http.Request, fn func(e *Editor) (Draft, error)) {
	editor, err := h.service.Editor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	draft, err := fn(editor)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(editor.State(), draft))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "User not found", http.StatusForbidden)
	case errors.Is(err, ErrDraftClosed):
		rest.WriteError(w, http.StatusConflict, "No draft is open", err.Error())
	case errors.Is(err, calendar.ErrEventNotFound), errors.Is(err, ErrNoSourceRecord):
		rest.WriteError(w, http.StatusNotFound, "Event not found", err.Error())
	case errors.Is(err, calendar.ErrUnparseableDate):
		rest.WriteError(w, http.StatusUnprocessableEntity, "Event cannot be edited", err.Error())
	case IsValidation(err):
		rest.WriteError(w, http.StatusBadRequest, "Validation failed", err.Error())
	case errors.Is(err, calendar.ErrNotConnected):
		rest.WriteError(w, http.StatusForbidden, "External calendar is not connected", err.Error())
	case errors.Is(err, ErrSourceUnavailable):
		rest.WriteError(w, http.StatusServiceUnavailable, "Event source unavailable", err.Error())
	default:
		log.Errorf("draft request failed: %v", err)
		rest.WriteError(w, http.StatusBadGateway, "Event source rejected the change", err.Error())
	}
}

func (p FieldPatchDTO) toPatch() (FieldPatch, error) {
	patch := FieldPatch{
		Title:        p.Title,
		Description:  p.Description,
		Location:     p.Location,
		EventType:    p.EventType,
		Course:       p.Course,
		CourseId:     p.CourseId,
		Weight:       p.Weight,
		ClearWeight:  p.ClearWeight,
		Color:        p.Color,
		ColorId:      p.ColorId,
		Visibility:   p.Visibility,
		Transparency: p.Transparency,
		Reminders:    p.Reminders,
	}
	var err error
	if patch.Start, err = parseWallClock(p.Start); err != nil {
		return FieldPatch{}, err
	}
	if patch.End, err = parseWallClock(p.End); err != nil {
		return FieldPatch{}, err
	}
	return patch, nil
}

func parseWallClock(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	for _, layout := range wallClockLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(*value)); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is not a date or a wall-clock time", ErrInvalidValue, *value)
}

func ToDTO(state State, d Draft) DraftDTO {
	dto := DraftDTO{
		State:            state,
		Variant:          d.Variant,
		Id:               d.Id,
		CalendarId:       d.CalendarId,
		Title:            d.Title,
		Description:      d.Description,
		Location:         d.Location,
		AllDay:           d.AllDay,
		TimeZone:         d.TimeZone,
		Recurrence:       d.Recurrence,
		RecurrencePreset: d.RecurrencePreset(),
		RecurrenceLocked: d.RecurrenceLocked,
		EventType:        d.EventType,
		Course:           d.Course,
		CourseId:         d.CourseId,
		Weight:           d.Weight,
		Color:            d.Color,
		ColorId:          d.ColorId,
		Attendees:        d.Attendees,
		Visibility:       d.Visibility,
		Transparency:     d.Transparency,
		Reminders:        d.Reminders,
	}
	layout := "2006-01-02T15:04:05"
	if d.AllDay {
		layout = dateLayout
	}
	dto.Start = d.Start.Format(layout)
	dto.End = d.End.Format(layout)

	occurrences, err := PreviewOccurrences(d.Recurrence, d.Start, previewCount)
	if err != nil {
		log.Debugf("no recurrence preview for draft %q: %v", d.Id, err)
	}
	for _, t := range occurrences {
		dto.RecurrencePreview = append(dto.RecurrencePreview, t.In(d.Start.Location()).Format(layout))
	}
	return dto
}
