package local_event

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/internal/event_bus"
	"github.com/studydesk/studydesk/internal/rest"
	"github.com/studydesk/studydesk/pkg/calendar"
	"github.com/studydesk/studydesk/pkg/user"
)

type Handler struct {
	service  Service
	eventBus *event_bus.EventBus
}

func NewHandler(service Service, eventBus *event_bus.EventBus) *Handler {
	return &Handler{service: service, eventBus: eventBus}
}

// List godoc
// @Summary List the study planner's own events
// @Tags LocalEvents
// @Produce json
// @Success 200 {array} calendar.LocalEventRecord
// @Router /api/events [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListLocalEvents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, records)
}

// Create godoc
// @Summary Create a study planner event
// @Tags LocalEvents
// @Accept json
// @Produce json
// @Param event body calendar.LocalEventRecord true "Event; the id is assigned by the server"
// @Success 201 {object} calendar.LocalEventRecord
// @Failure 400 {object} rest.ErrorResponse "Invalid event"
// @Router /api/events [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var rec calendar.LocalEventRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), rec)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(r.Context(), event_bus.CalendarEventSaved, created.Id)
	rest.WriteJSON(w, http.StatusCreated, created)
}

// Update godoc
// @Summary Update a study planner event
// @Tags LocalEvents
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID"
// @Param patch body calendar.LocalEventPatch true "Fields to change"
// @Success 200 {object} calendar.LocalEventRecord
// @Failure 400 {object} rest.ErrorResponse "Invalid event"
// @Failure 404 {object} rest.ErrorResponse "Event not found"
// @Router /api/events/{eventId} [put]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["eventId"]
	var patch calendar.LocalEventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish(r.Context(), event_bus.CalendarEventSaved, updated.Id)
	rest.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["eventId"]
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.publish(r.Context(), event_bus.CalendarEventDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publish(ctx context.Context, eventType event_bus.EventType, id string) {
	if h.eventBus == nil {
		return
	}
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return
	}
	payload := event_bus.CalendarEventChanged{
		UserId:     currentUser.Id,
		Source:     string(calendar.SourceLocal),
		EventId:    id,
		CalendarId: calendar.LocalCalendarId,
	}
	if err := h.eventBus.Publish(event_bus.NewEvent(ctx, eventType, payload)); err != nil {
		log.Errorf("failed to publish %s for local event %s: %v", eventType, id, err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "User not found", http.StatusForbidden)
	case errors.Is(err, ErrEventNotFound):
		rest.WriteError(w, http.StatusNotFound, "Event not found", err.Error())
	case errors.Is(err, ErrInvalidEvent):
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
	default:
		log.Errorf("local event request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
