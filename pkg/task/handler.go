package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/internal/rest"
	"github.com/studydesk/studydesk/pkg/user"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, tasks)
}

// Create godoc
// @Summary Create a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param task body Task true "Task; due is a date in 2006-01-02 format"
// @Success 201 {object} Task
// @Failure 400 {object} rest.ErrorResponse "Invalid task"
// @Router /api/tasks [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var t Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	id, ok := taskId(w, r)
	if !ok {
		return
	}
	var body struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	updated, err := h.service.SetCompleted(r.Context(), id, body.Completed)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskId(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary godoc
// @Summary Count open, due and overdue tasks of all task sources
// @Tags Tasks
// @Produce json
// @Success 200 {object} calendar.TaskSummary
// @Router /api/tasks/summary [get]
// @Security XUserId
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, summary)
}

func taskId(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["taskId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid task id", err.Error())
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "User not found", http.StatusForbidden)
	case errors.Is(err, ErrTaskNotFound):
		rest.WriteError(w, http.StatusNotFound, "Task not found", err.Error())
	case errors.Is(err, ErrInvalidTask):
		rest.WriteError(w, http.StatusBadRequest, "Invalid task", err.Error())
	default:
		log.Errorf("task request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
