package task

import (
	"errors"
	"strconv"

	"github.com/studydesk/studydesk/pkg/calendar"
)

var ErrTaskNotFound = errors.New("task not found")
var ErrInvalidTask = errors.New("invalid task")

// Task is a to-do of the study planner. Due is a date (2006-01-02) or empty.
type Task struct {
	Id        int    `json:"id"`
	Title     string `json:"title"`
	Due       string `json:"due,omitempty"`
	Completed bool   `json:"completed"`
	Course    string `json:"course,omitempty"`
}

func (t Task) toRecord() calendar.TaskRecord {
	return calendar.TaskRecord{
		Id:        strconv.Itoa(t.Id),
		Title:     t.Title,
		Due:       t.Due,
		Completed: t.Completed,
		Source:    calendar.SourceLocal,
	}
}
