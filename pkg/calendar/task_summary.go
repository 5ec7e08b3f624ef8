package calendar

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/internal/utils"
)

type TaskSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Open      int `json:"open"`
	DueToday  int `json:"dueToday"`
	Overdue   int `json:"overdue"`
}

// SummarizeTasks merges the tasks of all sources into sidebar counts. A failing source
// counts as having no tasks.
func SummarizeTasks(ctx context.Context, today time.Time, loc *time.Location, sources ...TaskSource) TaskSummary {
	var tasks []TaskRecord
	for _, source := range sources {
		records, err := source.ListTasks(ctx)
		if err != nil {
			log.Warnf("task source failed, ignoring it in the summary: %v", err)
			continue
		}
		tasks = append(tasks, records...)
	}
	return CountTasks(tasks, today, loc)
}

func CountTasks(tasks []TaskRecord, today time.Time, loc *time.Location) TaskSummary {
	todayStart := utils.StartOfDay(today, loc)
	normalizer := NewNormalizer(loc)

	summary := TaskSummary{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			summary.Completed++
			continue
		}
		summary.Open++
		if t.Due == "" {
			continue
		}
		due, err := taskDueDay(normalizer, t.Due)
		if err != nil {
			log.Debugf("task %s has invalid due date: %v", t.Id, err)
			continue
		}
		switch {
		case due.Equal(todayStart):
			summary.DueToday++
		case due.Before(todayStart):
			summary.Overdue++
		}
	}
	return summary
}

func taskDueDay(n Normalizer, due string) (time.Time, error) {
	if isDateOnly(due) {
		return n.ParseDate(due)
	}
	t, err := n.ParseInstant(due)
	if err != nil {
		return time.Time{}, err
	}
	return utils.StartOfDay(t, n.Location), nil
}
