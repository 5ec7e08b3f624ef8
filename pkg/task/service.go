package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/studydesk/studydesk/internal/utils"
	"github.com/studydesk/studydesk/pkg/calendar"
	"github.com/studydesk/studydesk/pkg/user"
)

type Service interface {
	List(ctx context.Context) ([]Task, error)
	Create(ctx context.Context, task Task) (Task, error)
	SetCompleted(ctx context.Context, id int, completed bool) (Task, error)
	Delete(ctx context.Context, id int) error
	// Summary counts the tasks of the study planner and of every other task source.
	Summary(ctx context.Context) (calendar.TaskSummary, error)
}

type ServiceImpl struct {
	repo        Repository
	others      []calendar.TaskSource
	clock       utils.Clock
	defaultZone *time.Location
}

func NewService(repo Repository, clock utils.Clock, defaultZone *time.Location, others ...calendar.TaskSource) *ServiceImpl {
	return &ServiceImpl{
		repo:        repo,
		others:      others,
		clock:       clock,
		defaultZone: defaultZone,
	}
}

func (s *ServiceImpl) List(ctx context.Context) ([]Task, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, currentUser.Id)
}

// ListTasks makes the study planner's tasks a calendar task source.
func (s *ServiceImpl) ListTasks(ctx context.Context) ([]calendar.TaskRecord, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]calendar.TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, t.toRecord())
	}
	return records, nil
}

func (s *ServiceImpl) Create(ctx context.Context, task Task) (Task, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Task{}, fmt.Errorf("failed to get current user: %w", err)
	}
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return Task{}, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	return s.repo.Store(ctx, currentUser.Id, task)
}

func (s *ServiceImpl) SetCompleted(ctx context.Context, id int, completed bool) (Task, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Task{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.SetCompleted(ctx, currentUser.Id, id, completed)
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	ok, err := s.repo.Delete(ctx, currentUser.Id, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return nil
}

func (s *ServiceImpl) Summary(ctx context.Context) (calendar.TaskSummary, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return calendar.TaskSummary{}, fmt.Errorf("failed to get current user: %w", err)
	}
	loc := currentUser.Settings.Location(s.defaultZone)
	sources := append([]calendar.TaskSource{s}, s.others...)
	return calendar.SummarizeTasks(ctx, s.clock.Now(), loc, sources...), nil
}
