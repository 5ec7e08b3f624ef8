package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu      sync.Mutex
	tasks   map[int]Task
	userIds map[int]int
	nextId  int
	Err     error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		tasks:   make(map[int]Task),
		userIds: make(map[int]int),
		nextId:  1,
	}
}

func (r *RepositoryStub) List(ctx context.Context, userId int) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	tasks := []Task{}
	for id, t := range r.tasks {
		if r.userIds[id] == userId {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Id < tasks[j].Id })
	return tasks, nil
}

func (r *RepositoryStub) Store(ctx context.Context, userId int, task Task) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return Task{}, r.Err
	}
	if _, err := dueParam(task.Due); err != nil {
		return Task{}, err
	}
	task.Id = r.nextId
	r.nextId++
	r.tasks[task.Id] = task
	r.userIds[task.Id] = userId
	return task, nil
}

func (r *RepositoryStub) SetCompleted(ctx context.Context, userId int, id int, completed bool) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return Task{}, r.Err
	}
	t, ok := r.tasks[id]
	if !ok || r.userIds[id] != userId {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	t.Completed = completed
	r.tasks[id] = t
	return t, nil
}

func (r *RepositoryStub) Delete(ctx context.Context, userId int, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	if _, ok := r.tasks[id]; !ok || r.userIds[id] != userId {
		return false, nil
	}
	delete(r.tasks, id)
	delete(r.userIds, id)
	return true, nil
}
