package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type Repository interface {
	List(ctx context.Context, userId int) ([]Task, error)
	Store(ctx context.Context, userId int, task Task) (Task, error)
	SetCompleted(ctx context.Context, userId int, id int, completed bool) (Task, error)
	Delete(ctx context.Context, userId int, id int) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	var due *time.Time
	if err := row.Scan(&t.Id, &t.Title, &due, &t.Completed, &t.Course); err != nil {
		return Task{}, err
	}
	if due != nil {
		t.Due = due.Format(dateLayout)
	}
	return t, nil
}

func dueParam(due string) (*time.Time, error) {
	if due == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, due)
	if err != nil {
		return nil, fmt.Errorf("%w: due date %q", ErrInvalidTask, due)
	}
	return &d, nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId int) ([]Task, error) {
	query := `SELECT id, title, due, completed, course FROM task
			  WHERE user_id = $1
			  ORDER BY completed, due NULLS LAST, id`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query tasks: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *RepositoryImpl) Store(ctx context.Context, userId int, task Task) (Task, error) {
	due, err := dueParam(task.Due)
	if err != nil {
		return Task{}, err
	}
	query := `INSERT INTO task (user_id, title, due, completed, course)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, title, due, completed, course`
	stored, err := scanTask(r.db.QueryRow(ctx, query, userId, task.Title, due, task.Completed, task.Course))
	if err != nil {
		err := fmt.Errorf("could not store task: %w", err)
		log.Error(err)
		return Task{}, err
	}
	return stored, nil
}

func (r *RepositoryImpl) SetCompleted(ctx context.Context, userId int, id int, completed bool) (Task, error) {
	query := `UPDATE task SET completed = $1 WHERE user_id = $2 AND id = $3
			  RETURNING id, title, due, completed, course`
	t, err := scanTask(r.db.QueryRow(ctx, query, completed, userId, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	if err != nil {
		err := fmt.Errorf("could not update task %d: %w", id, err)
		log.Error(err)
		return Task{}, err
	}
	return t, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id int) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM task WHERE user_id = $1 AND id = $2`, userId, id)
	if err != nil {
		err := fmt.Errorf("could not delete task %d: %w", id, err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
