package local_event

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/pkg/calendar"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	List(ctx context.Context, userId int) ([]calendar.LocalEventRecord, error)
	// Get returns ErrEventNotFound when the event does not exist or belongs to another user.
	Get(ctx context.Context, userId int, id uuid.UUID) (calendar.LocalEventRecord, error)
	Store(ctx context.Context, userId int, id uuid.UUID, rec calendar.LocalEventRecord) (calendar.LocalEventRecord, error)
	Update(ctx context.Context, userId int, id uuid.UUID, rec calendar.LocalEventRecord) (bool, error)
	Delete(ctx context.Context, userId int, id uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *repositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&repositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const selectColumns = `uid, title, date, end_date, all_day, event_type, color, recurrence, notes, location, weight, course, course_id`

func scanRecord(row pgx.Row) (calendar.LocalEventRecord, error) {
	var id uuid.UUID
	var rec calendar.LocalEventRecord
	err := row.Scan(
		&id,
		&rec.Title,
		&rec.Date,
		&rec.EndDate,
		&rec.AllDay,
		&rec.EventType,
		&rec.Color,
		&rec.Recurrence,
		&rec.Notes,
		&rec.Location,
		&rec.Weight,
		&rec.Course,
		&rec.CourseId,
	)
	if err != nil {
		return calendar.LocalEventRecord{}, err
	}
	rec.Id = id.String()
	return rec, nil
}

func (r *repositoryImpl) List(ctx context.Context, userId int) ([]calendar.LocalEventRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM local_event WHERE user_id = $1 ORDER BY date, uid`
	rows, err := r.getQueryer().Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query local events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	records := []calendar.LocalEventRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan local event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *repositoryImpl) Get(ctx context.Context, userId int, id uuid.UUID) (calendar.LocalEventRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM local_event WHERE user_id = $1 AND uid = $2`
	if r.tx != nil {
		query += ` FOR UPDATE`
	}
	rec, err := scanRecord(r.getQueryer().QueryRow(ctx, query, userId, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return calendar.LocalEventRecord{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	if err != nil {
		return calendar.LocalEventRecord{}, fmt.Errorf("could not get local event %s: %w", id, err)
	}
	return rec, nil
}

func (r *repositoryImpl) Store(ctx context.Context, userId int, id uuid.UUID, rec calendar.LocalEventRecord) (calendar.LocalEventRecord, error) {
	query := `INSERT INTO local_event (
					uid, user_id, title, date, end_date, all_day, event_type, color,
					recurrence, notes, location, weight, course, course_id
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
				RETURNING ` + selectColumns
	stored, err := scanRecord(r.getQueryer().QueryRow(ctx, query,
		id,
		userId,
		rec.Title,
		rec.Date,
		rec.EndDate,
		rec.AllDay,
		rec.EventType,
		rec.Color,
		rec.Recurrence,
		rec.Notes,
		rec.Location,
		rec.Weight,
		rec.Course,
		rec.CourseId,
	))
	if err != nil {
		err := fmt.Errorf("could not store local event: %w", err)
		log.Error(err)
		return calendar.LocalEventRecord{}, err
	}
	return stored, nil
}

func (r *repositoryImpl) Update(ctx context.Context, userId int, id uuid.UUID, rec calendar.LocalEventRecord) (bool, error) {
	query := `UPDATE local_event SET
					title = $1, date = $2, end_date = $3, all_day = $4, event_type = $5, color = $6,
					recurrence = $7, notes = $8, location = $9, weight = $10, course = $11, course_id = $12
				WHERE user_id = $13 AND uid = $14`
	result, err := r.getQueryer().Exec(ctx, query,
		rec.Title,
		rec.Date,
		rec.EndDate,
		rec.AllDay,
		rec.EventType,
		rec.Color,
		rec.Recurrence,
		rec.Notes,
		rec.Location,
		rec.Weight,
		rec.Course,
		rec.CourseId,
		userId,
		id,
	)
	if err != nil {
		err := fmt.Errorf("could not update local event %s: %w", id, err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, userId int, id uuid.UUID) (bool, error) {
	result, err := r.getQueryer().Exec(ctx, `DELETE FROM local_event WHERE user_id = $1 AND uid = $2`, userId, id)
	if err != nil {
		err := fmt.Errorf("could not delete local event %s: %w", id, err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
