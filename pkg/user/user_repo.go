package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repo interface {
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, userId int, user User) (User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

type RepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *RepoImpl {
	return &RepoImpl{db: db}
}

const selectUser = `SELECT id, uid, username, display_name, email, timezone, week_first_day FROM users`

func (u *RepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	if user.Uid == "" {
		user.Uid = uuid.NewString()
	}
	query := `INSERT INTO users (uid, username, display_name, email, timezone, week_first_day)
				VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id int
	err := u.db.QueryRow(ctx, query,
		user.Uid,
		user.Username,
		user.DisplayName,
		user.Email,
		user.Settings.Timezone,
		int(user.Settings.WeekFirstDay),
	).Scan(&id)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return 0, err
	}
	return id, nil
}

func (u *RepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.scanOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (u *RepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.scanOne(ctx, selectUser+` WHERE uid = $1`, uid)
}

func (u *RepoImpl) scanOne(ctx context.Context, query string, arg any) (User, error) {
	var user User
	var weekFirstDay int
	err := u.db.QueryRow(ctx, query, arg).Scan(
		&user.Id,
		&user.Uid,
		&user.Username,
		&user.DisplayName,
		&user.Email,
		&user.Settings.Timezone,
		&weekFirstDay,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user %v not found", arg)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	user.Settings.WeekFirstDay = weekdayOf(weekFirstDay)
	return user, nil
}

func (u *RepoImpl) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	query := `UPDATE users SET display_name = $1, email = $2, timezone = $3, week_first_day = $4 WHERE id = $5`
	result, err := u.db.Exec(ctx, query,
		user.DisplayName,
		user.Email,
		user.Settings.Timezone,
		int(user.Settings.WeekFirstDay),
		userId,
	)
	if err != nil {
		return User{}, err
	}
	if result.RowsAffected() == 0 {
		log.Info("no rows affected of updating user")
		return User{}, fmt.Errorf("user with id %d: %w", userId, ErrUserNotFound)
	}
	return u.GetUser(ctx, userId)
}

func (u *RepoImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	var count int
	err := u.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE username = $1`, username).Scan(&count)
	if err != nil {
		log.Errorf("failed to check username availability: %v", err)
		return false, err
	}
	return count == 0, nil
}

func weekdayOf(day int) time.Weekday {
	if day < 0 || day > 6 {
		return time.Monday
	}
	return time.Weekday(day)
}
