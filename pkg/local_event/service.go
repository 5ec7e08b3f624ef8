package local_event

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/studydesk/studydesk/pkg/calendar"
	"github.com/studydesk/studydesk/pkg/user"
)

type Service interface {
	ListLocalEvents(ctx context.Context) ([]calendar.LocalEventRecord, error)
	Get(ctx context.Context, id string) (calendar.LocalEventRecord, error)
	Create(ctx context.Context, rec calendar.LocalEventRecord) (calendar.LocalEventRecord, error)
	Update(ctx context.Context, id string, patch calendar.LocalEventPatch) (calendar.LocalEventRecord, error)
	Delete(ctx context.Context, id string) error
}

// ServiceImpl is the study planner's own event store. It is the calendar's local source
// and the store the event editor writes local drafts to.
type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) ListLocalEvents(ctx context.Context) ([]calendar.LocalEventRecord, error) {
	userId, err := currentUserId(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userId)
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (calendar.LocalEventRecord, error) {
	userId, err := currentUserId(ctx)
	if err != nil {
		return calendar.LocalEventRecord{}, err
	}
	uid, err := parseId(id)
	if err != nil {
		return calendar.LocalEventRecord{}, err
	}
	return s.repo.Get(ctx, userId, uid)
}

func (s *ServiceImpl) Create(ctx context.Context, rec calendar.LocalEventRecord) (calendar.LocalEventRecord, error) {
	userId, err := currentUserId(ctx)
	if err != nil {
		return calendar.LocalEventRecord{}, err
	}
	rec.Title = strings.TrimSpace(rec.Title)
	if err := validateRecord(rec); err != nil {
		return calendar.LocalEventRecord{}, err
	}

	stored, err := s.repo.Store(ctx, userId, uuid.New(), rec)
	if err != nil {
		return calendar.LocalEventRecord{}, err
	}
	log.Debugf("created local event %s for user %d", stored.Id, userId)
	return stored, nil
}

// Update applies patch to the stored event inside one transaction.
func (s *ServiceImpl) Update(ctx context.Context, id string, patch calendar.LocalEventPatch) (calendar.LocalEventRecord, error) {
	userId, err := currentUserId(ctx)
	if err != nil {
		return calendar.LocalEventRecord{}, err
	}
	uid, err := parseId(id)
	if err != nil {
		return calendar.LocalEventRecord{}, err
	}

	var updated calendar.LocalEventRecord
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		current, err := repo.Get(ctx, userId, uid)
		if err != nil {
			return err
		}
		updated = patch.ApplyTo(current)
		updated.Title = strings.TrimSpace(updated.Title)
		if err := validateRecord(updated); err != nil {
			return err
		}
		ok, err := repo.Update(ctx, userId, uid, updated)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		return nil
	})
	if err != nil {
		return calendar.LocalEventRecord{}, err
	}
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	uid, err := parseId(id)
	if err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, userId, uid)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return nil
}

func currentUserId(ctx context.Context) (int, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current user: %w", err)
	}
	return currentUser.Id, nil
}

// parseId maps ids that are not UUIDs to ErrEventNotFound; no such event can exist.
func parseId(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return uid, nil
}
