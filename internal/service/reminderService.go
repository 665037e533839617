package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/reminder-engine/internal/database"
	"github.com/ds124wfegd/reminder-engine/internal/entity"
	"github.com/ds124wfegd/reminder-engine/internal/scheduler"
)

type reminderService struct {
	repo   database.ReminderRepository
	engine *scheduler.Engine
}

func NewReminderService(repo database.ReminderRepository, engine *scheduler.Engine) ReminderService {
	return &reminderService{repo: repo, engine: engine}
}

func (s *reminderService) CreateReminder(ctx context.Context, req *entity.ReminderRequest) (*entity.Reminder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	reminder := &entity.Reminder{
		Text:          req.Text,
		DueAt:         req.DueAt,
		Status:        entity.StatusScheduled,
		Nagging:       req.Nagging,
		NagIntervalMs: req.NagIntervalMs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	id, err := s.repo.Create(ctx, reminder)
	if err != nil {
		return nil, err
	}
	reminder.ID = id

	if err := s.engine.ScheduleReminder(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to schedule reminder %d: %w", id, err)
	}

	return reminder, nil
}

func (s *reminderService) GetReminder(ctx context.Context, id int64) (*entity.Reminder, error) {
	reminder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reminder == nil {
		return nil, entity.ErrReminderNotFound
	}
	return reminder, nil
}

func (s *reminderService) GetAllReminders(ctx context.Context) ([]*entity.Reminder, error) {
	return s.repo.GetAll(ctx)
}

// UpdateReminder routes the edit through the engine so the persist and
// the alarm swap happen inside the reminder's critical section, where a
// concurrently firing alarm cannot interleave its status write.
func (s *reminderService) UpdateReminder(ctx context.Context, id int64, req *entity.ReminderRequest) (*entity.Reminder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reminder, err := s.engine.ApplyEdit(ctx, id, func(r *entity.Reminder) {
		r.Text = req.Text
		r.DueAt = req.DueAt
		r.Nagging = req.Nagging
		r.NagIntervalMs = req.NagIntervalMs
	})
	if err != nil {
		return nil, err
	}

	return reminder, nil
}

func (s *reminderService) DeleteReminder(ctx context.Context, id int64) error {
	// Cancel first so no alarm can fire for a half-deleted reminder.
	if err := s.engine.CancelReminder(ctx, id); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}

// MarkReminderDone routes through the same dispatch path as a fired
// mark-done alarm, which is also how notification dismissal arrives.
func (s *reminderService) MarkReminderDone(ctx context.Context, id int64) error {
	reminder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if reminder == nil {
		return entity.ErrReminderNotFound
	}

	return s.engine.HandleFired(ctx, entity.FireEvent{
		ReminderID: id,
		Action:     entity.ActionMarkDone,
	})
}
