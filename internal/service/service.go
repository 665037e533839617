package service

import (
	"context"

	"github.com/ds124wfegd/reminder-engine/internal/entity"
)

type ReminderService interface {
	CreateReminder(ctx context.Context, req *entity.ReminderRequest) (*entity.Reminder, error)
	GetReminder(ctx context.Context, id int64) (*entity.Reminder, error)
	GetAllReminders(ctx context.Context) ([]*entity.Reminder, error)
	UpdateReminder(ctx context.Context, id int64, req *entity.ReminderRequest) (*entity.Reminder, error)
	DeleteReminder(ctx context.Context, id int64) error
	MarkReminderDone(ctx context.Context, id int64) error
}
