package database

import (
	"context"

	"github.com/ds124wfegd/reminder-engine/internal/entity"
)

// ReminderRepository persists reminder records. GetByID returns
// (nil, nil) for a missing reminder: an alarm firing for a deleted
// reminder is an expected race, not a failure.
type ReminderRepository interface {
	// Create stores the reminder and returns its allocated id. IDs are
	// always even; see entity.MarkDoneSlot.
	Create(ctx context.Context, reminder *entity.Reminder) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.Reminder, error)
	GetAll(ctx context.Context) ([]*entity.Reminder, error)
	// Update persists the reminder. With notify set, a change event is
	// published for list listeners; the scheduling engine updates with
	// notify false.
	Update(ctx context.Context, reminder *entity.Reminder, notify bool) error
	Delete(ctx context.Context, id int64) error
}

// ChangeNotifier broadcasts that a reminder record changed.
type ChangeNotifier interface {
	ReminderChanged(ctx context.Context, id int64) error
}
