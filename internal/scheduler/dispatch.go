package scheduler

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/reminder-engine/internal/entity"
)

// dispatch maps a fired event to its behavior. An action that matches
// no branch means the event encoding is corrupted; that fault is never
// absorbed here.
func (e *Engine) dispatch(ctx context.Context, reminder *entity.Reminder, event entity.FireEvent) error {
	switch event.Action {
	case entity.ActionNotify:
		return e.notify(ctx, reminder)
	case entity.ActionNag:
		return e.nag(ctx, reminder, event)
	case entity.ActionMarkDone:
		return e.markDone(ctx, reminder)
	default:
		return fmt.Errorf("%w: %q", entity.ErrUnknownAction, event.Action)
	}
}

// notify shows the due reminder and, for nagging reminders, starts the
// repetition cycle: the first NAG fires at dueAt+interval and carries
// the timestamp of the repetition after it.
func (e *Engine) notify(ctx context.Context, reminder *entity.Reminder) error {
	if err := e.show(ctx, reminder); err != nil {
		return err
	}

	if reminder.Status == entity.StatusDone {
		// Mark-done won the race with this delivery. Re-showing above
		// is acceptable collateral, resurrecting the schedule is not.
		return nil
	}

	reminder.Status = entity.StatusNotified
	reminder.UpdatedAt = e.now()
	if err := e.repo.Update(ctx, reminder, false); err != nil {
		return fmt.Errorf("failed to persist notified status for reminder %d: %w", reminder.ID, err)
	}

	if !reminder.Nagging {
		return nil
	}

	next := reminder.DueAt.Add(reminder.NagInterval())
	return e.registry.Schedule(ctx,
		entity.NewNagRequest(reminder.ID, next, next.Add(reminder.NagInterval())))
}

// nag re-shows the notification and registers the next repetition at
// the carried timestamp. Deriving each fire time from the previous
// carried value keeps the cadence at exact multiples of the interval.
func (e *Engine) nag(ctx context.Context, reminder *entity.Reminder, event entity.FireEvent) error {
	if err := e.show(ctx, reminder); err != nil {
		return err
	}

	if reminder.Status == entity.StatusDone {
		return nil
	}

	return e.registry.Schedule(ctx,
		entity.NewNagRequest(reminder.ID, event.NextNagAt, event.NextNagAt.Add(reminder.NagInterval())))
}

// markDone ends the reminder's cycle: any pending alarm is cancelled,
// the visible notification withdrawn, and the terminal status persisted.
func (e *Engine) markDone(ctx context.Context, reminder *entity.Reminder) error {
	if err := e.cancel(ctx, reminder.ID); err != nil {
		return err
	}

	reminder.Status = entity.StatusDone
	reminder.UpdatedAt = e.now()
	if err := e.repo.Update(ctx, reminder, false); err != nil {
		return fmt.Errorf("failed to persist done status for reminder %d: %w", reminder.ID, err)
	}

	return nil
}

func (e *Engine) show(ctx context.Context, reminder *entity.Reminder) error {
	if err := e.presenter.Show(ctx, reminder.ID, reminder.Text); err != nil {
		return fmt.Errorf("failed to show notification for reminder %d: %w", reminder.ID, err)
	}
	return nil
}
