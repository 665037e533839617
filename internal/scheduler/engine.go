// Package scheduler decides when reminders fire and what happens when
// they do. It owns the alarm registrations for every reminder and the
// nag repetition cycle.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/reminder-engine/internal/database"
	"github.com/ds124wfegd/reminder-engine/internal/entity"
	"github.com/ds124wfegd/reminder-engine/internal/notify"
	"github.com/ds124wfegd/reminder-engine/pkg/alarm"

	"github.com/sirupsen/logrus"
)

type Engine struct {
	repo      database.ReminderRepository
	registry  alarm.Registry
	presenter notify.Presenter
	now       func() time.Time

	mu    sync.Mutex
	locks map[int64]*reminderLock
}

type reminderLock struct {
	mu   sync.Mutex
	refs int
}

func NewEngine(repo database.ReminderRepository, registry alarm.Registry, presenter notify.Presenter) *Engine {
	return &Engine{
		repo:      repo,
		registry:  registry,
		presenter: presenter,
		now:       time.Now,
		locks:     make(map[int64]*reminderLock),
	}
}

// lockReminder serializes handling per reminder id, so an alarm firing
// and a concurrent edit or mark-done never interleave their
// read-modify-write on status. Entries are reference counted and
// dropped when the last holder unlocks, keeping the map bounded by the
// number of in-flight operations.
func (e *Engine) lockReminder(id int64) func() {
	e.mu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &reminderLock{}
		e.locks[id] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, id)
		}
		e.mu.Unlock()
	}
}

// ScheduleReminder registers the NOTIFY alarm at the reminder's due
// time. A due time in the past is not an error, just nothing to do.
func (e *Engine) ScheduleReminder(ctx context.Context, reminder *entity.Reminder) error {
	if !reminder.DueAt.After(e.now()) {
		logrus.Infof("Reminder %d is due in the past (%s), not scheduling",
			reminder.ID, reminder.DueAt.Format(time.RFC3339))
		return nil
	}

	return e.registry.Schedule(ctx, entity.NewNotifyRequest(reminder.ID, reminder.DueAt))
}

// CancelReminder withdraws any visible notification for the reminder
// and cancels its pending alarms in both slots. Safe to call for ids
// with nothing pending.
func (e *Engine) CancelReminder(ctx context.Context, id int64) error {
	unlock := e.lockReminder(id)
	defer unlock()

	return e.cancel(ctx, id)
}

func (e *Engine) cancel(ctx context.Context, id int64) error {
	if err := e.presenter.Withdraw(ctx, id); err != nil {
		logrus.Errorf("Failed to withdraw notification for reminder %d: %v", id, err)
	}

	if err := e.registry.Cancel(ctx, entity.NotifySlot(id)); err != nil {
		return fmt.Errorf("failed to cancel notify alarm for reminder %d: %w", id, err)
	}
	if err := e.registry.Cancel(ctx, entity.MarkDoneSlot(id)); err != nil {
		return fmt.Errorf("failed to cancel mark-done alarm for reminder %d: %w", id, err)
	}

	return nil
}

// ApplyEdit loads the reminder, applies the edit, persists it and swaps
// the alarm registrations for the new state, all inside the reminder's
// critical section. Persisting outside that section would let a firing
// alarm interleave its own status write with the edit's full-row write.
// A reminder already marked done stays done and gets no new alarm.
func (e *Engine) ApplyEdit(ctx context.Context, id int64, apply func(*entity.Reminder)) (*entity.Reminder, error) {
	unlock := e.lockReminder(id)
	defer unlock()

	reminder, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder %d: %w", id, err)
	}
	if reminder == nil {
		return nil, entity.ErrReminderNotFound
	}

	apply(reminder)
	reminder.UpdatedAt = e.now()
	if err := e.repo.Update(ctx, reminder, true); err != nil {
		return nil, err
	}

	if err := e.cancel(ctx, id); err != nil {
		return nil, err
	}

	if reminder.Status == entity.StatusDone {
		return reminder, nil
	}

	if err := e.ScheduleReminder(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

// HandleFired processes one fired alarm event. The reminder may have
// been deleted between registration and fire time; that race is
// expected and the event is silently dropped.
func (e *Engine) HandleFired(ctx context.Context, event entity.FireEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	unlock := e.lockReminder(event.ReminderID)
	defer unlock()

	reminder, err := e.repo.GetByID(ctx, event.ReminderID)
	if err != nil {
		return fmt.Errorf("failed to load reminder %d: %w", event.ReminderID, err)
	}
	if reminder == nil {
		logrus.Debugf("Alarm fired for deleted reminder %d, dropping event", event.ReminderID)
		return nil
	}

	return e.dispatch(ctx, reminder, event)
}

// Restore re-registers NOTIFY alarms for stored reminders that are
// still scheduled. Run once at startup; replace semantics make it
// idempotent against alarms that already survived in the registry.
func (e *Engine) Restore(ctx context.Context) error {
	reminders, err := e.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list reminders for restore: %w", err)
	}

	restored := 0
	for _, reminder := range reminders {
		if reminder.Status != entity.StatusScheduled {
			continue
		}
		if err := e.ScheduleReminder(ctx, reminder); err != nil {
			logrus.Errorf("Failed to restore alarm for reminder %d: %v", reminder.ID, err)
			continue
		}
		restored++
	}

	logrus.Infof("Restored alarms for %d scheduled reminders", restored)
	return nil
}
