package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/reminder-engine/internal/entity"
	"github.com/ds124wfegd/reminder-engine/internal/scheduler"
	"github.com/ds124wfegd/reminder-engine/pkg/alarm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu        sync.Mutex
	reminders map[int64]*entity.Reminder
	nextID    int64
}

func newMemRepo() *memRepo {
	return &memRepo{reminders: make(map[int64]*entity.Reminder), nextID: 2}
}

func (m *memRepo) Create(ctx context.Context, reminder *entity.Reminder) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID += 2
	cp := *reminder
	cp.ID = id
	m.reminders[id] = &cp
	return id, nil
}

func (m *memRepo) GetByID(ctx context.Context, id int64) (*entity.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reminder, ok := m.reminders[id]
	if !ok {
		return nil, nil
	}
	cp := *reminder
	return &cp, nil
}

func (m *memRepo) GetAll(ctx context.Context) ([]*entity.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*entity.Reminder
	for _, reminder := range m.reminders {
		cp := *reminder
		all = append(all, &cp)
	}
	return all, nil
}

func (m *memRepo) Update(ctx context.Context, reminder *entity.Reminder, notify bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reminders[reminder.ID]; !ok {
		return entity.ErrReminderNotFound
	}
	cp := *reminder
	m.reminders[reminder.ID] = &cp
	return nil
}

func (m *memRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reminders, id)
	return nil
}

type noopPresenter struct{}

func (noopPresenter) Show(ctx context.Context, reminderID int64, text string) error { return nil }
func (noopPresenter) Withdraw(ctx context.Context, reminderID int64) error         { return nil }

func newTestService(t *testing.T) (ReminderService, *memRepo, *alarm.MemoryRegistry) {
	t.Helper()
	repo := newMemRepo()
	registry := alarm.NewMemoryRegistry()
	engine := scheduler.NewEngine(repo, registry, noopPresenter{})
	return NewReminderService(repo, engine), repo, registry
}

func TestCreateReminder(t *testing.T) {
	t.Run("creates with even id and registers the notify alarm", func(t *testing.T) {
		svc, _, registry := newTestService(t)
		due := time.Now().Add(time.Hour)

		reminder, err := svc.CreateReminder(context.Background(), &entity.ReminderRequest{
			Text:  "water plants",
			DueAt: due,
		})

		require.NoError(t, err)
		assert.Zero(t, reminder.ID%2)
		assert.Equal(t, entity.StatusScheduled, reminder.Status)

		pending, ok := registry.Pending(entity.NotifySlot(reminder.ID))
		require.True(t, ok)
		assert.Equal(t, due, pending.FireAt)
		assert.Equal(t, entity.ActionNotify, pending.Event.Action)
	})

	t.Run("rejects nagging without a positive interval", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.CreateReminder(context.Background(), &entity.ReminderRequest{
			Text:    "broken",
			DueAt:   time.Now().Add(time.Hour),
			Nagging: true,
		})

		assert.ErrorIs(t, err, entity.ErrInvalidNagInterval)
	})

	t.Run("past due time creates the reminder without an alarm", func(t *testing.T) {
		svc, _, registry := newTestService(t)

		reminder, err := svc.CreateReminder(context.Background(), &entity.ReminderRequest{
			Text:  "yesterday",
			DueAt: time.Now().Add(-time.Hour),
		})

		require.NoError(t, err)
		assert.NotZero(t, reminder.ID)
		assert.Equal(t, 0, registry.Len())
	})
}

func TestGetReminder(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetReminder(context.Background(), 404)
	assert.ErrorIs(t, err, entity.ErrReminderNotFound)
}

func TestUpdateReminder(t *testing.T) {
	t.Run("moves the alarm to the new due time", func(t *testing.T) {
		svc, _, registry := newTestService(t)
		ctx := context.Background()

		created, err := svc.CreateReminder(ctx, &entity.ReminderRequest{
			Text:  "standup",
			DueAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		newDue := time.Now().Add(3 * time.Hour)
		updated, err := svc.UpdateReminder(ctx, created.ID, &entity.ReminderRequest{
			Text:  "standup (moved)",
			DueAt: newDue,
		})
		require.NoError(t, err)
		assert.Equal(t, "standup (moved)", updated.Text)

		require.Equal(t, 1, registry.Len())
		pending, ok := registry.Pending(entity.NotifySlot(created.ID))
		require.True(t, ok)
		assert.Equal(t, newDue, pending.FireAt)
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.UpdateReminder(context.Background(), 404, &entity.ReminderRequest{
			Text:  "ghost",
			DueAt: time.Now().Add(time.Hour),
		})
		assert.ErrorIs(t, err, entity.ErrReminderNotFound)
	})
}

func TestDeleteReminder(t *testing.T) {
	svc, repo, registry := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateReminder(ctx, &entity.ReminderRequest{
		Text:  "obsolete",
		DueAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, 1, registry.Len())

	require.NoError(t, svc.DeleteReminder(ctx, created.ID))

	assert.Equal(t, 0, registry.Len())
	gone, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMarkReminderDone(t *testing.T) {
	t.Run("stops the cycle and persists the terminal status", func(t *testing.T) {
		svc, repo, registry := newTestService(t)
		ctx := context.Background()

		created, err := svc.CreateReminder(ctx, &entity.ReminderRequest{
			Text:          "meds",
			DueAt:         time.Now().Add(time.Hour),
			Nagging:       true,
			NagIntervalMs: 60000,
		})
		require.NoError(t, err)

		require.NoError(t, svc.MarkReminderDone(ctx, created.ID))

		stored, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusDone, stored.Status)
		assert.Equal(t, 0, registry.Len())
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		err := svc.MarkReminderDone(context.Background(), 404)
		assert.ErrorIs(t, err, entity.ErrReminderNotFound)
	})
}
