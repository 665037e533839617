package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/reminder-engine/internal/database"
	"github.com/ds124wfegd/reminder-engine/internal/entity"

	"github.com/sirupsen/logrus"
)

type reminderRepository struct {
	db       *sql.DB
	notifier database.ChangeNotifier
}

// NewReminderRepository returns a PostgreSQL-backed reminder store.
// notifier may be nil when no change events are wanted.
func NewReminderRepository(db *sql.DB, notifier database.ChangeNotifier) database.ReminderRepository {
	return &reminderRepository{db: db, notifier: notifier}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *entity.Reminder) (int64, error) {
	query := `INSERT INTO reminders (text, due_at, status, nagging, nag_interval_ms, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		reminder.Text,
		reminder.DueAt,
		reminder.Status,
		reminder.Nagging,
		reminder.NagIntervalMs,
		reminder.CreatedAt,
		reminder.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create reminder: %w", err)
	}

	return id, nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id int64) (*entity.Reminder, error) {
	query := `SELECT id, text, due_at, status, nagging, nag_interval_ms, created_at, updated_at
	          FROM reminders WHERE id = $1`

	var reminder entity.Reminder
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reminder.ID,
		&reminder.Text,
		&reminder.DueAt,
		&reminder.Status,
		&reminder.Nagging,
		&reminder.NagIntervalMs,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder %d: %w", id, err)
	}

	return &reminder, nil
}

func (r *reminderRepository) GetAll(ctx context.Context) ([]*entity.Reminder, error) {
	query := `SELECT id, text, due_at, status, nagging, nag_interval_ms, created_at, updated_at
	          FROM reminders ORDER BY due_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*entity.Reminder
	for rows.Next() {
		var reminder entity.Reminder
		if err := rows.Scan(
			&reminder.ID,
			&reminder.Text,
			&reminder.DueAt,
			&reminder.Status,
			&reminder.Nagging,
			&reminder.NagIntervalMs,
			&reminder.CreatedAt,
			&reminder.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, &reminder)
	}

	return reminders, rows.Err()
}

func (r *reminderRepository) Update(ctx context.Context, reminder *entity.Reminder, notify bool) error {
	query := `UPDATE reminders
	          SET text = $1, due_at = $2, status = $3, nagging = $4, nag_interval_ms = $5, updated_at = $6
	          WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		reminder.Text,
		reminder.DueAt,
		reminder.Status,
		reminder.Nagging,
		reminder.NagIntervalMs,
		reminder.UpdatedAt,
		reminder.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reminder %d: %w", reminder.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return entity.ErrReminderNotFound
	}

	if notify && r.notifier != nil {
		if err := r.notifier.ReminderChanged(ctx, reminder.ID); err != nil {
			logrus.Errorf("Failed to publish change event for reminder %d: %v", reminder.ID, err)
		}
	}

	return nil
}

func (r *reminderRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return entity.ErrReminderNotFound
	}

	return nil
}
