package entity

import (
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusNotified  Status = "notified"
	StatusDone      Status = "done"
)

// Reminder is a single scheduled message. IDs are always even: the odd
// value id+1 is reserved as the mark-done alarm slot of the same
// reminder, so two reminders can never collide on a slot.
type Reminder struct {
	ID            int64     `json:"id" db:"id"`
	Text          string    `json:"text" db:"text"`
	DueAt         time.Time `json:"due_at" db:"due_at"`
	Status        Status    `json:"status" db:"status"`
	Nagging       bool      `json:"nagging" db:"nagging"`
	NagIntervalMs int64     `json:"nag_interval_ms" db:"nag_interval_ms"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// NagInterval is only meaningful when Nagging is set.
func (r *Reminder) NagInterval() time.Duration {
	return time.Duration(r.NagIntervalMs) * time.Millisecond
}

type ReminderRequest struct {
	Text          string    `json:"text" binding:"required"`
	DueAt         time.Time `json:"due_at" binding:"required"`
	Nagging       bool      `json:"nagging"`
	NagIntervalMs int64     `json:"nag_interval_ms"`
}

func (req *ReminderRequest) Validate() error {
	if req.Nagging && req.NagIntervalMs <= 0 {
		return ErrInvalidNagInterval
	}
	return nil
}
