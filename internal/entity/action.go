package entity

import (
	"fmt"
	"time"
)

// Action selects the behavior executed when an alarm fires.
type Action string

const (
	// ActionNotify shows the notification for a due reminder and, for
	// nagging reminders, starts the nag cycle.
	ActionNotify Action = "notify"
	// ActionNag re-shows the notification and registers the next
	// repetition.
	ActionNag Action = "nag"
	// ActionMarkDone cancels any further alarms and marks the reminder
	// done.
	ActionMarkDone Action = "mark_done"
)

func (a Action) Valid() bool {
	switch a {
	case ActionNotify, ActionNag, ActionMarkDone:
		return true
	}
	return false
}

// FireEvent is delivered to the scheduling engine when a registered
// alarm fires. NextNagAt carries the timestamp of the following
// repetition and is set only for ActionNag.
type FireEvent struct {
	ReminderID int64     `json:"reminder_id"`
	Action     Action    `json:"action"`
	NextNagAt  time.Time `json:"next_nag_at,omitempty"`
}

// Validate rejects events that can only result from a broken encoding.
// Such events must never be processed with defaults filled in.
func (e *FireEvent) Validate() error {
	// Zero is treated as missing, not as a valid id: stored ids start
	// at 2, and an absent reminder_id field decodes to zero.
	if e.ReminderID <= 0 {
		return ErrMissingReminderID
	}
	if !e.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, e.Action)
	}
	if e.Action == ActionNag && e.NextNagAt.IsZero() {
		return fmt.Errorf("%w: nag event without next repetition time", ErrMalformedEvent)
	}
	return nil
}

// TimerRequest is one alarm registration. Registering a request whose
// slot already holds a pending alarm replaces that alarm.
type TimerRequest struct {
	Slot   int64
	FireAt time.Time
	Event  FireEvent
}

// NotifySlot is the alarm slot shared by the NOTIFY/NAG cycle of a
// reminder, so a new registration always replaces the previous one.
func NotifySlot(id int64) int64 { return id }

// MarkDoneSlot must never collide with any reminder's notify slot,
// which is why reminder ids are restricted to even values.
func MarkDoneSlot(id int64) int64 { return id + 1 }

func NewNotifyRequest(id int64, fireAt time.Time) TimerRequest {
	return TimerRequest{
		Slot:   NotifySlot(id),
		FireAt: fireAt,
		Event:  FireEvent{ReminderID: id, Action: ActionNotify},
	}
}

func NewNagRequest(id int64, fireAt, nextNagAt time.Time) TimerRequest {
	return TimerRequest{
		Slot:   NotifySlot(id),
		FireAt: fireAt,
		Event:  FireEvent{ReminderID: id, Action: ActionNag, NextNagAt: nextNagAt},
	}
}

func NewMarkDoneRequest(id int64, fireAt time.Time) TimerRequest {
	return TimerRequest{
		Slot:   MarkDoneSlot(id),
		FireAt: fireAt,
		Event:  FireEvent{ReminderID: id, Action: ActionMarkDone},
	}
}
