// Package alarm provides the exact wake alarm facility the scheduling
// engine registers its timers with. Every pending alarm lives in a slot;
// scheduling into an occupied slot replaces the previous alarm, and
// cancelling an empty slot is a no-op.
package alarm

import (
	"context"

	"github.com/ds124wfegd/reminder-engine/internal/entity"
)

// Handler consumes fired alarm events. An error terminates handling of
// that single event only; the registry keeps delivering the rest.
type Handler func(ctx context.Context, event entity.FireEvent) error

type Registry interface {
	// Schedule registers a one-shot alarm. Set semantics: a pending
	// alarm under the same slot is replaced, never enqueued behind.
	Schedule(ctx context.Context, req entity.TimerRequest) error
	// Cancel removes the pending alarm for a slot if present.
	Cancel(ctx context.Context, slot int64) error
	// Run blocks delivering fired alarms to handler until ctx is done.
	Run(ctx context.Context, handler Handler) error
}
