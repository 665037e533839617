package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/ds124wfegd/reminder-engine/internal/entity"

	"github.com/sirupsen/logrus"
)

// MemoryRegistry keeps pending alarms in process memory. Registrations
// do not survive a restart, so it is meant for embedded deployments and
// tests; production setups use RedisRegistry.
type MemoryRegistry struct {
	mu      sync.Mutex
	pending map[int64]entity.TimerRequest
	wake    chan struct{}
	now     func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		pending: make(map[int64]entity.TimerRequest),
		wake:    make(chan struct{}, 1),
		now:     time.Now,
	}
}

func (m *MemoryRegistry) Schedule(ctx context.Context, req entity.TimerRequest) error {
	m.mu.Lock()
	m.pending[req.Slot] = req
	m.mu.Unlock()

	m.poke()
	return nil
}

func (m *MemoryRegistry) Cancel(ctx context.Context, slot int64) error {
	m.mu.Lock()
	delete(m.pending, slot)
	m.mu.Unlock()

	m.poke()
	return nil
}

// Len reports the number of pending alarms.
func (m *MemoryRegistry) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Pending returns the alarm currently registered under slot.
func (m *MemoryRegistry) Pending(slot int64) (entity.TimerRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.pending[slot]
	return req, ok
}

// poke signals the run loop to re-evaluate the earliest alarm.
func (m *MemoryRegistry) poke() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run waits on a single timer reset to the earliest pending alarm and
// delivers due events to handler. The wake channel short-circuits the
// wait whenever the pending set changes.
func (m *MemoryRegistry) Run(ctx context.Context, handler Handler) error {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		m.deliverDue(ctx, handler)

		next, ok := m.earliest()
		if ok {
			wait := next.Sub(m.now())
			if wait < 0 {
				wait = 0
			}
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			if ok && !timer.Stop() {
				<-timer.C
			}
			return ctx.Err()
		case <-m.wake:
			if ok && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}
	}
}

func (m *MemoryRegistry) earliest() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var next time.Time
	for _, req := range m.pending {
		if next.IsZero() || req.FireAt.Before(next) {
			next = req.FireAt
		}
	}
	return next, !next.IsZero()
}

func (m *MemoryRegistry) deliverDue(ctx context.Context, handler Handler) {
	now := m.now()

	m.mu.Lock()
	var due []entity.TimerRequest
	for slot, req := range m.pending {
		if !req.FireAt.After(now) {
			due = append(due, req)
			delete(m.pending, slot)
		}
	}
	m.mu.Unlock()

	for _, req := range due {
		if err := handler(ctx, req.Event); err != nil {
			logrus.Errorf("Failed to handle fired alarm for slot %d: %v", req.Slot, err)
		}
	}
}
