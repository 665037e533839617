package alarm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/reminder-engine/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistryReplaceSemantics(t *testing.T) {
	registry := NewMemoryRegistry()
	ctx := context.Background()

	first := entity.NewNotifyRequest(10, time.Now().Add(time.Hour))
	second := entity.NewNotifyRequest(10, time.Now().Add(2*time.Hour))

	require.NoError(t, registry.Schedule(ctx, first))
	require.NoError(t, registry.Schedule(ctx, second))

	assert.Equal(t, 1, registry.Len())
	pending, ok := registry.Pending(entity.NotifySlot(10))
	require.True(t, ok)
	assert.Equal(t, second.FireAt, pending.FireAt)
}

func TestMemoryRegistryDistinctSlots(t *testing.T) {
	registry := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, registry.Schedule(ctx, entity.NewNotifyRequest(10, time.Now().Add(time.Hour))))
	require.NoError(t, registry.Schedule(ctx, entity.NewMarkDoneRequest(10, time.Now().Add(time.Hour))))

	assert.Equal(t, 2, registry.Len())
}

func TestMemoryRegistryCancel(t *testing.T) {
	registry := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, registry.Schedule(ctx, entity.NewNotifyRequest(10, time.Now().Add(time.Hour))))
	require.NoError(t, registry.Cancel(ctx, entity.NotifySlot(10)))
	assert.Equal(t, 0, registry.Len())

	// Cancelling a slot with nothing pending must not fail.
	require.NoError(t, registry.Cancel(ctx, entity.NotifySlot(10)))
	require.NoError(t, registry.Cancel(ctx, entity.MarkDoneSlot(10)))
}

type eventCollector struct {
	mu     sync.Mutex
	events []entity.FireEvent
	seen   chan struct{}
}

func newEventCollector() *eventCollector {
	return &eventCollector{seen: make(chan struct{}, 16)}
}

func (c *eventCollector) handle(ctx context.Context, event entity.FireEvent) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	c.seen <- struct{}{}
	return nil
}

func (c *eventCollector) all() []entity.FireEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.FireEvent(nil), c.events...)
}

func (c *eventCollector) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.seen:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
}

func TestMemoryRegistryDelivery(t *testing.T) {
	registry := NewMemoryRegistry()
	collector := newEventCollector()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = registry.Run(ctx, collector.handle)
	}()

	require.NoError(t, registry.Schedule(ctx, entity.NewNotifyRequest(10, time.Now().Add(20*time.Millisecond))))
	require.NoError(t, registry.Schedule(ctx, entity.NewNotifyRequest(12, time.Now().Add(40*time.Millisecond))))

	collector.wait(t, 2)

	events := collector.all()
	require.Len(t, events, 2)
	for _, event := range events {
		assert.Equal(t, entity.ActionNotify, event.Action)
	}
	assert.Equal(t, 0, registry.Len())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not stop on context cancel")
	}
}

func TestMemoryRegistryCancelBeforeFire(t *testing.T) {
	registry := NewMemoryRegistry()
	collector := newEventCollector()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = registry.Run(ctx, collector.handle) }()

	require.NoError(t, registry.Schedule(ctx, entity.NewNotifyRequest(10, time.Now().Add(60*time.Millisecond))))
	require.NoError(t, registry.Cancel(ctx, entity.NotifySlot(10)))

	time.Sleep(120 * time.Millisecond)
	assert.Empty(t, collector.all())
}
