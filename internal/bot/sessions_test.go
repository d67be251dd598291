package bot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_GetOrCreate(t *testing.T) {
	store := NewSessionStore(24 * time.Hour)

	s := store.GetOrCreate(42)
	require.NotNil(t, s)
	assert.Equal(t, StepAwaitName, s.Step)
	assert.Equal(t, int64(42), s.ApplicantID)

	again := store.GetOrCreate(42)
	assert.Same(t, s, again)
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_ResetKeepsPendingJoinRequest(t *testing.T) {
	store := NewSessionStore(24 * time.Hour)

	s := store.GetOrCreate(42)
	s.GroupChatID = -100500
	s.Step = StepAwaitClass
	s.Name = "иванов иван"

	fresh := store.Reset(42)

	assert.Equal(t, int64(-100500), fresh.GroupChatID)
	assert.Equal(t, StepAwaitName, fresh.Step)
	assert.Empty(t, fresh.Name)
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore(24 * time.Hour)

	store.GetOrCreate(42)
	store.Delete(42)

	_, ok := store.Get(42)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

// Handlers mutate a session under its own lock while the sweeper and /start
// walk the store; the store must take the session lock before reading its
// fields. Run with the race detector.
func TestSessionStore_ConcurrentSweepAndFlow(t *testing.T) {
	store := NewSessionStore(24 * time.Hour)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s := store.GetOrCreate(42)
			s.mu.Lock()
			s.GroupChatID = -100500
			advance(s, "Иванов Иван", 1950, 2030)
			s.mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			store.Sweep(time.Now())
			store.Reset(42)
		}
	}()

	wg.Wait()
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_SweepEvictsOnlyExpired(t *testing.T) {
	store := NewSessionStore(24 * time.Hour)

	stale := store.GetOrCreate(1)
	stale.UpdatedAt = time.Now().Add(-25 * time.Hour)
	store.GetOrCreate(2)

	evicted := store.Sweep(time.Now())

	assert.Equal(t, 1, evicted)
	_, ok := store.Get(1)
	assert.False(t, ok)
	_, ok = store.Get(2)
	assert.True(t, ok)
}
