package idem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_PutNX(t *testing.T) {
	m := NewMemory()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	ctx := context.Background()

	ok, err := m.PutNX(ctx, "7:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.PutNX(ctx, "7:abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second claim within ttl is refused")

	ok, err = m.PutNX(ctx, "8:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	clock = clock.Add(time.Minute)
	ok, err = m.PutNX(ctx, "7:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired keys can be claimed again")
}

func TestMemory_PutNXLeavesOtherKeysToTheSweeper(t *testing.T) {
	m := NewMemory()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	ctx := context.Background()

	for _, key := range []string{"1:a", "2:a", "3:a"} {
		ok, err := m.PutNX(ctx, key, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
	}

	clock = clock.Add(time.Minute)
	ok, err := m.PutNX(ctx, "4:a", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, m.keys, 4, "a claim only looks at its own key")

	assert.Equal(t, 3, m.Sweep())
	assert.Len(t, m.keys, 1)
	assert.Zero(t, m.Sweep())

	ok, err = m.PutNX(ctx, "4:a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "unexpired keys survive a sweep")
}

func TestMemory_RunSweeperStopsOnDone(t *testing.T) {
	m := NewMemory()
	ok, err := m.PutNX(context.Background(), "1:a", time.Nanosecond)
	require.NoError(t, err)
	require.True(t, ok)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		m.RunSweeper(done, time.Millisecond)
		close(stopped)
	}()

	assert.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.keys) == 0
	}, time.Second, time.Millisecond)

	close(done)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
