package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingRefresh(count *atomic.Int32) RefreshFunc {
	return func(ctx context.Context) (*Session, error) {
		n := count.Add(1)
		now := time.Now()
		return &Session{
			Token:     fmt.Sprintf("jwt-%d", n),
			IssuedAt:  now,
			ExpiresAt: now.Add(5 * time.Minute),
		}, nil
	}
}

func TestManager_InitialRefresh(t *testing.T) {
	var count atomic.Int32
	m := NewManager(countingRefresh(&count), time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return m.Current() != nil
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "jwt-1", m.Token())
	assert.Equal(t, int32(1), count.Load())

	cancel()
	<-done
}

func TestManager_DebounceCoalescesTriggers(t *testing.T) {
	var count atomic.Int32
	m := NewManager(countingRefresh(&count), time.Hour, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	require.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, 5*time.Millisecond)

	// a burst of refresh requests inside one settling window
	for i := 0; i < 10; i++ {
		m.RequestRefresh()
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return count.Load() == 2 }, time.Second, 5*time.Millisecond)

	// no further refreshes after the window drains
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(2), count.Load())
}

func TestManager_SessionsReplacedNotMutated(t *testing.T) {
	var count atomic.Int32
	m := NewManager(countingRefresh(&count), time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Current() != nil }, time.Second, 5*time.Millisecond)
	first := m.Current()

	m.RequestRefresh()
	require.Eventually(t, func() bool { return m.Current() != first }, time.Second, 5*time.Millisecond)

	// the first session value is untouched by the refresh
	assert.Equal(t, "jwt-1", first.Token)
	assert.Equal(t, "jwt-2", m.Current().Token)
}

func TestManager_PublishesToSubscribers(t *testing.T) {
	var count atomic.Int32
	m := NewManager(countingRefresh(&count), time.Hour, 10*time.Millisecond)
	sub := m.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	select {
	case s := <-sub:
		assert.Equal(t, "jwt-1", s.Token)
	case <-time.After(time.Second):
		t.Fatal("no session published")
	}
}

func TestManager_RefreshErrorKeepsLastSession(t *testing.T) {
	var count atomic.Int32
	refresh := func(ctx context.Context) (*Session, error) {
		if count.Add(1) > 1 {
			return nil, fmt.Errorf("upstream down")
		}
		return &Session{Token: "jwt-1", IssuedAt: time.Now(), ExpiresAt: time.Now().Add(time.Minute)}, nil
	}
	m := NewManager(refresh, time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Current() != nil }, time.Second, 5*time.Millisecond)

	m.RequestRefresh()
	require.Eventually(t, func() bool { return count.Load() >= 2 }, time.Second, 5*time.Millisecond)

	// failed refresh leaves the previous session in place
	assert.Equal(t, "jwt-1", m.Token())
}
