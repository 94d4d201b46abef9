package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualScheduler collects callbacks so tests decide when timers fire.
type manualScheduler struct {
	mu    sync.Mutex
	calls []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (s *manualScheduler) schedule(d time.Duration, f func()) Stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	s.calls = append(s.calls, t)
	return t
}

func (s *manualScheduler) fire(i int) {
	s.mu.Lock()
	t := s.calls[i]
	s.mu.Unlock()
	if !t.stopped {
		t.f()
	}
}

func TestBoard_PostAndExpire(t *testing.T) {
	sched := &manualScheduler{}
	b := NewBoard(WithScheduler(sched.schedule))

	b.Success("Standard plan added!")
	n, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, KindSuccess, n.Kind)
	assert.Equal(t, "Standard plan added!", n.Message)
	require.Len(t, sched.calls, 1)
	assert.Equal(t, DefaultTTL, sched.calls[0].d)
	assert.Equal(t, 1, b.Pending())

	sched.fire(0)
	_, ok = b.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, b.Pending())
}

func TestBoard_LatestReplacesPrior(t *testing.T) {
	sched := &manualScheduler{}
	b := NewBoard(WithScheduler(sched.schedule))

	b.Info("first")
	b.Info("second")
	n, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "second", n.Message)
	assert.Equal(t, 2, b.Pending())

	// The first timer still fires and clears the board.
	sched.fire(0)
	_, ok = b.Current()
	assert.False(t, ok)

	// The second timer finds nothing to clear.
	sched.fire(1)
	_, ok = b.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, b.Pending())
}

func TestBoard_SubscribeReceivesEvents(t *testing.T) {
	sched := &manualScheduler{}
	b := NewBoard(WithScheduler(sched.schedule))

	events, cancel := b.Subscribe()
	defer cancel()

	b.Error("Payment failed. Please try again.")
	ev := <-events
	assert.Equal(t, EventPosted, ev.Type)
	require.NotNil(t, ev.Notification)
	assert.Equal(t, KindError, ev.Notification.Kind)

	sched.fire(0)
	ev = <-events
	assert.Equal(t, EventCleared, ev.Type)
	assert.Nil(t, ev.Notification)
}

func TestBoard_CancelClosesSubscription(t *testing.T) {
	b := NewBoard(WithScheduler((&manualScheduler{}).schedule))
	events, cancel := b.Subscribe()
	cancel()
	cancel()

	_, open := <-events
	assert.False(t, open)
}

func TestBoard_CloseStopsTimers(t *testing.T) {
	sched := &manualScheduler{}
	b := NewBoard(WithScheduler(sched.schedule))
	events, _ := b.Subscribe()

	b.Info("pending")
	<-events
	b.Close()

	assert.True(t, sched.calls[0].stopped)
	assert.Equal(t, 0, b.Pending())
	_, open := <-events
	assert.False(t, open)

	b.Info("ignored after close")
	_, ok := b.Current()
	assert.False(t, ok)
}

func TestBoard_RealTimerClears(t *testing.T) {
	b := NewBoard(WithTTL(10 * time.Millisecond))
	defer b.Close()

	b.Warning("Login to book appointment")
	require.Eventually(t, func() bool {
		_, ok := b.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestBoard_ClockStampsNotifications(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBoard(WithScheduler((&manualScheduler{}).schedule), WithClock(func() time.Time { return fixed }))
	b.Info("hello")
	n, _ := b.Current()
	assert.Equal(t, fixed, n.PostedAt)
}
