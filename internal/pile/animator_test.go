package pile

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// manualClock fires callbacks only when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs every due callback in deadline order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// FireAll runs every callback, stopped or not, to mimic timers racing Close.
func (c *manualClock) FireAll() {
	c.mu.Lock()
	all := append([]*manualTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range all {
		t.f()
	}
}

func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func newTestAnimator(t *testing.T) (*Animator, *manualClock) {
	t.Helper()
	opts := DefaultOptions()
	opts.Seed = 1
	clock := &manualClock{}
	a := NewAnimator(New(opts), clock)
	t.Cleanup(a.Close)
	return a, clock
}

func TestAnimator_ConvergesOnTimers(t *testing.T) {
	a, clock := newTestAnimator(t)

	a.OnInputsChanged("4000", "0")
	s := a.Snapshot()
	assert.Equal(t, 16, s.Target)
	assert.Equal(t, 16, s.Visible)
	assert.False(t, s.Settled)
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(DefaultEnterDuration)
	// Snapshot is queued behind the completion, so it observes it.
	assert.True(t, a.Settled())

	a.OnInputsChanged("4000", "2000")
	s = a.Snapshot()
	assert.Equal(t, 8, s.Visible)
	assert.Len(t, s.Tokens, 16)

	clock.Advance(DefaultExitDuration - time.Millisecond)
	assert.False(t, a.Settled())
	clock.Advance(time.Millisecond)

	s = a.Snapshot()
	assert.True(t, s.Settled)
	assert.Len(t, s.Tokens, 8)
	assert.Equal(t, 8, s.Pool)
}

func TestAnimator_SetTargetAndInputs(t *testing.T) {
	a, clock := newTestAnimator(t)

	a.SetTarget(3)
	a.SetInputs(4000, 4000)
	// Timers are registered on the loop; wait for it before advancing.
	_ = a.Snapshot()
	clock.Advance(time.Hour)

	s := a.Snapshot()
	assert.Equal(t, 0, s.Target)
	assert.Empty(t, s.Tokens)
	assert.Equal(t, 3, s.Pool)
	assert.True(t, s.Settled)
}

func TestAnimator_CloseStopsTimers(t *testing.T) {
	a, clock := newTestAnimator(t)

	a.SetTarget(5)
	a.SetTarget(2)
	require.Equal(t, 5, len(a.VisibleTokens()))
	require.Equal(t, 2, clock.Pending())

	a.Close()
	assert.Equal(t, 0, clock.Pending())

	// Callbacks that slip past Stop must not touch the torn-down pile.
	clock.FireAll()
	assert.Nil(t, a.VisibleTokens())
	assert.True(t, a.Settled())

	a.OnInputsChanged("4000", "0")
	a.Close()
}

func TestAnimator_ConcurrentCallers(t *testing.T) {
	a, clock := newTestAnimator(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				a.SetTarget((n*7 + j) % 25)
				_ = a.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	a.SetTarget(10)
	_ = a.Snapshot()
	clock.Advance(time.Hour)
	s := a.Snapshot()
	assert.Equal(t, 10, s.Visible)
	assert.Len(t, s.Tokens, 10)
	assert.True(t, s.Settled)
}

func TestAnimator_RealClock(t *testing.T) {
	opts := DefaultOptions()
	opts.EnterDuration = time.Millisecond
	opts.ExitDuration = time.Millisecond
	a := NewAnimator(New(opts), nil)
	defer a.Close()

	a.SetTarget(4)
	require.Eventually(t, a.Settled, time.Second, 5*time.Millisecond)
	assert.Len(t, a.VisibleTokens(), 4)
}
