package pile

import (
	"sync"
	"time"

	"shouldibuy/internal/logging"
)

// Clock schedules callbacks. It exists so tests can drive time by hand.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

// Stopper cancels a scheduled callback.
type Stopper interface {
	Stop() bool
}

// RealClock schedules with time.AfterFunc.
type RealClock struct{}

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Snapshot is a consistent view of an animated pile.
type Snapshot struct {
	Tokens  []TokenView
	Visible int
	Pool    int
	Target  int
	Settled bool
}

// Animator hosts a Pile on its own goroutine. Input changes and timer
// completions are queued onto that goroutine, so every transition runs to
// completion before the next one starts.
type Animator struct {
	pile  *Pile
	clock Clock

	ops    chan func()
	done   chan struct{}
	exited chan struct{}
	once   sync.Once

	// owned by the loop goroutine
	timers    map[uint64]Stopper
	nextTimer uint64
}

// NewAnimator starts the loop. Call Close to stop it.
func NewAnimator(p *Pile, clock Clock) *Animator {
	if clock == nil {
		clock = RealClock{}
	}
	a := &Animator{
		pile:   p,
		clock:  clock,
		ops:    make(chan func(), 64),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		timers: make(map[uint64]Stopper),
	}
	go a.run()
	return a
}

func (a *Animator) run() {
	defer close(a.exited)
	for {
		select {
		case <-a.done:
			a.shutdown()
			return
		case op := <-a.ops:
			op()
		}
	}
}

func (a *Animator) shutdown() {
	for id, t := range a.timers {
		t.Stop()
		delete(a.timers, id)
	}
	a.pile.Teardown()
	logging.Pile("animator stopped")
}

// do queues op onto the loop. It returns false once the animator is closed.
func (a *Animator) do(op func()) bool {
	select {
	case <-a.done:
		return false
	default:
	}
	select {
	case a.ops <- op:
		return true
	case <-a.done:
		return false
	}
}

func (a *Animator) schedule(tasks []Task) {
	for _, task := range tasks {
		task := task
		id := a.nextTimer
		a.nextTimer++
		a.timers[id] = a.clock.AfterFunc(task.Delay, func() {
			a.do(func() {
				delete(a.timers, id)
				a.pile.Complete(task)
			})
		})
	}
}

// OnInputsChanged queues a reconciliation for raw income and price fields.
// It does not wait for the pile to converge.
func (a *Animator) OnInputsChanged(income, price string) {
	a.do(func() { a.schedule(a.pile.OnInputsChanged(income, price)) })
}

// SetInputs queues a reconciliation for numeric inputs.
func (a *Animator) SetInputs(income, price float64) {
	a.do(func() { a.schedule(a.pile.SetInputs(income, price)) })
}

// SetTarget queues a reconciliation against an explicit target.
func (a *Animator) SetTarget(target int) {
	a.do(func() { a.schedule(a.pile.Reconcile(target)) })
}

// VisibleTokens returns the bags on screen. It returns nil after Close.
func (a *Animator) VisibleTokens() []TokenView {
	return a.Snapshot().Tokens
}

// Snapshot reads the pile on the loop goroutine. After Close it returns an
// empty, settled snapshot.
func (a *Animator) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	ok := a.do(func() {
		reply <- Snapshot{
			Tokens:  a.pile.VisibleTokens(),
			Visible: a.pile.VisibleCount(),
			Pool:    a.pile.PoolSize(),
			Target:  a.pile.Target(),
			Settled: a.pile.Settled(),
		}
	})
	if !ok {
		return Snapshot{Settled: true}
	}
	select {
	case s := <-reply:
		return s
	case <-a.exited:
		return Snapshot{Settled: true}
	}
}

// Settled reports whether no bag is mid-animation. A closed animator is
// settled.
func (a *Animator) Settled() bool {
	return a.Snapshot().Settled
}

// Close stops the loop, cancels pending timers and tears the pile down.
// Timers that already fired become no-ops.
func (a *Animator) Close() {
	a.once.Do(func() {
		close(a.done)
	})
	<-a.exited
}
