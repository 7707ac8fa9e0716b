// Package pile keeps a visual pile of money bags in step with how much a
// purchase leaves in the budget.
//
// A Pile is a plain state machine: Reconcile diffs the visible bags against a
// target and returns the Tasks the host must schedule. When a task's delay has
// elapsed the host hands it back through Complete. Nothing in this package
// starts goroutines or timers on its own; see Animator for a host that does.
package pile

import (
	"time"

	"shouldibuy/internal/logging"
)

const (
	DefaultExitDuration  = 1000 * time.Millisecond
	DefaultEnterDuration = 250 * time.Millisecond
)

// TaskKind identifies which transition a Task finishes.
type TaskKind int

const (
	TaskExit TaskKind = iota + 1
	TaskEnter
)

func (k TaskKind) String() string {
	switch k {
	case TaskExit:
		return "exit"
	case TaskEnter:
		return "enter"
	default:
		return "unknown"
	}
}

// Task is a deferred transition. The host waits Delay, then calls
// Pile.Complete with the same value. A task from before a Reset or Teardown
// is ignored.
type Task struct {
	Kind       TaskKind
	Delay      time.Duration
	IDs        []int
	Marker     uint64
	generation uint64
}

// Options configures a Pile.
type Options struct {
	ExitDuration  time.Duration
	EnterDuration time.Duration
	Curve         Curve
	// PoolLimit caps the hidden pool; the oldest hidden bags are dropped
	// first. Zero keeps every bag until teardown.
	PoolLimit int
	// Rand overrides the cosmetic randomness. When nil a source seeded from
	// Seed is used.
	Rand Rand
	Seed uint64
}

// DefaultOptions returns the stock animation timings and curve.
func DefaultOptions() Options {
	return Options{
		ExitDuration:  DefaultExitDuration,
		EnterDuration: DefaultEnterDuration,
		Curve:         DefaultCurve(),
	}
}

// Pile owns every bag ever shown by one host component.
type Pile struct {
	opts Options
	rng  Rand

	tokens   []Token
	index    map[int]int
	exiting  map[int]uint64
	entering map[int]uint64
	hidden   map[int]struct{}

	nextID     int
	marker     uint64
	generation uint64
	target     int
	torn       bool
}

// New creates an empty pile.
func New(opts Options) *Pile {
	if opts.ExitDuration <= 0 {
		opts.ExitDuration = DefaultExitDuration
	}
	if opts.EnterDuration <= 0 {
		opts.EnterDuration = DefaultEnterDuration
	}
	rng := opts.Rand
	if rng == nil {
		rng = NewRand(opts.Seed)
	}
	p := &Pile{opts: opts, rng: rng}
	p.clear()
	return p
}

func (p *Pile) clear() {
	p.tokens = nil
	p.index = make(map[int]int)
	p.exiting = make(map[int]uint64)
	p.entering = make(map[int]uint64)
	p.hidden = make(map[int]struct{})
	p.target = 0
}

// OnInputsChanged parses the raw income and price fields and reconciles the
// pile against the resulting target.
func (p *Pile) OnInputsChanged(income, price string) []Task {
	return p.SetInputs(ParseAmount(income), ParseAmount(price))
}

// SetInputs reconciles against the target for numeric inputs.
func (p *Pile) SetInputs(income, price float64) []Task {
	return p.Reconcile(p.opts.Curve.Target(income, price))
}

// Reconcile converges the visible bag count toward target. It returns at most
// one Task; nil means nothing needs to animate.
func (p *Pile) Reconcile(target int) []Task {
	if p.torn {
		return nil
	}
	if target < 0 {
		target = 0
	}
	p.target = target

	visible := p.visibleIDs()
	switch {
	case target < len(visible):
		return []Task{p.shrink(visible, len(visible)-target)}
	case target > len(visible):
		return []Task{p.grow(target - len(visible))}
	default:
		return nil
	}
}

// shrink marks the n most recently created visible bags as exiting.
func (p *Pile) shrink(visible []int, n int) Task {
	p.marker++
	ids := make([]int, 0, n)
	for i := len(visible) - 1; i >= 0 && len(ids) < n; i-- {
		id := visible[i]
		delete(p.entering, id)
		p.exiting[id] = p.marker
		ids = append(ids, id)
	}
	logging.PileDebug("shrink: %d bags exiting (target=%d)", len(ids), p.target)
	return Task{
		Kind:       TaskExit,
		Delay:      p.opts.ExitDuration,
		IDs:        ids,
		Marker:     p.marker,
		generation: p.generation,
	}
}

// grow reactivates pooled bags in creation order, then creates new ones.
func (p *Pile) grow(deficit int) Task {
	p.marker++
	ids := make([]int, 0, deficit)
	reused := 0

	for i := range p.tokens {
		if len(ids) == deficit {
			break
		}
		t := &p.tokens[i]
		if _, ok := p.hidden[t.ID]; !ok {
			continue
		}
		delete(p.hidden, t.ID)
		t.Visible = true
		p.entering[t.ID] = p.marker
		ids = append(ids, t.ID)
		reused++
	}

	for len(ids) < deficit {
		p.nextID++
		t := newToken(p.nextID, p.rng)
		t.Visible = true
		p.index[t.ID] = len(p.tokens)
		p.tokens = append(p.tokens, t)
		p.entering[t.ID] = p.marker
		ids = append(ids, t.ID)
	}

	logging.PileDebug("grow: %d reused, %d created (target=%d)", reused, len(ids)-reused, p.target)
	return Task{
		Kind:       TaskEnter,
		Delay:      p.opts.EnterDuration,
		IDs:        ids,
		Marker:     p.marker,
		generation: p.generation,
	}
}

// Complete applies a task whose delay has elapsed. It reports whether the
// task still applied; stale tasks are no-ops.
func (p *Pile) Complete(task Task) bool {
	if p.torn || task.generation != p.generation {
		return false
	}

	applied := false
	switch task.Kind {
	case TaskExit:
		for _, id := range task.IDs {
			if m, ok := p.exiting[id]; !ok || m != task.Marker {
				continue
			}
			delete(p.exiting, id)
			if i, ok := p.index[id]; ok {
				p.tokens[i].Visible = false
			}
			p.hidden[id] = struct{}{}
			applied = true
		}
		p.evict()
	case TaskEnter:
		for _, id := range task.IDs {
			if m, ok := p.entering[id]; ok && m == task.Marker {
				delete(p.entering, id)
				applied = true
			}
		}
	}
	return applied
}

// evict drops the oldest hidden bags beyond the pool limit.
func (p *Pile) evict() {
	limit := p.opts.PoolLimit
	if limit <= 0 || len(p.hidden) <= limit {
		return
	}
	drop := len(p.hidden) - limit
	kept := p.tokens[:0]
	for _, t := range p.tokens {
		if _, ok := p.hidden[t.ID]; ok && drop > 0 {
			delete(p.hidden, t.ID)
			drop--
			continue
		}
		kept = append(kept, t)
	}
	p.tokens = kept
	p.index = make(map[int]int, len(p.tokens))
	for i, t := range p.tokens {
		p.index[t.ID] = i
	}
}

func (p *Pile) visibleIDs() []int {
	ids := make([]int, 0, len(p.tokens))
	for _, t := range p.tokens {
		if !t.Visible {
			continue
		}
		if _, ok := p.exiting[t.ID]; ok {
			continue
		}
		ids = append(ids, t.ID)
	}
	return ids
}

// VisibleTokens returns every bag currently on screen, including bags still
// animating out, in creation order.
func (p *Pile) VisibleTokens() []TokenView {
	views := make([]TokenView, 0, len(p.tokens))
	for _, t := range p.tokens {
		if !t.Visible {
			continue
		}
		state := StateIdle
		if _, ok := p.entering[t.ID]; ok {
			state = StateEntering
		}
		if _, ok := p.exiting[t.ID]; ok {
			state = StateExiting
		}
		views = append(views, TokenView{
			ID:       t.ID,
			Side:     t.Side,
			Position: t.position(),
			Rotation: t.Rotation,
			Scale:    t.Scale,
			Layer:    t.Layer,
			State:    state,
		})
	}
	return views
}

// Tokens returns a copy of every bag the pile knows about, hidden ones
// included.
func (p *Pile) Tokens() []Token {
	out := make([]Token, len(p.tokens))
	copy(out, p.tokens)
	return out
}

// VisibleCount is the number of bags that count toward the target.
func (p *Pile) VisibleCount() int {
	return len(p.visibleIDs())
}

// PoolSize is the number of hidden bags ready for reuse.
func (p *Pile) PoolSize() int {
	return len(p.hidden)
}

// Target is the most recent target passed to Reconcile.
func (p *Pile) Target() int {
	return p.target
}

// Settled reports whether no bag is mid-animation.
func (p *Pile) Settled() bool {
	return len(p.entering) == 0 && len(p.exiting) == 0
}

// Reset forgets every bag and invalidates outstanding tasks. Bag ids keep
// increasing so an id is never handed out twice.
func (p *Pile) Reset() {
	if p.torn {
		return
	}
	p.generation++
	p.clear()
}

// Teardown releases the pile. Later calls to Reconcile and Complete do
// nothing.
func (p *Pile) Teardown() {
	if p.torn {
		return
	}
	p.torn = true
	p.generation++
	p.clear()
	logging.PileDebug("pile torn down")
}

// Closed reports whether Teardown has been called.
func (p *Pile) Closed() bool {
	return p.torn
}
