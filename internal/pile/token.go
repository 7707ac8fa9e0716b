package pile

import "math/rand/v2"

// Side is the half of the pile a bag is stacked on.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// AnimationState is what a renderer should be doing with a bag right now.
type AnimationState int

const (
	StateIdle AnimationState = iota
	StateEntering
	StateExiting
)

func (a AnimationState) String() string {
	switch a {
	case StateEntering:
		return "entering"
	case StateExiting:
		return "exiting"
	default:
		return "idle"
	}
}

// Token is one money bag. Cosmetic fields are fixed when the bag is created
// and survive trips through the hidden pool.
type Token struct {
	ID               int
	Side             Side
	VerticalOffset   float64
	HorizontalOffset float64
	Rotation         float64
	Layer            int
	Scale            float64
	Visible          bool
}

// Position is a render-space location relative to the pile's centre line.
type Position struct {
	X float64
	Y float64
}

// TokenView is the read-only rendering snapshot of a bag.
type TokenView struct {
	ID       int
	Side     Side
	Position Position
	Rotation float64
	Scale    float64
	Layer    int
	State    AnimationState
}

// Rand is the randomness a pile draws cosmetics from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

const (
	maxVerticalOffset   = 40.0
	maxHorizontalOffset = 60.0
	maxRotation         = 15.0
	minScale            = 0.85
	scaleSpread         = 0.3
	layerCount          = 5
)

func newToken(id int, r Rand) Token {
	side := SideLeft
	if r.IntN(2) == 1 {
		side = SideRight
	}
	return Token{
		ID:               id,
		Side:             side,
		VerticalOffset:   r.Float64() * maxVerticalOffset,
		HorizontalOffset: r.Float64() * maxHorizontalOffset,
		Rotation:         (r.Float64()*2 - 1) * maxRotation,
		Layer:            r.IntN(layerCount),
		Scale:            minScale + r.Float64()*scaleSpread,
	}
}

func (t Token) position() Position {
	x := t.HorizontalOffset
	if t.Side == SideLeft {
		x = -x
	}
	return Position{X: x, Y: t.VerticalOffset}
}
