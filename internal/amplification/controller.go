// Package amplification tracks the StableSwap amplification coefficient and
// its scheduled linear ramps.
package amplification

import (
	"errors"
	"time"

	"github.com/holiman/uint256"

	"stableScope/internal/curve"
)

const (
	MaxA        = 1_000_000
	MaxAChange  = 2
	MinRampTime = uint64(14 * 24 * time.Hour / time.Second)
	RampDelay   = uint64(24 * time.Hour / time.Second)
)

var (
	ErrRampDelay            = errors.New("wait 1 day before starting ramp")
	ErrInsufficientRampTime = errors.New("insufficient ramp time")
	ErrFutureAOutOfRange    = errors.New("futureA must be > 0 and < MAX_A")
	ErrFutureATooSmall      = errors.New("futureA is too small")
	ErrFutureATooLarge      = errors.New("futureA is too large")
	ErrRampStopped          = errors.New("ramp is already stopped")
)

var (
	aPrecision = uint256.NewInt(curve.APrecision)
	maxAChange = uint256.NewInt(MaxAChange)
)

// State is the persisted form of a Controller. A values are precise.
type State struct {
	InitialA     *uint256.Int `json:"initial_a"`
	FutureA      *uint256.Int `json:"future_a"`
	InitialATime uint64       `json:"initial_a_time"`
	FutureATime  uint64       `json:"future_a_time"`
}

// Controller holds the current and future amplification and the ramp window
// between them. It is not safe for concurrent use; the owning pool serializes
// access.
type Controller struct {
	initialA     *uint256.Int
	futureA      *uint256.Int
	initialATime uint64
	futureATime  uint64
}

// New returns a stable controller at the given precise amplification.
func New(aPrecise *uint256.Int) *Controller {
	return &Controller{
		initialA: aPrecise.Clone(),
		futureA:  aPrecise.Clone(),
	}
}

// Restore rebuilds a controller from a saved state.
func Restore(s State) *Controller {
	c := &Controller{
		initialA:     new(uint256.Int),
		futureA:      new(uint256.Int),
		initialATime: s.InitialATime,
		futureATime:  s.FutureATime,
	}
	if s.InitialA != nil {
		c.initialA.Set(s.InitialA)
	}
	if s.FutureA != nil {
		c.futureA.Set(s.FutureA)
	}
	return c
}

// State returns a copy of the controller fields.
func (c *Controller) State() State {
	return State{
		InitialA:     c.initialA.Clone(),
		FutureA:      c.futureA.Clone(),
		InitialATime: c.initialATime,
		FutureATime:  c.futureATime,
	}
}

// APrecise returns the amplification at now, scaled by curve.APrecision.
// Inside a ramp it interpolates linearly from initialA to futureA.
func (c *Controller) APrecise(now uint64) *uint256.Int {
	if now >= c.futureATime {
		return c.futureA.Clone()
	}
	if now <= c.initialATime {
		return c.initialA.Clone()
	}

	elapsed := uint256.NewInt(now - c.initialATime)
	window := uint256.NewInt(c.futureATime - c.initialATime)
	if c.futureA.Gt(c.initialA) {
		step := new(uint256.Int).Sub(c.futureA, c.initialA)
		step.Mul(step, elapsed).Div(step, window)
		return step.Add(c.initialA, step)
	}
	step := new(uint256.Int).Sub(c.initialA, c.futureA)
	step.Mul(step, elapsed).Div(step, window)
	return step.Sub(c.initialA, step)
}

// A returns the amplification at now without precision.
func (c *Controller) A(now uint64) *uint256.Int {
	a := c.APrecise(now)
	return a.Div(a, aPrecision)
}

// Ramping reports whether a ramp is in progress at now.
func (c *Controller) Ramping(now uint64) bool {
	return now < c.futureATime && !c.initialA.Eq(c.futureA)
}

// RampA schedules a linear change to futureA (not precise) ending at
// futureTime. The checks run in a fixed order and leave the controller
// untouched on failure.
func (c *Controller) RampA(futureA uint64, futureTime, now uint64) error {
	if now < c.initialATime+RampDelay {
		return ErrRampDelay
	}
	if futureTime < now+MinRampTime {
		return ErrInsufficientRampTime
	}
	if futureA == 0 || futureA >= MaxA {
		return ErrFutureAOutOfRange
	}

	current := c.APrecise(now)
	target := new(uint256.Int).Mul(uint256.NewInt(futureA), aPrecision)
	if target.Lt(current) {
		if new(uint256.Int).Mul(target, maxAChange).Lt(current) {
			return ErrFutureATooSmall
		}
	} else if target.Gt(new(uint256.Int).Mul(current, maxAChange)) {
		return ErrFutureATooLarge
	}

	c.initialA = current
	c.futureA = target
	c.initialATime = now
	c.futureATime = futureTime
	return nil
}

// StopRampA freezes the amplification at its current value.
func (c *Controller) StopRampA(now uint64) error {
	if c.futureATime <= now {
		return ErrRampStopped
	}
	current := c.APrecise(now)
	c.initialA = current
	c.futureA = current.Clone()
	c.initialATime = now
	c.futureATime = now
	return nil
}
