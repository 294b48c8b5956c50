package pool

import (
	"sync/atomic"
	"time"
)

// Clock reports the current time in unix seconds.
type Clock interface {
	Now() uint64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() uint64 { return uint64(time.Now().Unix()) }

// ManualClock is a clock moved explicitly, used by replays and tests.
type ManualClock struct {
	now atomic.Uint64
}

func NewManualClock(now uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(now)
	return c
}

func (c *ManualClock) Now() uint64 { return c.now.Load() }

func (c *ManualClock) Set(now uint64) { c.now.Store(now) }

func (c *ManualClock) Advance(d time.Duration) uint64 {
	return c.now.Add(uint64(d / time.Second))
}
