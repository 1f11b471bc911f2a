// Package pacing keeps a render loop on a fixed cadence.
//
// FixedRate blocks the caller until the next scheduled tick. It sleeps a
// fraction of the remaining time repeatedly instead of one long sleep, so it
// converges on the deadline without spinning and without overshooting on
// coarse schedulers. The schedule advances from the previous scheduled tick,
// never from the actual wake time, so jitter does not accumulate.
package pacing

import (
	"errors"
	"math"
	"runtime"
	"time"
)

const (
	// DefaultGuard is the margin before a deadline within which Wait stops sleeping.
	DefaultGuard = 100 * time.Microsecond
	// DefaultSleepFraction is the share of the remaining interval slept per step.
	DefaultSleepFraction = 0.9
	// MinSleepFraction is the smallest accepted sleep fraction.
	MinSleepFraction = 0.01
	// MinSleep is the shortest step Wait sleeps outside the guard interval.
	MinSleep = time.Microsecond
)

var (
	ErrInvalidRate     = errors.New("pacing: rate must be a positive finite number")
	ErrInvalidGuard    = errors.New("pacing: guard interval must not be negative")
	ErrInvalidFraction = errors.New("pacing: sleep fraction must be in [0.01, 1]")
)

// Clock is the time source used by FixedRate.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the wall clock backed by the time package.
func SystemClock() Clock { return realClock{} }

// Options tunes the coarse/fine wait strategy. Zero values select the
// defaults, so a zero guard cannot be requested.
type Options struct {
	Guard         time.Duration
	SleepFraction float64

	// FinalSpin yields in a loop until the deadline once inside the guard
	// interval instead of returning early.
	FinalSpin bool
	Clock     Clock
}

// FixedRate is a fixed-rate tick scheduler. It is not safe for concurrent use.
type FixedRate struct {
	rate     float64
	period   time.Duration
	guard    time.Duration
	fraction float64
	spin     bool
	clock    Clock

	lastTick time.Time
	nextTick time.Time
	ticks    uint64
}

// NewFixedRate returns a timer ticking rate times per second.
func NewFixedRate(rate float64, opts Options) (*FixedRate, error) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return nil, ErrInvalidRate
	}
	if opts.Guard < 0 {
		return nil, ErrInvalidGuard
	}
	if opts.SleepFraction == 0 {
		opts.SleepFraction = DefaultSleepFraction
	}
	if opts.SleepFraction < MinSleepFraction || opts.SleepFraction > 1 || math.IsNaN(opts.SleepFraction) {
		return nil, ErrInvalidFraction
	}
	if opts.Guard == 0 {
		opts.Guard = DefaultGuard
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}

	period := time.Duration(float64(time.Second) / rate)
	if period <= 0 {
		return nil, ErrInvalidRate
	}

	now := opts.Clock.Now()
	return &FixedRate{
		rate:     rate,
		period:   period,
		guard:    opts.Guard,
		fraction: opts.SleepFraction,
		spin:     opts.FinalSpin,
		clock:    opts.Clock,
		lastTick: now,
		nextTick: now.Add(period),
	}, nil
}

// Wait blocks until the next tick is due, then schedules the one after it.
// Each sleep step is at least MinSleep, so a small fraction still makes
// progress toward the deadline.
func (t *FixedRate) Wait() {
	deadline := t.nextTick.Add(-t.guard)
	now := t.clock.Now()
	for now.Before(deadline) {
		step := time.Duration(t.fraction * float64(t.nextTick.Sub(now)))
		if step < MinSleep {
			step = MinSleep
		}
		t.clock.Sleep(step)
		now = t.clock.Now()
	}
	if t.spin {
		for now.Before(t.nextTick) {
			runtime.Gosched()
			now = t.clock.Now()
		}
	}

	t.nextTick = t.nextTick.Add(t.period)
	t.ticks++
}

// DeltaSeconds returns the seconds elapsed since the previous call (or since
// construction) and moves the reference point to now.
func (t *FixedRate) DeltaSeconds() float64 {
	now := t.clock.Now()
	d := now.Sub(t.lastTick)
	t.lastTick = now
	return d.Seconds()
}

func (t *FixedRate) Rate() float64         { return t.rate }
func (t *FixedRate) Period() time.Duration { return t.period }
func (t *FixedRate) Guard() time.Duration  { return t.guard }
func (t *FixedRate) NextTick() time.Time   { return t.nextTick }
func (t *FixedRate) Ticks() uint64         { return t.ticks }
