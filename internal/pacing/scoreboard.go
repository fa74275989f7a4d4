package pacing

import (
	"fmt"
	"io"
	"time"
)

// Snapshot is a point-in-time, read-only copy of one controller's state.
// It is always a copy, never a live reference into controller internals,
// so holders cannot race with the hot path.
type Snapshot struct {
	// Surface is the channel the controller owns.
	Surface Surface
	// Profile is the pacing profile in effect.
	Profile Profile
	// Interval is the current inter-request delay.
	Interval time.Duration
	// Floor and Ceiling are the adaptive bounds (zero for fixed profiles).
	Floor   time.Duration
	Ceiling time.Duration
	// CooldownRemaining is how long the post-backoff hold still has to run.
	CooldownRemaining time.Duration
	// WindowSuccess, WindowThrottled, and WindowErrors count outcomes in
	// the trailing window.
	WindowSuccess   int
	WindowThrottled int
	WindowErrors    int
	// TotalSuccess, TotalThrottled, and TotalErrors count outcomes since
	// construction.
	TotalSuccess   uint64
	TotalThrottled uint64
	TotalErrors    uint64
}

// Snapshot copies the controller's current state. It takes the state mutex
// only long enough to copy, so it cannot stall permit issuance.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Surface:  c.surface,
		Profile:  c.profile,
		Interval: c.interval,
		Floor:    c.cfg.Floor,
		Ceiling:  c.cfg.Ceiling,
	}
	if now := c.now(); c.cooldownUntil.After(now) {
		snap.CooldownRemaining = c.cooldownUntil.Sub(now)
	}
	for i := 0; i < c.count; i++ {
		switch c.window[i].outcome {
		case OutcomeThrottled:
			snap.WindowThrottled++
		case OutcomeError:
			snap.WindowErrors++
		default:
			snap.WindowSuccess++
		}
	}
	snap.TotalSuccess = c.totalSuccess
	snap.TotalThrottled = c.totalThrottled
	snap.TotalErrors = c.totalErrors
	return snap
}

// Scoreboard formats controller snapshots for operator diagnostics.
// It observes the controllers without participating in the data path.
type Scoreboard struct {
	set *Set
}

// NewScoreboard creates a Scoreboard over the given controller set.
func NewScoreboard(set *Set) *Scoreboard {
	return &Scoreboard{set: set}
}

// WriteTo renders the current snapshots of all surfaces to w.
// It implements io.WriterTo so the signal handler can dump diagnostics
// with a single call.
func (sb *Scoreboard) WriteTo(w io.Writer) (int64, error) {
	var total int64

	n, err := fmt.Fprintln(w, "pacing scoreboard")
	total += int64(n)
	if err != nil {
		return total, err
	}

	for _, snap := range sb.set.Snapshots() {
		n, err := fmt.Fprintf(w,
			"  %-7s profile=%-12s interval=%-8s cooldown=%-8s window[ok=%d throttled=%d err=%d] total[ok=%d throttled=%d err=%d]\n",
			snap.Surface,
			snap.Profile,
			snap.Interval.Round(time.Millisecond),
			snap.CooldownRemaining.Round(time.Millisecond),
			snap.WindowSuccess, snap.WindowThrottled, snap.WindowErrors,
			snap.TotalSuccess, snap.TotalThrottled, snap.TotalErrors,
		)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
