package pacing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Profile errors.
var (
	// ErrUnknownProfile is returned when a profile name is not recognized.
	ErrUnknownProfile = errors.New("unknown pacing profile")
)

// Surface identifies one of the archive's independently throttled request
// channels. Each surface owns exactly one Controller.
type Surface int

const (
	// SurfaceIndex is the archive's CDX index-query endpoint.
	SurfaceIndex Surface = iota
	// SurfaceContent is the archive's content-retrieval endpoint.
	SurfaceContent
)

// String returns the string representation of the Surface.
func (s Surface) String() string {
	switch s {
	case SurfaceIndex:
		return "index"
	case SurfaceContent:
		return "content"
	default:
		return "unknown"
	}
}

// Profile selects the pacing algorithm and its parameters.
// Chosen once at process start; immutable thereafter.
type Profile string

const (
	// ProfileConservative uses a large fixed delay and no adaptation.
	ProfileConservative Profile = "conservative"
	// ProfileDefault uses a moderate fixed delay and no adaptation.
	ProfileDefault Profile = "default"
	// ProfileAdaptive adjusts the delay from observed outcomes with
	// hysteresis (fast backoff, slow recovery).
	ProfileAdaptive Profile = "adaptive"
)

// ParseProfile validates a profile name from user input.
func ParseProfile(name string) (Profile, error) {
	switch Profile(name) {
	case ProfileConservative, ProfileDefault, ProfileAdaptive:
		return Profile(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
}

// Outcome classifies a completed request for pacing purposes.
type Outcome int

const (
	// OutcomeSuccess indicates the request completed normally.
	OutcomeSuccess Outcome = iota
	// OutcomeThrottled indicates the archive pushed back (HTTP 429 or an
	// equivalent blocking response).
	OutcomeThrottled
	// OutcomeError indicates a transient failure (timeout, connection
	// reset, server error).
	OutcomeError
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeThrottled:
		return "throttled"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is the outcome of one completed network call, emitted by every
// request to a surface regardless of whether it will be retried.
type Event struct {
	// Surface is the channel the request was issued on.
	Surface Surface
	// Time is when the request completed.
	Time time.Time
	// Outcome classifies the result.
	Outcome Outcome
	// Latency is the observed round-trip duration.
	Latency time.Duration
}

// Settings holds the tuning parameters for one surface's controller.
//
// Design decision: All knobs for a profile live in one struct so strategy
// selection stays out of the controller logic and the magic numbers stay
// in one place.
type Settings struct {
	// Initial is the inter-request interval at construction.
	Initial time.Duration
	// Floor is the lower bound on the interval (adaptive only).
	Floor time.Duration
	// Ceiling is the upper bound on the interval (adaptive only).
	Ceiling time.Duration
	// BackoffFactor multiplies the interval on throttle or repeated error.
	BackoffFactor float64
	// RecoveryFactor multiplies the interval on sustained success.
	// Must satisfy BackoffFactor * RecoveryFactor > 1 so that backoff
	// always outweighs a single recovery step (hysteresis).
	RecoveryFactor float64
	// SustainPeriod is how long the trailing window must be free of
	// throttle/error events before recovery applies.
	SustainPeriod time.Duration
	// Cooldown is the hold applied after a backoff, during which recovery
	// is suspended and new permits wait out the remaining hold.
	Cooldown time.Duration
	// ErrorBurst is the run of consecutive transient errors that counts
	// as backpressure. A single flaky response does not slow the run;
	// a throttling response always does.
	ErrorBurst int
}

// Per-surface pacing parameters. The index endpoint has documented limits
// and escalating penalties, so it is tuned more cautiously than content.
var (
	conservativeSettings = map[Surface]Settings{
		SurfaceIndex:   {Initial: 2 * time.Second},
		SurfaceContent: {Initial: 2 * time.Second},
	}
	defaultSettings = map[Surface]Settings{
		SurfaceIndex:   {Initial: time.Second},
		SurfaceContent: {Initial: 1500 * time.Millisecond},
	}
	adaptiveSettings = map[Surface]Settings{
		SurfaceIndex: {
			Initial:        1500 * time.Millisecond,
			Floor:          1200 * time.Millisecond,
			Ceiling:        30 * time.Second,
			BackoffFactor:  2.0,
			RecoveryFactor: 0.95,
			SustainPeriod:  10 * time.Second,
			Cooldown:       30 * time.Second,
			ErrorBurst:     3,
		},
		SurfaceContent: {
			Initial:        1500 * time.Millisecond,
			Floor:          800 * time.Millisecond,
			Ceiling:        20 * time.Second,
			BackoffFactor:  2.0,
			RecoveryFactor: 0.95,
			SustainPeriod:  10 * time.Second,
			Cooldown:       20 * time.Second,
			ErrorBurst:     3,
		},
	}
)

// settingsFor returns the Settings for a profile and surface.
func settingsFor(profile Profile, surface Surface) Settings {
	switch profile {
	case ProfileConservative:
		return conservativeSettings[surface]
	case ProfileAdaptive:
		return adaptiveSettings[surface]
	default:
		return defaultSettings[surface]
	}
}

// windowSize is the fixed capacity of the trailing outcome window.
// Oldest events are evicted on insert, so memory use is bounded.
const windowSize = 128

// windowEntry is one recorded outcome in the trailing window.
type windowEntry struct {
	time    time.Time
	outcome Outcome
}

// Controller owns the pacing state for a single surface. All mutable state
// sits behind one mutex with short critical sections; callers only ever see
// it through Acquire, Report, and Snapshot.
type Controller struct {
	surface  Surface
	profile  Profile
	cfg      Settings
	adaptive bool

	// now is the clock source, replaceable in tests.
	now func() time.Time

	mu            sync.Mutex
	interval      time.Duration
	nextAllowed   time.Time
	cooldownUntil time.Time
	errorRun      int

	window [windowSize]windowEntry
	head   int
	count  int

	totalSuccess   uint64
	totalThrottled uint64
	totalErrors    uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the controller's clock source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithSettings overrides the profile's tuning parameters for this
// controller. Used by tests and by operator-supplied interval overrides.
func WithSettings(cfg Settings) Option {
	return func(c *Controller) {
		c.cfg = cfg
		c.interval = cfg.Initial
	}
}

// NewController creates the Controller for one surface under the given
// profile.
func NewController(surface Surface, profile Profile, opts ...Option) *Controller {
	cfg := settingsFor(profile, surface)
	c := &Controller{
		surface:  surface,
		profile:  profile,
		cfg:      cfg,
		adaptive: profile == ProfileAdaptive,
		now:      time.Now,
		interval: cfg.Initial,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Surface returns the surface this controller owns.
func (c *Controller) Surface() Surface {
	return c.surface
}

// Acquire blocks until the caller may issue its next request on the
// surface, or until ctx is cancelled. Successive permits are spaced by at
// least the current interval; after an idle period at most one permit is
// granted immediately, so there is no burst release.
func (c *Controller) Acquire(ctx context.Context) error {
	c.mu.Lock()
	now := c.now()
	target := c.nextAllowed
	if target.Before(now) {
		target = now
	}
	if c.cooldownUntil.After(target) {
		target = c.cooldownUntil
	}
	c.nextAllowed = target.Add(c.interval)
	c.mu.Unlock()

	delay := target.Sub(now)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Report feeds a completed request's outcome into the controller. It never
// blocks beyond the state mutex and is safe to call concurrently with
// Acquire and other Reports. Non-adaptive profiles record the event for
// diagnostics but keep their fixed interval.
func (c *Controller) Report(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.Time.IsZero() {
		ev.Time = c.now()
	}
	c.push(ev)

	switch ev.Outcome {
	case OutcomeSuccess:
		c.totalSuccess++
		if c.adaptive {
			c.onSuccess(ev.Time)
		}
	case OutcomeThrottled:
		c.totalThrottled++
		if c.adaptive {
			c.backoff(ev.Time)
		}
	case OutcomeError:
		c.totalErrors++
		if c.adaptive {
			c.errorRun++
			if c.errorRun >= c.cfg.ErrorBurst {
				c.backoff(ev.Time)
			}
		}
	}
}

// push records an event in the trailing window, evicting the oldest entry
// once the window is full.
func (c *Controller) push(ev Event) {
	c.window[c.head] = windowEntry{time: ev.Time, outcome: ev.Outcome}
	c.head = (c.head + 1) % windowSize
	if c.count < windowSize {
		c.count++
	}
}

// onSuccess applies the slow-recovery side of the hysteresis rule.
// The interval shrinks only when the cooldown has expired and the trailing
// window shows no throttle/error inside the sustain period.
func (c *Controller) onSuccess(now time.Time) {
	c.errorRun = 0
	if now.Before(c.cooldownUntil) {
		return
	}
	if c.troubleSince(now.Add(-c.cfg.SustainPeriod)) {
		return
	}
	next := time.Duration(float64(c.interval) * c.cfg.RecoveryFactor)
	if next < c.cfg.Floor {
		next = c.cfg.Floor
	}
	c.interval = next
}

// backoff applies the fast-backoff side of the hysteresis rule: the
// interval grows multiplicatively and a cooldown hold opens during which
// recovery is suspended.
func (c *Controller) backoff(now time.Time) {
	c.errorRun = 0
	next := time.Duration(float64(c.interval) * c.cfg.BackoffFactor)
	if next > c.cfg.Ceiling {
		next = c.cfg.Ceiling
	}
	c.interval = next
	if until := now.Add(c.cfg.Cooldown); until.After(c.cooldownUntil) {
		c.cooldownUntil = until
	}
}

// troubleSince reports whether the trailing window holds a throttle or
// error event at or after the cutoff.
func (c *Controller) troubleSince(cutoff time.Time) bool {
	for i := 0; i < c.count; i++ {
		e := c.window[(c.head-1-i+windowSize*2)%windowSize]
		if e.time.Before(cutoff) {
			// Entries are in insertion order; older ones cannot match.
			return false
		}
		if e.outcome != OutcomeSuccess {
			return true
		}
	}
	return false
}

// Interval returns the current inter-request interval.
func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Set owns the controllers for all surfaces under one profile. Surfaces
// are paced independently: a burst of throttling on one never slows the
// other.
type Set struct {
	index   *Controller
	content *Controller
}

// NewSet creates the per-surface controllers for a profile.
func NewSet(profile Profile, opts ...Option) *Set {
	return &Set{
		index:   NewController(SurfaceIndex, profile, opts...),
		content: NewController(SurfaceContent, profile, opts...),
	}
}

// Controller returns the controller owning the given surface.
func (s *Set) Controller(surface Surface) *Controller {
	if surface == SurfaceContent {
		return s.content
	}
	return s.index
}

// Report routes an event to the controller owning its surface.
func (s *Set) Report(ev Event) {
	s.Controller(ev.Surface).Report(ev)
}

// Snapshots returns point-in-time snapshots for all surfaces.
func (s *Set) Snapshots() []Snapshot {
	return []Snapshot{s.index.Snapshot(), s.content.Snapshot()}
}
