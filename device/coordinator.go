// Package device holds the device-side scan loop: camera in, geolocation,
// one verification request at a time.
package device

import (
	"context"
	"sync"
	"time"

	"hadirku.id/hadirku/attendance"
)

type State string

const (
	StateIdle             State = "idle"
	StateScanning         State = "scanning"
	StateAwaitingLocation State = "awaiting_location"
	StateSubmitting       State = "submitting"
	StateCooldown         State = "cooldown"
)

// Camera is the QR capture collaborator. Pause must stop decode callbacks
// promptly; both calls must be safe at any time.
type Camera interface {
	Pause()
	Resume()
}

// Locator is the geolocation collaborator. One call per attempt; retry policy
// lives in the coordinator, not here.
type Locator interface {
	CurrentPosition(ctx context.Context) (attendance.Coordinate, error)
}

// Verifier is the remote scan contract. Rejections come back as
// *attendance.Rejection errors.
type Verifier interface {
	Verify(ctx context.Context, qrCode string, loc attendance.Coordinate) (*attendance.Record, error)
}

// Result is what the UI renders after an attempt.
type Result struct {
	Record    *attendance.Record
	Rejection *attendance.Rejection
	Err       error
}

type Config struct {
	// SuccessDwell and FailureDwell keep the verdict on screen before the
	// camera resumes.
	SuccessDwell time.Duration
	FailureDwell time.Duration
	// LocationAttempts bounds retries when the device cannot produce a fix.
	// Location failure never submits anything.
	LocationAttempts int
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.SuccessDwell <= 0 {
		out.SuccessDwell = 5 * time.Second
	}
	if out.FailureDwell <= 0 {
		out.FailureDwell = 3 * time.Second
	}
	if out.LocationAttempts <= 0 {
		out.LocationAttempts = 1
	}
	return out
}

// Coordinator owns camera pause/resume and guarantees at most one
// verification in flight. Decodes arriving while it is busy are dropped, not
// queued. Stopping it mid-attempt is safe: a verdict that lands after
// teardown is discarded and never resubmitted.
type Coordinator struct {
	camera   Camera
	locator  Locator
	verifier Verifier
	cfg      Config

	mu    sync.Mutex
	state State

	decodes chan string
	results chan Result

	cancel context.CancelFunc
	done   chan struct{}
}

func NewCoordinator(camera Camera, locator Locator, verifier Verifier, cfg Config) *Coordinator {
	return &Coordinator{
		camera:   camera,
		locator:  locator,
		verifier: verifier,
		cfg:      cfg.withDefaults(),
		state:    StateIdle,
		decodes:  make(chan string, 1),
		results:  make(chan Result, 1),
		done:     make(chan struct{}),
	}
}

// Start activates the camera and the processing loop.
func (c *Coordinator) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.setState(StateScanning)
	c.camera.Resume()
	go c.run(ctx)
}

// Stop tears the coordinator down. Blocks until the loop has exited, so the
// camera is released and no result will be delivered afterwards.
func (c *Coordinator) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

// OnDecode feeds one decoded QR value in. Ignored unless the coordinator is
// actively scanning; a frame burst produces exactly one attempt.
func (c *Coordinator) OnDecode(value string) {
	if c.State() != StateScanning {
		return
	}
	select {
	case c.decodes <- value:
	default:
	}
}

// Results delivers one Result per completed attempt.
func (c *Coordinator) Results() <-chan Result {
	return c.results
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.done)
	defer c.camera.Pause()
	defer c.setState(StateIdle)

	for {
		select {
		case <-ctx.Done():
			return
		case value := <-c.decodes:
			c.handleDecode(ctx, value)
		}
	}
}

func (c *Coordinator) handleDecode(ctx context.Context, value string) {
	// Camera off first, before anything slow, so the same frame burst
	// cannot decode twice.
	c.setState(StateAwaitingLocation)
	c.camera.Pause()

	// A decode can slip into the buffer between the loop receiving value
	// and the state flip above. Busy means dropped, never queued.
	select {
	case <-c.decodes:
	default:
	}

	loc, err := c.locate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// No fix, no submission. Straight back to scanning.
		c.emit(Result{Rejection: &attendance.Rejection{
			Kind:    attendance.RejectLocationUnavailable,
			Message: "location permission or GPS fix required",
		}})
		c.setState(StateScanning)
		c.camera.Resume()
		return
	}

	c.setState(StateSubmitting)
	rec, err := c.verifier.Verify(ctx, value, loc)
	if ctx.Err() != nil {
		// Torn down while in flight: whatever came back is not ours to
		// apply, and must not be retried.
		return
	}

	dwell := c.cfg.SuccessDwell
	result := Result{Record: rec}
	if err != nil {
		dwell = c.cfg.FailureDwell
		if r, ok := attendance.AsRejection(err); ok {
			result = Result{Rejection: r}
		} else {
			result = Result{Err: err}
		}
	}

	c.setState(StateCooldown)
	c.emit(result)

	select {
	case <-ctx.Done():
		return
	case <-time.After(dwell):
	}

	c.setState(StateScanning)
	c.camera.Resume()
}

func (c *Coordinator) locate(ctx context.Context) (attendance.Coordinate, error) {
	var lastErr error
	for attempt := 0; attempt < c.cfg.LocationAttempts; attempt++ {
		if ctx.Err() != nil {
			return attendance.Coordinate{}, ctx.Err()
		}
		loc, err := c.locator.CurrentPosition(ctx)
		if err == nil {
			return loc, nil
		}
		lastErr = err
	}
	return attendance.Coordinate{}, lastErr
}

func (c *Coordinator) emit(r Result) {
	// Drop rather than block: a UI that stopped reading must not wedge the
	// scan loop.
	select {
	case c.results <- r:
	default:
	}
}
