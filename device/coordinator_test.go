package device

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hadirku.id/hadirku/attendance"
)

type fakeCamera struct {
	mu      sync.Mutex
	pauses  int
	resumes int
	onPause func()
}

func (c *fakeCamera) Pause() {
	c.mu.Lock()
	c.pauses++
	hook := c.onPause
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (c *fakeCamera) Resume() {
	c.mu.Lock()
	c.resumes++
	c.mu.Unlock()
}

type fakeLocator struct {
	mu      sync.Mutex
	calls   int
	err     error
	failFor int // fail this many calls before succeeding
	block   chan struct{}
}

func (l *fakeLocator) CurrentPosition(ctx context.Context) (attendance.Coordinate, error) {
	if l.block != nil {
		select {
		case <-l.block:
		case <-ctx.Done():
			return attendance.Coordinate{}, ctx.Err()
		}
	}
	l.mu.Lock()
	l.calls++
	calls := l.calls
	l.mu.Unlock()
	if l.err != nil {
		return attendance.Coordinate{}, l.err
	}
	if calls <= l.failFor {
		return attendance.Coordinate{}, errors.New("no fix yet")
	}
	return attendance.Coordinate{Latitude: -6.2, Longitude: 106.8166}, nil
}

type fakeVerifier struct {
	submissions atomic.Int64
	err         error
	delay       time.Duration
}

func (v *fakeVerifier) Verify(ctx context.Context, qrCode string, loc attendance.Coordinate) (*attendance.Record, error) {
	v.submissions.Add(1)
	if v.delay > 0 {
		select {
		case <-time.After(v.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if v.err != nil {
		return nil, v.err
	}
	return &attendance.Record{ID: "rec-1", Status: attendance.StatusOnTime}, nil
}

func quickConfig() Config {
	return Config{
		SuccessDwell:     10 * time.Millisecond,
		FailureDwell:     10 * time.Millisecond,
		LocationAttempts: 1,
	}
}

func TestCoordinatorHappyPath(t *testing.T) {
	camera := &fakeCamera{}
	verifier := &fakeVerifier{}
	c := NewCoordinator(camera, &fakeLocator{}, verifier, quickConfig())

	c.Start(context.Background())
	defer c.Stop()

	c.OnDecode("some-token")

	select {
	case res := <-c.Results():
		require.NotNil(t, res.Record)
		assert.Equal(t, attendance.StatusOnTime, res.Record.Status)
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}
	assert.Equal(t, int64(1), verifier.submissions.Load())

	// Camera resumes for the next scan after the dwell.
	assert.Eventually(t, func() bool {
		return c.State() == StateScanning
	}, time.Second, 5*time.Millisecond)
}

func TestCoordinatorSingleFlight(t *testing.T) {
	locator := &fakeLocator{block: make(chan struct{})}
	verifier := &fakeVerifier{}
	c := NewCoordinator(&fakeCamera{}, locator, verifier, quickConfig())

	c.Start(context.Background())
	defer c.Stop()

	c.OnDecode("first")
	// Wait until the first decode is being processed, then fire more.
	assert.Eventually(t, func() bool {
		return c.State() == StateAwaitingLocation
	}, time.Second, time.Millisecond)

	c.OnDecode("second")
	c.OnDecode("third")
	close(locator.block)

	select {
	case <-c.Results():
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}
	assert.Equal(t, int64(1), verifier.submissions.Load(), "re-entrant decodes must be ignored, not queued")
}

// A decode can land in the buffer in the instant between the loop picking up
// a value and the state leaving Scanning. It must be dropped with the rest,
// not replayed after the attempt.
func TestCoordinatorDropsDecodeRacingTheStateFlip(t *testing.T) {
	camera := &fakeCamera{}
	verifier := &fakeVerifier{}
	c := NewCoordinator(camera, &fakeLocator{}, verifier, quickConfig())

	var once sync.Once
	camera.onPause = func() {
		// Runs inside the attempt, before the buffer flush: exactly the
		// window OnDecode's state check cannot close.
		once.Do(func() { c.decodes <- "slipped-in" })
	}

	c.Start(context.Background())
	defer c.Stop()

	c.OnDecode("fresh")

	select {
	case res := <-c.Results():
		require.NotNil(t, res.Record)
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}

	assert.Eventually(t, func() bool {
		return c.State() == StateScanning
	}, time.Second, time.Millisecond)

	// Long enough for a replayed decode to have produced a second attempt.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), verifier.submissions.Load(), "a buffered decode must be flushed, not replayed")
}

func TestCoordinatorLocationFailureNeverSubmits(t *testing.T) {
	locator := &fakeLocator{err: errors.New("permission denied")}
	verifier := &fakeVerifier{}
	c := NewCoordinator(&fakeCamera{}, locator, verifier, quickConfig())

	c.Start(context.Background())
	defer c.Stop()

	c.OnDecode("some-token")

	select {
	case res := <-c.Results():
		require.NotNil(t, res.Rejection)
		assert.Equal(t, attendance.RejectLocationUnavailable, res.Rejection.Kind)
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}
	assert.Equal(t, int64(0), verifier.submissions.Load())

	// Camera is back on without any dwell.
	assert.Eventually(t, func() bool {
		return c.State() == StateScanning
	}, time.Second, time.Millisecond)
}

func TestCoordinatorBoundedLocationRetry(t *testing.T) {
	locator := &fakeLocator{failFor: 2}
	verifier := &fakeVerifier{}
	cfg := quickConfig()
	cfg.LocationAttempts = 3
	c := NewCoordinator(&fakeCamera{}, locator, verifier, cfg)

	c.Start(context.Background())
	defer c.Stop()

	c.OnDecode("some-token")

	select {
	case res := <-c.Results():
		require.NotNil(t, res.Record)
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}
	assert.Equal(t, 3, locator.calls)
	assert.Equal(t, int64(1), verifier.submissions.Load())
}

func TestCoordinatorRejectionSurfacesTyped(t *testing.T) {
	verifier := &fakeVerifier{err: &attendance.Rejection{
		Kind:           attendance.RejectOutOfRange,
		Message:        "you are 340 m from the office, allowed 100 m",
		DistanceMeters: 340,
		AllowedMeters:  100,
	}}
	c := NewCoordinator(&fakeCamera{}, &fakeLocator{}, verifier, quickConfig())

	c.Start(context.Background())
	defer c.Stop()

	c.OnDecode("some-token")

	select {
	case res := <-c.Results():
		require.NotNil(t, res.Rejection)
		assert.Equal(t, attendance.RejectOutOfRange, res.Rejection.Kind)
		assert.Equal(t, float64(340), res.Rejection.DistanceMeters)
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}
}

func TestCoordinatorStopDiscardsInFlightVerdict(t *testing.T) {
	verifier := &fakeVerifier{delay: 200 * time.Millisecond}
	camera := &fakeCamera{}
	c := NewCoordinator(camera, &fakeLocator{}, verifier, quickConfig())

	c.Start(context.Background())
	c.OnDecode("some-token")

	assert.Eventually(t, func() bool {
		return c.State() == StateSubmitting
	}, time.Second, time.Millisecond)

	c.Stop()

	assert.Equal(t, StateIdle, c.State())
	select {
	case res := <-c.Results():
		t.Fatalf("result after teardown must be discarded, got %+v", res)
	default:
	}
	// Exactly one submission; nothing was resubmitted on teardown.
	assert.Equal(t, int64(1), verifier.submissions.Load())
}

func TestCoordinatorStopIsIdempotentAndSafeWhileIdle(t *testing.T) {
	c := NewCoordinator(&fakeCamera{}, &fakeLocator{}, &fakeVerifier{}, quickConfig())
	assert.Equal(t, StateIdle, c.State())

	c.Start(context.Background())
	c.Stop()
	assert.Equal(t, StateIdle, c.State())
}
