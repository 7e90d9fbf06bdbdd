package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("proff", CircuitBreakerConfig{FailureThreshold: threshold, ResetTimeout: reset})
	cb.now = clock.now
	return cb, clock
}

func failN(cb *CircuitBreaker, n int) {
	for range n {
		_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("fail") })
	}
}

func TestCircuitBreaker_ClosedPassesThrough(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	var calls int
	err := cb.Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)
	failN(cb, 3)

	if cb.State() != CircuitOpen {
		t.Fatalf("expected open after 3 failures, got %s", cb.State())
	}
	err := cb.Execute(context.Background(), func(context.Context) error {
		t.Error("fn must not run while open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)
	failN(cb, 2)
	_ = cb.Execute(context.Background(), func(context.Context) error { return nil })
	failN(cb, 2)

	if cb.State() != CircuitClosed {
		t.Errorf("non-consecutive failures must not open the circuit, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenTrialCloses(t *testing.T) {
	cb, clock := newTestBreaker(1, 30*time.Second)
	failN(cb, 1)
	clock.advance(31 * time.Second)

	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open after reset timeout, got %s", cb.State())
	}
	if err := cb.Execute(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed after successful trial, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(2, 30*time.Second)
	failN(cb, 2)
	clock.advance(time.Minute)
	failN(cb, 1)

	if cb.State() != CircuitOpen {
		t.Errorf("expected open after failed trial, got %s", cb.State())
	}
}

func TestCircuitBreaker_SingleTrialInFlight(t *testing.T) {
	cb, clock := newTestBreaker(1, time.Second)
	failN(cb, 1)
	clock.advance(2 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second caller during trial: expected ErrCircuitOpen, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("trial: %v", err)
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb, _ := newTestBreaker(1000, time.Minute)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cb.Execute(context.Background(), func(context.Context) error {
				if i%2 == 0 {
					return errors.New("fail")
				}
				return nil
			})
		}()
	}
	wg.Wait()

	if cb.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestExecuteVal(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Minute)

	v, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Fatalf("got %d, %v", v, err)
	}

	failN(cb, 1)
	v, err = ExecuteVal(context.Background(), cb, func(context.Context) (int, error) { return 7, nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if v != 0 {
		t.Errorf("expected zero value, got %d", v)
	}
}

func TestFromCircuitConfig(t *testing.T) {
	cfg := FromCircuitConfig(0, 0)
	if cfg != DefaultCircuitBreakerConfig() {
		t.Errorf("zero values should keep defaults, got %+v", cfg)
	}
	cfg = FromCircuitConfig(2, 5)
	if cfg.FailureThreshold != 2 || cfg.ResetTimeout != 5*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestServiceBreakers(t *testing.T) {
	sb := NewServiceBreakers(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	a := sb.Get("whois")
	if sb.Get("whois") != a {
		t.Error("Get must return the same breaker for a name")
	}
	failN(sb.Get("ai"), 1)

	states := sb.States()
	if len(states) != 2 {
		t.Fatalf("expected 2 breakers, got %d", len(states))
	}
	if states["whois"] != CircuitClosed || states["ai"] != CircuitOpen {
		t.Errorf("unexpected states %v", states)
	}
}

func TestCircuitState_String(t *testing.T) {
	cases := map[CircuitState]string{
		CircuitClosed:    "closed",
		CircuitOpen:      "open",
		CircuitHalfOpen:  "half-open",
		CircuitState(42): "unknown",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Errorf("%d: got %q, want %q", int(s), s.String(), want)
		}
	}
}
