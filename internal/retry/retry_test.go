package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNominalDelayBounds(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2.0}
	cases := []struct {
		k    int
		want time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
	}
	for _, tc := range cases {
		got := p.NominalDelay(tc.k)
		if got != tc.want {
			t.Errorf("NominalDelay(%d) = %v, want %v", tc.k, got, tc.want)
		}
	}
}

func TestDelayWithJitterStaysInBounds(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2.0, Jitter: true}
	for k := 1; k <= 5; k++ {
		nominal := p.NominalDelay(k)
		for i := 0; i < 50; i++ {
			d := p.Delay(k)
			if d < 0 || d > nominal {
				t.Fatalf("Delay(%d) = %v out of [0, %v]", k, d, nominal)
			}
		}
	}
}

func TestDoSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), Standard, func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil || v != 42 || calls != 1 {
		t.Fatalf("got v=%d err=%v calls=%d", v, err, calls)
	}
}

func TestDoExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
	wantErr := errors.New("boom")
	calls := 0
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, wantErr
	})
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected unwrap to original error, got %v", err)
	}
}

func TestDoDoesNotRetryNonRetriableError(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond, Retriable: func(err error) bool { return false }}
	calls := 0
	permanent := errors.New("permanent")
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	if calls != 1 {
		t.Fatalf("expected exactly 1 attempt for non-retriable error, got %d", calls)
	}
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestOnRetryObserverNeverBreaksLoop(t *testing.T) {
	p := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, OnRetry: func(attempt int, err error, delay time.Duration) {
		panic("observer exploded")
	}}
	calls := 0
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		if calls == 2 {
			return 7, nil
		}
		return 0, errors.New("transient")
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected retry loop to survive a panicking observer, calls=%d err=%v", calls, err)
	}
}

func TestDoRespectsContextCancellationDuringBackoff(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}
	ctx, cancelFn := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancelFn()
	}()
	_, err := Do(ctx, p, func(ctx context.Context) (int, error) {
		return 0, errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}
