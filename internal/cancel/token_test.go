package cancel

import (
	"context"
	"testing"
	"time"
)

func TestWithTimerClosesTokenAfterDuration(t *testing.T) {
	ctx, cancel, token := WithTimer(context.Background(), 10*time.Millisecond)
	defer cancel()

	select {
	case <-token:
	case <-time.After(time.Second):
		t.Fatal("token did not close within the timer duration")
	}
	if ctx.Err() == nil {
		t.Error("expected ctx to be done once the token closes")
	}
}

func TestWithTimerZeroDurationFollowsParent(t *testing.T) {
	parent, parentCancel := context.WithCancel(context.Background())
	ctx, cancel, token := WithTimer(parent, 0)
	defer cancel()

	select {
	case <-token:
		t.Fatal("token closed before parent was cancelled")
	default:
	}

	parentCancel()

	select {
	case <-token:
	case <-time.After(time.Second):
		t.Fatal("token did not close after parent cancellation")
	}
	if ctx.Err() == nil {
		t.Error("expected ctx to be done once the parent is cancelled")
	}
}

func TestWithTimerCancelFuncStopsToken(t *testing.T) {
	ctx, cancelFunc, token := WithTimer(context.Background(), time.Hour)
	cancelFunc()

	select {
	case <-token:
	case <-time.After(time.Second):
		t.Fatal("token did not close after explicit cancel")
	}
	if ctx.Err() == nil {
		t.Error("expected ctx to be done after explicit cancel")
	}
}
