package limiter

import (
	"context"
	"testing"
	"time"
)

func TestMemory_BlocksAfterThresholdAndResets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemory(Policy{Window: time.Minute, MaxFails: 2, BlockFor: 5 * time.Minute})
	l.now = func() time.Time { return now }
	ip := HashIP("10.0.0.1")

	if blocked, _, _ := l.Failure(ctx, "u", ip); blocked {
		t.Fatalf("first failure must not block")
	}
	blocked, wait, _ := l.Failure(ctx, "u", ip)
	if !blocked || wait != 5*time.Minute {
		t.Fatalf("second failure: blocked=%v wait=%v", blocked, wait)
	}
	if ok, wait, _ := l.Allow(ctx, "u", ip); ok || wait != 5*time.Minute {
		t.Fatalf("allow while blocked: ok=%v wait=%v", ok, wait)
	}
	if ok, _, _ := l.Allow(ctx, "other", ip); !ok {
		t.Fatalf("other user must be allowed")
	}

	now = now.Add(6 * time.Minute)
	if ok, _, _ := l.Allow(ctx, "u", ip); !ok {
		t.Fatalf("block must expire")
	}
	// Window elapsed, so the count restarts.
	if blocked, _, _ := l.Failure(ctx, "u", ip); blocked {
		t.Fatalf("failure after window must restart count")
	}
	_ = l.Success(ctx, "u", ip)
	if blocked, _, _ := l.Failure(ctx, "u", ip); blocked {
		t.Fatalf("success must reset count")
	}
}
