package http

import (
	"testing"
	"time"
)

func TestRateLimiterEnforcesLimit(t *testing.T) {
	clock := time.Unix(1000, 0)
	limiter := newRateLimiter(3)
	limiter.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if !limiter.allow() {
			t.Fatalf("message %d rejected below the limit", i+1)
		}
	}
	if limiter.allow() {
		t.Fatal("message above the limit was allowed")
	}
}

func TestRateLimiterWindowRollsOver(t *testing.T) {
	clock := time.Unix(1000, 0)
	limiter := newRateLimiter(2)
	limiter.now = func() time.Time { return clock }

	limiter.allow()
	limiter.allow()
	if limiter.allow() {
		t.Fatal("third message in the same window was allowed")
	}

	clock = clock.Add(time.Minute)
	if !limiter.allow() {
		t.Fatal("message rejected after the window rolled over")
	}
}

func TestRateLimiterZeroLimitIsUnlimited(t *testing.T) {
	limiter := newRateLimiter(0)
	for i := 0; i < 1000; i++ {
		if !limiter.allow() {
			t.Fatalf("message %d rejected with no limit configured", i+1)
		}
	}
}
