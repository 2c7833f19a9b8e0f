package repository

import (
	"testing"
	"time"
)

func TestOTPState_Transitions(t *testing.T) {
	cases := []struct {
		from, to OTPState
		ok       bool
	}{
		{OTPStateActive, OTPStateConsumed, true},
		{OTPStateActive, OTPStateExpired, true},
		{OTPStateActive, OTPStateActive, false},
		{OTPStateConsumed, OTPStateActive, false},
		{OTPStateConsumed, OTPStateExpired, false},
		{OTPStateExpired, OTPStateConsumed, false},
		{OTPState("bogus"), OTPStateConsumed, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.ok {
			t.Fatalf("%s -> %s: got %v want %v", c.from, c.to, got, c.ok)
		}
		if err := CheckTransition(c.from, c.to); (err == nil) != c.ok {
			t.Fatalf("CheckTransition(%s, %s) err=%v", c.from, c.to, err)
		}
	}
}

func TestOTPEntry_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e := OTPEntry{State: OTPStateActive, ExpiresAt: now}

	if !e.ExpiredAt(now) {
		t.Fatal("entry must be invalid at expiresAt")
	}
	if e.ActiveAt(now) {
		t.Fatal("entry must not be active at expiresAt")
	}
	if !e.ActiveAt(now.Add(-time.Millisecond)) {
		t.Fatal("entry must be active before expiresAt")
	}
	if e.ConsumedOrExpired() {
		t.Fatal("active entry flagged")
	}
	e.State = OTPStateConsumed
	if !e.ConsumedOrExpired() || e.ActiveAt(now.Add(-time.Hour)) {
		t.Fatal("consumed entry must never be active")
	}
}
