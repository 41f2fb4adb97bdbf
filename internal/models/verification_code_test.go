package models

import (
	"testing"
	"time"
)

func testCode(now time.Time) *VerificationCode {
	return &VerificationCode{
		Email:       "reader@example.com",
		Code:        "123456",
		Purpose:     PurposeRegistration,
		Attempts:    0,
		MaxAttempts: MaxVerificationAttempts,
		CreatedAt:   now,
		ExpiresAt:   now.Add(10 * time.Minute),
	}
}

func TestVerificationPurposeIsValid(t *testing.T) {
	tests := []struct {
		purpose VerificationPurpose
		want    bool
	}{
		{PurposeRegistration, true},
		{PurposePasswordReset, true},
		{PurposeLoginVerification, true},
		{VerificationPurpose("account_deletion"), false},
		{VerificationPurpose(""), false},
	}

	for _, tt := range tests {
		if got := tt.purpose.IsValid(); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.purpose, got, tt.want)
		}
	}
}

func TestVerificationCodeStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("pending", func(t *testing.T) {
		code := testCode(now)
		if got := code.Status(now); got != VerificationStatusPending {
			t.Errorf("Status() = %q, want %q", got, VerificationStatusPending)
		}
	})

	t.Run("used", func(t *testing.T) {
		code := testCode(now)
		usedAt := now.Add(time.Minute)
		code.UsedAt = &usedAt
		if got := code.Status(now); got != VerificationStatusUsed {
			t.Errorf("Status() = %q, want %q", got, VerificationStatusUsed)
		}
	})

	t.Run("expired", func(t *testing.T) {
		code := testCode(now)
		later := now.Add(10 * time.Minute)
		if got := code.Status(later); got != VerificationStatusExpired {
			t.Errorf("Status() at expiry instant = %q, want %q", got, VerificationStatusExpired)
		}
	})

	t.Run("max attempts exceeded", func(t *testing.T) {
		code := testCode(now)
		code.Attempts = code.MaxAttempts
		if got := code.Status(now); got != VerificationStatusMaxAttemptsExceeded {
			t.Errorf("Status() = %q, want %q", got, VerificationStatusMaxAttemptsExceeded)
		}
	})

	t.Run("used wins over expired", func(t *testing.T) {
		code := testCode(now)
		usedAt := now.Add(time.Minute)
		code.UsedAt = &usedAt
		later := now.Add(time.Hour)
		if got := code.Status(later); got != VerificationStatusUsed {
			t.Errorf("Status() = %q, want %q", got, VerificationStatusUsed)
		}
	})
}

func TestVerificationCodeIsUsable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	code := testCode(now)
	if !code.IsUsable(now) {
		t.Error("fresh code should be usable")
	}

	// One instant before expiry it is still usable, at expiry it is not
	if !code.IsUsable(code.ExpiresAt.Add(-time.Nanosecond)) {
		t.Error("code should be usable just before expiry")
	}
	if code.IsUsable(code.ExpiresAt) {
		t.Error("code should not be usable at its expiry instant")
	}

	used := testCode(now)
	usedAt := now
	used.UsedAt = &usedAt
	if used.IsUsable(now) {
		t.Error("consumed code should not be usable")
	}

	exhausted := testCode(now)
	exhausted.Attempts = exhausted.MaxAttempts
	if exhausted.IsUsable(now) {
		t.Error("code with exhausted attempts should not be usable")
	}
}

func TestVerificationCodeRemainingAttempts(t *testing.T) {
	tests := []struct {
		attempts int
		want     int
	}{
		{0, 3},
		{1, 2},
		{2, 1},
		{3, 0},
		{4, 0},
	}

	for _, tt := range tests {
		code := &VerificationCode{Attempts: tt.attempts, MaxAttempts: MaxVerificationAttempts}
		if got := code.RemainingAttempts(); got != tt.want {
			t.Errorf("RemainingAttempts() with %d attempts = %d, want %d", tt.attempts, got, tt.want)
		}
	}
}
