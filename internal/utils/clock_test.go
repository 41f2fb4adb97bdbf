package utils

import (
	"testing"
	"time"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	clock.Advance(10 * time.Minute)
	want := start.Add(10 * time.Minute)
	if got := clock.Now(); !got.Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestRealClock(t *testing.T) {
	before := time.Now()
	got := RealClock().Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("RealClock().Now() = %v, want within [%v, %v]", got, before, after)
	}
}
