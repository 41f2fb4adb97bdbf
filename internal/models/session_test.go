package models

import (
	"testing"
	"time"
)

func TestSessionIsValid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		active    bool
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "active and unexpired",
			active:    true,
			expiresAt: now.Add(time.Hour),
			want:      true,
		},
		{
			name:      "active but expired",
			active:    true,
			expiresAt: now.Add(-time.Hour),
			want:      false,
		},
		{
			name:      "inactive but unexpired",
			active:    false,
			expiresAt: now.Add(time.Hour),
			want:      false,
		},
		{
			name:      "expires exactly now",
			active:    true,
			expiresAt: now,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &Session{Active: tt.active, ExpiresAt: tt.expiresAt}
			if got := session.IsValid(now); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}
