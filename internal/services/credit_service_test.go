package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/90n9/talepick/internal/models"
)

func TestRefillAmount(t *testing.T) {
	anchor := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	interval := models.CreditRefillInterval

	tests := []struct {
		name       string
		credits    int
		max        int
		elapsed    time.Duration
		wantAdded  int
		wantAnchor time.Time
	}{
		{
			name:       "nothing accrued yet",
			credits:    10,
			max:        20,
			elapsed:    interval - time.Second,
			wantAdded:  0,
			wantAnchor: anchor,
		},
		{
			name:       "one interval",
			credits:    10,
			max:        20,
			elapsed:    interval,
			wantAdded:  1,
			wantAnchor: anchor.Add(interval),
		},
		{
			name:       "remainder carries toward the next credit",
			credits:    10,
			max:        20,
			elapsed:    3*interval + 2*time.Minute,
			wantAdded:  3,
			wantAnchor: anchor.Add(3 * interval),
		},
		{
			name:       "accrual clamps at the cap",
			credits:    18,
			max:        20,
			elapsed:    10 * interval,
			wantAdded:  2,
			wantAnchor: anchor.Add(10 * interval),
		},
		{
			name:       "full balance accrues nothing",
			credits:    20,
			max:        20,
			elapsed:    10 * interval,
			wantAdded:  0,
			wantAnchor: anchor.Add(10 * interval),
		},
		{
			name:       "above cap accrues nothing",
			credits:    25,
			max:        20,
			elapsed:    10 * interval,
			wantAdded:  0,
			wantAnchor: anchor.Add(10 * interval),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := anchor.Add(tt.elapsed)
			added, newAnchor := refillAmount(tt.credits, tt.max, anchor, now)
			assert.Equal(t, tt.wantAdded, added)
			assert.Equal(t, tt.wantAnchor, newAnchor)
		})
	}
}

func TestRefillAmount_AnchorSnapsToNowAtCap(t *testing.T) {
	anchor := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Reaching the cap mid-accrual must not bank the leftover intervals:
	// the anchor snaps to now so drained credits regrow from scratch.
	now := anchor.Add(10 * models.CreditRefillInterval)
	added, newAnchor := refillAmount(19, 20, anchor, now)
	assert.Equal(t, 1, added)
	assert.Equal(t, now, newAnchor)
}

func TestCreditPolicyConstants(t *testing.T) {
	assert.Equal(t, 5*time.Minute, models.CreditRefillInterval)
	assert.Equal(t, 1, models.ChoiceCreditCost)
	assert.Greater(t, models.BaseMaxCredits, models.GuestMaxCredits)
}
