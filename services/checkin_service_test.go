package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestNextStreak(t *testing.T) {
	now := day("2026-08-29")
	yesterday := day("2026-08-28")
	lastWeek := day("2026-08-22")

	tests := []struct {
		name    string
		last    *time.Time
		current int
		want    int
	}{
		{"first ever check-in", nil, 0, 1},
		{"consecutive day increments", &yesterday, 3, 4},
		{"gap resets to one", &lastWeek, 6, 1},
		{"streak caps at seven", &yesterday, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStreak(tt.last, now, tt.current))
		})
	}
}

func TestRewardForStreak(t *testing.T) {
	assert.Equal(t, 0.2, RewardForStreak(1))
	assert.Equal(t, 0.6, RewardForStreak(5))
	assert.Equal(t, 1.0, RewardForStreak(7))
	// Out-of-range streaks fall back to the day-one reward.
	assert.Equal(t, 0.2, RewardForStreak(42))
}
