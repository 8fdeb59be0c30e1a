package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in       float64
		decimals int
		want     float64
	}{
		{0.125, 2, 0.13},
		{-0.125, 2, -0.13},
		{0.005, 2, 0.01},
		{-0.005, 2, -0.01},
		{1.0 / 3.0, 2, 0.33},
		{2.0 / 3.0, 2, 0.67},
		{0.285, 2, 0.29},
		{1.005, 2, 1.01},
		{0, 2, 0},
		{1, 2, 1},
		{12.3456, 0, 12},
		{12.5, 0, 13},
		{-0.0001, 2, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in, tt.decimals), "Round(%v, %d)", tt.in, tt.decimals)
	}
}

func TestRoundNegativeZero(t *testing.T) {
	got := Round(-0.0001, 2)
	assert.False(t, math.Signbit(got), "expected +0, got %v", got)
}

func TestRoundPassesThroughNonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
	assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, percent(3, 0))
	assert.Equal(t, 66.67, percent(2, 3))
	assert.Equal(t, 100.0, percent(4, 4))
}
