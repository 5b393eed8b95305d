package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPenaltyFor(t *testing.T) {
	rules := DefaultBusinessRules()

	// La banda del 60% tiene su propio castigo negociado.
	assert.Equal(t, 0.60, rules.PenaltyFor(0.60))
	assert.Equal(t, 0.60, rules.PenaltyFor(0.595))
	assert.Equal(t, 0.60, rules.PenaltyFor(0.605))

	// Fuera de la tolerancia ±0.01 aplica el default.
	assert.Equal(t, 0.40, rules.PenaltyFor(0.61))
	assert.Equal(t, 0.40, rules.PenaltyFor(0.50))
	assert.Equal(t, 0.40, rules.PenaltyFor(0.90))
}

func TestEstimateLeadTime(t *testing.T) {
	rules := DefaultBusinessRules()

	tests := []struct {
		amount float64
		weeks  float64
	}{
		{0, 6},
		{10_000, 6},
		{49_999, 6},
		{50_000, 10}, // límite inferior inclusivo
		{150_000, 10},
		{200_000, 16},
		{499_999, 16},
		{500_000, 24},
		{5_000_000, 24},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.weeks, rules.EstimateLeadTime(tc.amount), "amount=%.0f", tc.amount)
	}
}

func TestStagePctSum(t *testing.T) {
	rules := DefaultBusinessRules()
	assert.InDelta(t, 1.0, rules.StagePctSum(), 0.001)
}

func TestParseBusinessUnit(t *testing.T) {
	for _, bu := range ValidBusinessUnits {
		got, err := ParseBusinessUnit(string(bu))
		assert.NoError(t, err)
		assert.Equal(t, bu, got)
	}

	_, err := ParseBusinessUnit("XYZ")
	assert.Error(t, err)
	_, err = ParseBusinessUnit("")
	assert.Error(t, err)
}

func TestMultiStage(t *testing.T) {
	assert.False(t, BUICT.MultiStage())
	assert.True(t, BUFCT.MultiStage())
	assert.True(t, BUIAT.MultiStage())
	assert.True(t, BUREP.MultiStage())
	assert.True(t, BUSWD.MultiStage())
}
