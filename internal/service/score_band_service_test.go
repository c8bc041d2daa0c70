package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreBands(t *testing.T) {
	bands := NewScoreBandService()
	tests := []struct {
		score int
		band  string
		label string
	}{
		{100, BandExcellent, "Excellent"},
		{90, BandExcellent, "Excellent"},
		{89, BandGood, "Good"},
		{75, BandGood, "Good"},
		{74, BandFair, "Fair"},
		{60, BandFair, "Fair"},
		{59, BandNeedsImprovement, "Needs Improvement"},
		{0, BandNeedsImprovement, "Needs Improvement"},
		{140, BandExcellent, "Excellent"},
		{-5, BandNeedsImprovement, "Needs Improvement"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.band, bands.BandFor(tc.score), "score %d", tc.score)
		assert.Equal(t, tc.label, bands.LabelFor(tc.score), "score %d", tc.score)
	}
}
