package llm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevel(t *testing.T) {
	cases := map[string]string{
		"Low":               RiskLow,
		"conservative":      RiskLow,
		"HIGH":              RiskHigh,
		"very aggressive":   RiskHigh,
		"moderate":          RiskMedium,
		"":                  RiskMedium,
		"balanced investor": RiskMedium,
	}
	for profile, want := range cases {
		assert.Equal(t, want, RiskLevel(profile), profile)
	}
}

func TestFallbackPortfoliosSumToHundred(t *testing.T) {
	for level, portfolio := range fallbackPortfolios {
		var total int64
		for _, item := range portfolio {
			total += item.percent
			assert.Equal(t, level, item.rec.Risk)
		}
		assert.EqualValues(t, 100, total, level)
	}
}

func TestFallbackRecommendationsAmounts(t *testing.T) {
	recs := FallbackRecommendations("low", 2500.55)
	require.Len(t, recs, 3)
	sum := decimal.Zero
	for _, rec := range recs {
		require.NotNil(t, rec.SuggestedAmount)
		sum = sum.Add(*rec.SuggestedAmount)
	}
	assert.True(t, sum.Sub(decimal.NewFromFloat(2500.55)).Abs().LessThanOrEqual(decimal.NewFromFloat(0.02)))

	for _, rec := range FallbackRecommendations("high", 0) {
		assert.Nil(t, rec.SuggestedAmount)
	}
}

func TestFallbackRecommendationsDoNotShareState(t *testing.T) {
	first := FallbackRecommendations("medium", 1000)
	first[0].Name = "changed"
	second := FallbackRecommendations("medium", 1000)
	assert.NotEqual(t, "changed", second[0].Name)
}
