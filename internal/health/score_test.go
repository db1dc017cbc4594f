package health

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeScoreAllZero(t *testing.T) {
	result := ComputeScore(FinancialData{SavingsRate: 0, DebtToIncome: 60, EmergencyFund: 0, InvestmentRate: 0})

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, CategoryNeedsImprovement, result.Category)
	require.Len(t, result.Recommendations, 4)
	assert.Contains(t, result.Recommendations[0], "savings rate from 0% to at least 5%")
	assert.Contains(t, result.Recommendations[1], "debt-to-income ratio of 60%")
	assert.Contains(t, result.Recommendations[2], "from 0 months to at least 2 months")
	assert.Contains(t, result.Recommendations[2], "₹1667 monthly")
	assert.Contains(t, result.Recommendations[3], "investment rate from 0% to at least 5%")
}

func TestComputeScorePerfect(t *testing.T) {
	result := ComputeScore(FinancialData{SavingsRate: 30, DebtToIncome: 10, EmergencyFund: 6, InvestmentRate: 20})

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, CategoryExcellent, result.Category)
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0], "financial health is strong")
}

func TestComputeScoreMixed(t *testing.T) {
	result := ComputeScore(FinancialData{SavingsRate: 15, DebtToIncome: 30, EmergencyFund: 3, InvestmentRate: 10})
	assert.Equal(t, 50, result.Score)
	assert.Equal(t, CategoryFair, result.Category)
	assert.Len(t, result.Recommendations, 4)

	result = ComputeScore(FinancialData{SavingsRate: 20, DebtToIncome: 20, EmergencyFund: 4, InvestmentRate: 12})
	assert.Equal(t, 68, result.Score)
	assert.Equal(t, CategoryGood, result.Category)
	assert.Len(t, result.Recommendations, 1)
}

func TestComputeScoreIsIdempotent(t *testing.T) {
	data := FinancialData{SavingsRate: 12.5, DebtToIncome: 35, EmergencyFund: 1.5, InvestmentRate: 4}
	assert.Equal(t, ComputeScore(data), ComputeScore(data))
}

func TestRecommendationOrderSkipsHealthyComponents(t *testing.T) {
	result := ComputeScore(FinancialData{SavingsRate: 25, DebtToIncome: 45, EmergencyFund: 6, InvestmentRate: 2})
	require.Len(t, result.Recommendations, 2)
	assert.Contains(t, result.Recommendations[0], "debt-to-income ratio of 45%")
	assert.Contains(t, result.Recommendations[1], "investment rate from 2% to at least 7%")
}

func TestSavingsTargetIsCapped(t *testing.T) {
	result := ComputeScore(FinancialData{SavingsRate: 17, DebtToIncome: 10, EmergencyFund: 6, InvestmentRate: 20})
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0], "from 17% to at least 20%")
}

func TestSubScoreRamps(t *testing.T) {
	cases := []struct {
		name string
		fn   func(float64) int
		in   float64
		want int
	}{
		{"savings floor", SavingsScore, 0, 0},
		{"savings mid", SavingsScore, 15, 50},
		{"savings rounding", SavingsScore, 29, 97},
		{"savings small", SavingsScore, 1, 3},
		{"savings ceiling", SavingsScore, 30, 100},
		{"savings huge", SavingsScore, 10000, 100},
		{"debt low", DebtScore, 5, 100},
		{"debt floor", DebtScore, 10, 100},
		{"debt mid", DebtScore, 30, 50},
		{"debt rounding", DebtScore, 27, 58},
		{"debt ceiling", DebtScore, 50, 0},
		{"debt huge", DebtScore, 10000, 0},
		{"emergency mid", EmergencyFundScore, 3, 50},
		{"emergency ceiling", EmergencyFundScore, 6, 100},
		{"emergency huge", EmergencyFundScore, 1e9, 100},
		{"investment mid", InvestmentScore, 10, 50},
		{"investment ceiling", InvestmentScore, 20, 100},
		{"investment negative", InvestmentScore, -4, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.fn(tc.in))
		})
	}
}

func TestSavingsScoreLinearLaw(t *testing.T) {
	for rate := 0.0; rate <= 30; rate += 0.25 {
		want := int(math.Floor(rate/30*100 + 0.5))
		assert.Equal(t, want, SavingsScore(rate), "rate %v", rate)
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	values := []float64{0, 0.1, 5, 10, 29.99, 50, 1000, 1e12}
	for _, s := range values {
		for _, d := range values {
			for _, e := range values {
				for _, i := range values {
					score := ComputeScore(FinancialData{s, d, e, i}).Score
					assert.GreaterOrEqual(t, score, 0)
					assert.LessOrEqual(t, score, 100)
				}
			}
		}
	}
}

func TestCategoryBoundaries(t *testing.T) {
	cases := map[int]Category{
		0:   CategoryNeedsImprovement,
		39:  CategoryNeedsImprovement,
		40:  CategoryFair,
		59:  CategoryFair,
		60:  CategoryGood,
		79:  CategoryGood,
		80:  CategoryExcellent,
		100: CategoryExcellent,
	}
	for score, want := range cases {
		assert.Equal(t, want, CategoryFor(score), "score %d", score)
	}
}

func TestParseFinancialData(t *testing.T) {
	data := ParseFinancialData(map[string]any{
		"savingsRate":    " 12.5 ",
		"debtToIncome":   nil,
		"emergencyFund":  -3,
		"investmentRate": "abc",
	})
	assert.Equal(t, FinancialData{SavingsRate: 12.5}, data)

	data = ParseFinancialData(map[string]any{
		"savingsRate":    json.Number("20"),
		"debtToIncome":   float64(15),
		"emergencyFund":  true,
		"investmentRate": []int{1},
	})
	assert.Equal(t, FinancialData{SavingsRate: 20, DebtToIncome: 15, EmergencyFund: 1}, data)

	assert.Equal(t, FinancialData{}, ParseFinancialData(nil))
}

func TestNormalizedRejectsNonFinite(t *testing.T) {
	data := FinancialData{SavingsRate: math.NaN(), DebtToIncome: math.Inf(1), EmergencyFund: -1, InvestmentRate: 5}
	assert.Equal(t, FinancialData{InvestmentRate: 5}, data.Normalized())
}

func TestMonthlySIP(t *testing.T) {
	assert.Equal(t, "1667", MonthlySIP(0, 2).String())
	assert.Equal(t, "834", MonthlySIP(1, 2).String())
	assert.Equal(t, "0", MonthlySIP(6, 6).String())
}
