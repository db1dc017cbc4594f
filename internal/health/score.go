// Package health computes the offline financial health score: four ratio
// sub-scores, a weighted composite, a category band and prioritized advice.
package health

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryExcellent        Category = "Excellent"
	CategoryGood             Category = "Good"
	CategoryFair             Category = "Fair"
	CategoryNeedsImprovement Category = "Needs Improvement"
)

const (
	weightSavings       = 0.25
	weightDebt          = 0.30
	weightEmergencyFund = 0.25
	weightInvestment    = 0.20

	recommendationThreshold = 60

	// rupees of monthly expenses assumed per emergency-fund month when sizing the SIP
	expensesPerMonth = 10000
)

type Result struct {
	Score           int      `json:"score"`
	Category        Category `json:"category"`
	Recommendations []string `json:"recommendations"`
}

// SubScores are the 0-100 normalizations of each ratio.
type SubScores struct {
	Savings       int `json:"savings"`
	Debt          int `json:"debt"`
	EmergencyFund int `json:"emergencyFund"`
	Investment    int `json:"investment"`
}

func ComputeScore(data FinancialData) Result {
	data = data.Normalized()
	sub := ComputeSubScores(data)

	total := roundHalfUp(
		float64(sub.Savings)*weightSavings +
			float64(sub.Debt)*weightDebt +
			float64(sub.EmergencyFund)*weightEmergencyFund +
			float64(sub.Investment)*weightInvestment,
	)
	total = clampScore(total)

	return Result{
		Score:           total,
		Category:        CategoryFor(total),
		Recommendations: recommendations(data, sub),
	}
}

func ComputeSubScores(data FinancialData) SubScores {
	data = data.Normalized()
	return SubScores{
		Savings:       SavingsScore(data.SavingsRate),
		Debt:          DebtScore(data.DebtToIncome),
		EmergencyFund: EmergencyFundScore(data.EmergencyFund),
		Investment:    InvestmentScore(data.InvestmentRate),
	}
}

func SavingsScore(rate float64) int {
	return ramp(rate, 0, 30)
}

// DebtScore is inverted: 100 at or below 10% debt-to-income, 0 at or above 50%.
func DebtScore(ratio float64) int {
	if ratio >= 50 {
		return 0
	}
	if ratio <= 10 {
		return 100
	}
	return clampScore(roundHalfUp(100 - ((ratio-10)/40)*100))
}

func EmergencyFundScore(months float64) int {
	return ramp(months, 0, 6)
}

func InvestmentScore(rate float64) int {
	return ramp(rate, 0, 20)
}

func CategoryFor(score int) Category {
	switch {
	case score >= 80:
		return CategoryExcellent
	case score >= 60:
		return CategoryGood
	case score >= 40:
		return CategoryFair
	default:
		return CategoryNeedsImprovement
	}
}

func ramp(value, floor, ceiling float64) int {
	if math.IsNaN(value) || value <= floor {
		return 0
	}
	if value >= ceiling {
		return 100
	}
	return clampScore(roundHalfUp((value - floor) / (ceiling - floor) * 100))
}

func recommendations(data FinancialData, sub SubScores) []string {
	recs := make([]string, 0, 4)

	if sub.Savings < recommendationThreshold {
		target := math.Min(data.SavingsRate+5, 20)
		recs = append(recs, fmt.Sprintf(
			"Try to increase your savings rate from %s%% to at least %s%% of your income by cutting non-essential expenses.",
			formatNumber(data.SavingsRate), formatNumber(target)))
	}

	if sub.Debt < recommendationThreshold {
		recs = append(recs, fmt.Sprintf(
			"Your debt-to-income ratio of %s%% is too high. Focus on paying down high-interest debt and avoid taking on new debt.",
			formatNumber(data.DebtToIncome)))
	}

	if sub.EmergencyFund < recommendationThreshold {
		target := math.Min(data.EmergencyFund+2, 6)
		recs = append(recs, fmt.Sprintf(
			"Increase your emergency fund from %s months to at least %s months of expenses. Consider setting up an automatic SIP of ₹%s monthly.",
			formatNumber(data.EmergencyFund), formatNumber(target), MonthlySIP(data.EmergencyFund, target).String()))
	}

	if sub.Investment < recommendationThreshold {
		target := math.Min(data.InvestmentRate+5, 15)
		recs = append(recs, fmt.Sprintf(
			"Increase your investment rate from %s%% to at least %s%% to meet long-term financial goals. Consider equity-oriented investments for long-term growth.",
			formatNumber(data.InvestmentRate), formatNumber(target)))
	}

	if len(recs) == 0 {
		recs = append(recs, "Your financial health is strong. Consider optimizing your investment portfolio for tax efficiency and diversification.")
	}
	return recs
}

// MonthlySIP is the whole-rupee monthly contribution that closes the gap
// between current and target emergency-fund months within a year.
func MonthlySIP(currentMonths, targetMonths float64) decimal.Decimal {
	gap := decimal.NewFromFloat(targetMonths).Sub(decimal.NewFromFloat(currentMonths))
	if gap.IsNegative() {
		return decimal.Zero
	}
	return gap.Mul(decimal.NewFromInt(expensesPerMonth)).Div(decimal.NewFromInt(12)).Ceil()
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
