package llm

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

type allocation struct {
	rec     InvestmentRecommendation
	percent int64
}

// Allocation percentages within each profile sum to 100.
var fallbackPortfolios = map[string][]allocation{
	RiskLow: {
		{InvestmentRecommendation{
			Name:            "Public Provident Fund (PPF)",
			Type:            "bond",
			Risk:            RiskLow,
			PotentialReturn: 7.1,
			Description:     "Government-backed savings scheme with a 15-year lock-in.",
			Rationale:       "Protects capital and earns tax-free interest with a Section 80C deduction.",
		}, 40},
		{InvestmentRecommendation{
			Name:            "Short Duration Debt Fund",
			Type:            "mutual_fund",
			Risk:            RiskLow,
			PotentialReturn: 7.0,
			Description:     "Debt mutual fund holding bonds that mature in one to three years.",
			Rationale:       "Steadier than equity with better liquidity than a fixed deposit.",
		}, 30},
		{InvestmentRecommendation{
			Name:            "Bank Fixed Deposit",
			Type:            "other",
			Risk:            RiskLow,
			PotentialReturn: 6.5,
			Description:     "Fixed-tenure deposit with assured interest.",
			Rationale:       "Predictable returns for goals less than three years away.",
		}, 30},
	},
	RiskMedium: {
		{InvestmentRecommendation{
			Name:            "Nifty 50 Index Fund",
			Type:            "mutual_fund",
			Risk:            RiskMedium,
			PotentialReturn: 12,
			Description:     "Passive fund tracking India's fifty largest listed companies.",
			Rationale:       "Low-cost diversified equity exposure for long horizons.",
		}, 40},
		{InvestmentRecommendation{
			Name:            "ELSS Tax Saver Fund",
			Type:            "mutual_fund",
			Risk:            RiskMedium,
			PotentialReturn: 13,
			Description:     "Equity-linked savings scheme with a 3-year lock-in.",
			Rationale:       "Equity growth together with a Section 80C deduction.",
		}, 30},
		{InvestmentRecommendation{
			Name:            "Balanced Advantage Fund",
			Type:            "mutual_fund",
			Risk:            RiskMedium,
			PotentialReturn: 10,
			Description:     "Hybrid fund that moves between equity and debt with valuations.",
			Rationale:       "Keeps some equity upside while cushioning market falls.",
		}, 30},
	},
	RiskHigh: {
		{InvestmentRecommendation{
			Name:            "Flexi Cap Fund",
			Type:            "mutual_fund",
			Risk:            RiskHigh,
			PotentialReturn: 14,
			Description:     "Equity fund free to invest across large, mid and small companies.",
			Rationale:       "Core equity holding that lets the manager chase growth.",
		}, 40},
		{InvestmentRecommendation{
			Name:            "Mid Cap Fund",
			Type:            "mutual_fund",
			Risk:            RiskHigh,
			PotentialReturn: 16,
			Description:     "Equity fund focused on mid-sized companies.",
			Rationale:       "Higher growth potential for investors with a 7+ year horizon.",
		}, 30},
		{InvestmentRecommendation{
			Name:            "Small Cap Fund",
			Type:            "mutual_fund",
			Risk:            RiskHigh,
			PotentialReturn: 18,
			Description:     "Equity fund investing in small companies with high volatility.",
			Rationale:       "Satellite holding for maximum long-term growth.",
		}, 30},
	},
}

// RiskLevel maps a free-form risk profile to low, medium or high. Unknown
// profiles are treated as medium.
func RiskLevel(profile string) string {
	p := strings.ToLower(profile)
	switch {
	case strings.Contains(p, "low"), strings.Contains(p, "conservative"):
		return RiskLow
	case strings.Contains(p, "high"), strings.Contains(p, "aggressive"):
		return RiskHigh
	default:
		return RiskMedium
	}
}

// FallbackRecommendations returns the fixed portfolio for the risk profile.
// With a positive amount each entry carries its share in rupees.
func FallbackRecommendations(riskProfile string, amount float64) []InvestmentRecommendation {
	portfolio := fallbackPortfolios[RiskLevel(riskProfile)]
	total := decimal.NewFromFloat(amount)
	out := make([]InvestmentRecommendation, 0, len(portfolio))
	for _, item := range portfolio {
		rec := item.rec
		if amount > 0 {
			share := total.Mul(decimal.NewFromInt(item.percent)).Div(decimal.NewFromInt(100)).Round(2)
			rec.SuggestedAmount = &share
		}
		out = append(out, rec)
	}
	return out
}
