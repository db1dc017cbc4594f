package health

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FinancialData holds the four self-reported ratios a score is computed from.
// Rates are percentages of income, EmergencyFund is months of expenses.
type FinancialData struct {
	SavingsRate    float64 `json:"savingsRate"`
	DebtToIncome   float64 `json:"debtToIncome"`
	EmergencyFund  float64 `json:"emergencyFund"`
	InvestmentRate float64 `json:"investmentRate"`
}

// ParseFinancialData coerces untyped input into FinancialData. Anything that is
// missing, non-numeric, non-finite or negative becomes 0.
func ParseFinancialData(raw map[string]any) FinancialData {
	return FinancialData{
		SavingsRate:    toNumber(raw["savingsRate"]),
		DebtToIncome:   toNumber(raw["debtToIncome"]),
		EmergencyFund:  toNumber(raw["emergencyFund"]),
		InvestmentRate: toNumber(raw["investmentRate"]),
	}
}

// Normalized applies the same domain rules to an already typed value.
func (d FinancialData) Normalized() FinancialData {
	return FinancialData{
		SavingsRate:    sanitize(d.SavingsRate),
		DebtToIncome:   sanitize(d.DebtToIncome),
		EmergencyFund:  sanitize(d.EmergencyFund),
		InvestmentRate: sanitize(d.InvestmentRate),
	}
}

func toNumber(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return sanitize(v)
	case float32:
		return sanitize(float64(v))
	case int:
		return sanitize(float64(v))
	case int32:
		return sanitize(float64(v))
	case int64:
		return sanitize(float64(v))
	case uint:
		return sanitize(float64(v))
	case uint32:
		return sanitize(float64(v))
	case uint64:
		return sanitize(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return sanitize(f)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return sanitize(f)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
