package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID                   int64           `json:"id"`
	Username             string          `json:"username"`
	DisplayName          string          `json:"displayName"`
	Email                string          `json:"email"`
	PasswordHash         string          `json:"-"`
	FinancialHealthScore int             `json:"financialHealthScore"`
	PortfolioValue       decimal.Decimal `json:"portfolioValue"`
	CreatedAt            time.Time       `json:"createdAt"`
}

type FinancialGoal struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    time.Time       `json:"targetDate"`
	Category      string          `json:"category"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Progress is the share of the target already saved, in percent, capped at 100.
func (g FinancialGoal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	pct := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	return pct.Round(2).InexactFloat64()
}

type ChatSession struct {
	ID        int64     `json:"-"`
	PublicID  uuid.UUID `json:"id"`
	UserID    int64     `json:"userId"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"-"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Encrypted bool      `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

type FinancialHealthRecord struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	SavingsRate     float64   `json:"savingsRate"`
	DebtToIncome    float64   `json:"debtToIncome"`
	EmergencyFund   float64   `json:"emergencyFund"`
	InvestmentRate  float64   `json:"investmentRate"`
	Score           int       `json:"score"`
	Category        string    `json:"category"`
	Recommendations []string  `json:"recommendations"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Discussion struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"userId"`
	Author             string    `json:"author,omitempty"`
	Title              string    `json:"title"`
	Content            string    `json:"content"`
	ReplyCount         int       `json:"replyCount"`
	ViewCount          int       `json:"viewCount"`
	Status             string    `json:"status"`
	SentimentScore     *float64  `json:"sentimentScore"`
	SentimentMagnitude *float64  `json:"sentimentMagnitude"`
	SentimentLabel     *string   `json:"sentimentLabel"`
	CreatedAt          time.Time `json:"createdAt"`
}

type DiscussionReply struct {
	ID           int64     `json:"id"`
	DiscussionID int64     `json:"discussionId"`
	UserID       int64     `json:"userId"`
	Author       string    `json:"author,omitempty"`
	Content      string    `json:"content"`
	IsExpert     bool      `json:"isExpert"`
	CreatedAt    time.Time `json:"createdAt"`
}

type LLMUsageLog struct {
	ID             int64     `json:"id"`
	ProviderName   string    `json:"provider_name"`
	FeatureUsed    string    `json:"feature_used"`
	InputTokens    int       `json:"input_tokens"`
	OutputTokens   int       `json:"output_tokens"`
	TotalTokens    int       `json:"total_tokens"`
	InputCost      float64   `json:"input_cost"`
	OutputCost     float64   `json:"output_cost"`
	TotalCost      float64   `json:"total_cost"`
	ResponseTimeMS int64     `json:"response_time_ms"`
	Success        bool      `json:"success"`
	ErrorMessage   string    `json:"error_message"`
	CreatedAt      time.Time `json:"created_at"`
}

type LLMProviderHealth struct {
	ID           int64     `json:"id"`
	ProviderName string    `json:"provider_name"`
	CheckTime    time.Time `json:"check_time"`
	Status       string    `json:"status"`
	LatencyMS    int64     `json:"latency_ms"`
	ErrorMessage *string   `json:"error_message"`
}
