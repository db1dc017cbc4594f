package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func chatSystemPrompt(language string, now time.Time) string {
	return fmt.Sprintf(`You are FinAI, an AI-powered financial assistant for Indian users.
You provide accurate, personalized financial advice based on Indian markets and regulations.
You're knowledgeable about stocks, mutual funds, insurance, retirement planning, and tax optimization in India.
You always provide balanced advice, considering both risks and rewards.
You cite credible sources when appropriate. If you're unsure, you admit it rather than providing potentially incorrect information.
You avoid making specific stock predictions or guarantees about future returns.

The user's preferred language is %s. If it's not English, try to respond in that language.

Current date: %s`, language, now.Format("2 January 2006"))
}

func sentimentPrompt(text string) string {
	return fmt.Sprintf(`Analyze the sentiment of this financial text: %q

Return only a valid JSON object with the following structure:
{
  "score": a number from -1 (very negative) to 1 (very positive) representing sentiment,
  "magnitude": a number from 0 to 1 representing sentiment strength,
  "sentiment": one of "positive", "negative", or "neutral" string value
}

Look for emotional bias in financial decisions. Determine if the person seems fearful, greedy, or neutral.
Only return the JSON object without any additional text.`, text)
}

func recommendationsPrompt(riskProfile string, amount float64, goals []string) string {
	amountText := "unspecified"
	if amount > 0 {
		amountText = decimal.NewFromFloat(amount).StringFixed(2)
	}
	goalsText := strings.Join(goals, ", ")
	if strings.TrimSpace(goalsText) == "" {
		goalsText = "unspecified"
	}
	return fmt.Sprintf(`Generate personalized investment recommendations for an Indian investor with the following profile:
- Risk profile: %s
- Investment amount: ₹%s
- Financial goals: %s

Generate 3-5 specific investment recommendations with the following JSON structure for each:
{
  "name": "Investment name",
  "type": "stock/mutual_fund/etf/bond/other",
  "risk": "low/medium/high",
  "potentialReturn": percentage,
  "description": "Brief category and risk description",
  "rationale": "Why this is recommended"
}

Only respond with valid JSON array of recommendations. Do not include any introduction or conclusion text.`, riskProfile, amountText, goalsText)
}

func educationPrompt(topic, difficulty, language string) string {
	return fmt.Sprintf(`Generate educational content about %q for a %s level user in %s language.
Format your response as JSON with the following structure:
{
  "title": "Engaging title for the topic",
  "content": "Detailed educational content about the topic",
  "keyPoints": ["Key point 1", "Key point 2", "Key point 3", "Key point 4", "Key point 5"]
}
The content should be accurate, informative, and tailored to Indian financial context.
Only return valid JSON without any introduction or conclusion.`, topic, difficulty, language)
}

func scamPrompt(description string) string {
	return fmt.Sprintf(`Analyze this investment opportunity for potential red flags or signs of a scam:
%q

Respond with a JSON object that includes:
{
  "isScam": boolean indicating if this is likely a scam,
  "confidenceScore": number from 0 to 1 indicating confidence,
  "explanation": detailed explanation of why this is or isn't a scam
}
Only return valid JSON without any introduction or conclusion.`, description)
}
