package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	FeatureChat            = "chat"
	FeatureSentiment       = "sentiment"
	FeatureRecommendations = "recommendations"
	FeatureEducation       = "education"
	FeatureScamCheck       = "scam_check"
)

var (
	errEmptyAnswer   = errors.New("provider returned an empty answer")
	errUnparsable    = errors.New("provider response could not be parsed")
	fencePattern     = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	jsonArrayPattern = regexp.MustCompile(`\[\s*\{[\s\S]*\}\s*\]`)
)

// Completer is the provider side of the advisor. *Router implements it.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

type InvestmentRecommendation struct {
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	Risk            string           `json:"risk"`
	PotentialReturn float64          `json:"potentialReturn"`
	Description     string           `json:"description"`
	Rationale       string           `json:"rationale"`
	SuggestedAmount *decimal.Decimal `json:"suggestedAmount,omitempty"`
}

type EducationalContent struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	KeyPoints []string `json:"keyPoints"`
}

type ScamCheck struct {
	IsScam          bool    `json:"isScam"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Explanation     string  `json:"explanation"`
}

// Advisor runs every AI-backed feature through the retry policy and resolves
// to an offline answer when no provider can help.
type Advisor struct {
	llm    Completer
	policy Policy
	cache  *ResponseCache
	logger *zap.Logger
	now    func() time.Time
}

type AdvisorOption func(*Advisor)

// WithPolicy replaces the retry policy. Configured is always derived from the
// completer.
func WithPolicy(policy Policy) AdvisorOption {
	return func(a *Advisor) { a.policy = policy }
}

func WithRetryLimits(maxRetries int, baseDelay, maxDelay time.Duration) AdvisorOption {
	return func(a *Advisor) {
		a.policy.MaxRetries = maxRetries
		a.policy.BaseDelay = baseDelay
		if maxDelay > 0 {
			a.policy.MaxDelay = maxDelay
		}
	}
}

func WithCache(cache *ResponseCache) AdvisorOption {
	return func(a *Advisor) { a.cache = cache }
}

func WithClock(now func() time.Time) AdvisorOption {
	return func(a *Advisor) { a.now = now }
}

func NewAdvisor(completer Completer, logger *zap.Logger, opts ...AdvisorOption) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Advisor{
		llm:    completer,
		policy: DefaultPolicy(false, logger),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Advisor) policyFor(feature string) Policy {
	p := a.policy.ForFeature(feature)
	p.Configured = a.llm != nil && a.llm.Configured()
	if p.Logger == nil {
		p.Logger = a.logger
	}
	return p
}

func (a *Advisor) complete(ctx context.Context, req CompletionRequest) (string, error) {
	completion, err := a.llm.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(completion.Text)
	if text == "" {
		return "", errEmptyAnswer
	}
	return text, nil
}

// Chat answers a user message, falling back to the canned answer tables.
func (a *Advisor) Chat(ctx context.Context, message string, history []ChatMessage, language string) string {
	if strings.TrimSpace(language) == "" {
		language = LanguageEnglish
	}
	temperature := 0.7
	req := CompletionRequest{
		Feature:     FeatureChat,
		System:      chatSystemPrompt(language, a.now()),
		Prompt:      message,
		History:     cleanHistory(history),
		Temperature: &temperature,
	}
	return WithRetry(ctx, a.policyFor(FeatureChat), func(ctx context.Context) (string, error) {
		return a.complete(ctx, req)
	}, func() string {
		return MatchFallback(message, language)
	})
}

func (a *Advisor) AnalyzeSentiment(ctx context.Context, text string) SentimentResult {
	req := CompletionRequest{
		Feature: FeatureSentiment,
		Prompt:  sentimentPrompt(text),
		JSON:    true,
	}
	return WithRetry(ctx, a.policyFor(FeatureSentiment), func(ctx context.Context) (SentimentResult, error) {
		raw, err := a.complete(ctx, req)
		if err != nil {
			return SentimentResult{}, err
		}
		result, ok := ParseSentiment(raw)
		if !ok {
			a.logger.Warn("invalid sentiment response, using lexicon", zap.String("feature", FeatureSentiment))
			return AnalyzeFallback(text), nil
		}
		return result, nil
	}, func() SentimentResult {
		return AnalyzeFallback(text)
	})
}

func (a *Advisor) Recommendations(ctx context.Context, riskProfile string, amount float64, goals []string) []InvestmentRecommendation {
	req := CompletionRequest{
		Feature: FeatureRecommendations,
		Prompt:  recommendationsPrompt(riskProfile, amount, goals),
	}
	return WithRetry(ctx, a.policyFor(FeatureRecommendations), func(ctx context.Context) ([]InvestmentRecommendation, error) {
		raw, err := a.complete(ctx, req)
		if err != nil {
			return nil, err
		}
		return ParseRecommendations(raw)
	}, func() []InvestmentRecommendation {
		return FallbackRecommendations(riskProfile, amount)
	})
}

type educationOutcome struct {
	content   EducationalContent
	cacheable bool
}

func (a *Advisor) EducationalContent(ctx context.Context, topic, difficulty, language string) EducationalContent {
	if strings.TrimSpace(language) == "" {
		language = LanguageEnglish
	}
	key := cacheKey(FeatureEducation, topic, difficulty, language)
	var cached EducationalContent
	if found, err := a.cache.Get(ctx, key, &cached); err != nil {
		a.logger.Warn("education cache read", zap.Error(err))
	} else if found {
		return cached
	}

	req := CompletionRequest{
		Feature: FeatureEducation,
		Prompt:  educationPrompt(topic, difficulty, language),
		JSON:    true,
	}
	outcome := WithRetry(ctx, a.policyFor(FeatureEducation), func(ctx context.Context) (educationOutcome, error) {
		raw, err := a.complete(ctx, req)
		if err != nil {
			return educationOutcome{}, err
		}
		content, ok := ParseEducationalContent(raw)
		if !ok {
			return educationOutcome{content: EducationalContent{
				Title:     levelTitle(topic, difficulty),
				Content:   raw,
				KeyPoints: []string{"Key information about this topic"},
			}}, nil
		}
		return educationOutcome{content: content, cacheable: true}, nil
	}, func() educationOutcome {
		return educationOutcome{content: DefaultEducationalContent(topic, difficulty)}
	})

	if outcome.cacheable {
		if err := a.cache.Set(ctx, key, outcome.content); err != nil {
			a.logger.Warn("education cache write", zap.Error(err))
		}
	}
	return outcome.content
}

const (
	scamParseExplanation       = "Failed to parse response. Exercise caution with any investment that promises guaranteed returns or sounds too good to be true."
	scamUnavailableExplanation = "Automated analysis is unavailable right now. Exercise caution with any investment that promises guaranteed returns or sounds too good to be true."
)

func (a *Advisor) CheckScam(ctx context.Context, description string) ScamCheck {
	req := CompletionRequest{
		Feature: FeatureScamCheck,
		Prompt:  scamPrompt(description),
		JSON:    true,
	}
	return WithRetry(ctx, a.policyFor(FeatureScamCheck), func(ctx context.Context) (ScamCheck, error) {
		raw, err := a.complete(ctx, req)
		if err != nil {
			return ScamCheck{}, err
		}
		check, ok := ParseScamCheck(raw)
		if !ok {
			return HeuristicScamCheck(description, scamParseExplanation), nil
		}
		return check, nil
	}, func() ScamCheck {
		return HeuristicScamCheck(description, scamUnavailableExplanation)
	})
}

func cleanHistory(history []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case RoleUser, RoleAssistant:
			out = append(out, ChatMessage{Role: msg.Role, Content: content})
		}
	}
	return out
}

// StripFences returns the body of the first markdown code block, or the
// trimmed input when there is none.
func StripFences(text string) string {
	if match := fencePattern.FindStringSubmatch(text); len(match) == 2 && match[1] != "" {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(text)
}

// ParseSentiment accepts only an object with numeric score and magnitude and
// a non-empty label.
func ParseSentiment(raw string) (SentimentResult, bool) {
	text := StripFences(raw)
	if !gjson.Valid(text) {
		return SentimentResult{}, false
	}
	doc := gjson.Parse(text)
	score := doc.Get("score")
	magnitude := doc.Get("magnitude")
	label := doc.Get("sentiment")
	if score.Type != gjson.Number || magnitude.Type != gjson.Number || strings.TrimSpace(label.String()) == "" {
		return SentimentResult{}, false
	}
	return NormalizeSentiment(SentimentResult{
		Score:     score.Float(),
		Magnitude: magnitude.Float(),
		Sentiment: label.String(),
	}), true
}

func ParseRecommendations(raw string) ([]InvestmentRecommendation, error) {
	text := StripFences(raw)
	list := gjson.Result{}
	if gjson.Valid(text) {
		doc := gjson.Parse(text)
		switch {
		case doc.IsArray():
			list = doc
		case doc.Get("recommendations").IsArray():
			list = doc.Get("recommendations")
		}
	}
	if !list.Exists() {
		match := jsonArrayPattern.FindString(raw)
		if match == "" || !gjson.Valid(match) {
			return nil, errUnparsable
		}
		list = gjson.Parse(match)
	}

	var out []InvestmentRecommendation
	list.ForEach(func(_, item gjson.Result) bool {
		name := strings.TrimSpace(item.Get("name").String())
		if name == "" {
			return true
		}
		out = append(out, InvestmentRecommendation{
			Name:            name,
			Type:            item.Get("type").String(),
			Risk:            item.Get("risk").String(),
			PotentialReturn: percentValue(item.Get("potentialReturn")),
			Description:     item.Get("description").String(),
			Rationale:       item.Get("rationale").String(),
		})
		return true
	})
	if len(out) == 0 {
		return nil, errUnparsable
	}
	return out, nil
}

// percentValue reads numbers as-is and strings like "12%" or "10-12" by their
// leading number.
func percentValue(v gjson.Result) float64 {
	if v.Type == gjson.Number {
		return v.Float()
	}
	s := strings.TrimSpace(v.String())
	end := 0
	for end < len(s) && (s[end] == '.' || s[end] == '-' && end == 0 || s[end] >= '0' && s[end] <= '9') {
		end++
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func ParseEducationalContent(raw string) (EducationalContent, bool) {
	text := StripFences(raw)
	if !gjson.Valid(text) {
		return EducationalContent{}, false
	}
	doc := gjson.Parse(text)
	content := EducationalContent{
		Title:   strings.TrimSpace(doc.Get("title").String()),
		Content: strings.TrimSpace(doc.Get("content").String()),
	}
	if content.Title == "" || content.Content == "" {
		return EducationalContent{}, false
	}
	doc.Get("keyPoints").ForEach(func(_, point gjson.Result) bool {
		if p := strings.TrimSpace(point.String()); p != "" {
			content.KeyPoints = append(content.KeyPoints, p)
		}
		return true
	})
	if content.KeyPoints == nil {
		content.KeyPoints = []string{}
	}
	return content, true
}

func ParseScamCheck(raw string) (ScamCheck, bool) {
	text := StripFences(raw)
	if !gjson.Valid(text) {
		return ScamCheck{}, false
	}
	doc := gjson.Parse(text)
	isScam := doc.Get("isScam")
	confidence := doc.Get("confidenceScore")
	if (isScam.Type != gjson.True && isScam.Type != gjson.False) || confidence.Type != gjson.Number {
		return ScamCheck{}, false
	}
	return ScamCheck{
		IsScam:          isScam.Bool(),
		ConfidenceScore: clamp(confidence.Float(), 0, 1),
		Explanation:     doc.Get("explanation").String(),
	}, true
}

// HeuristicScamCheck flags descriptions that promise guaranteed returns.
func HeuristicScamCheck(description, explanation string) ScamCheck {
	lower := strings.ToLower(description)
	return ScamCheck{
		IsScam:          strings.Contains(lower, "guarantee"),
		ConfidenceScore: 0.7,
		Explanation:     explanation,
	}
}

func DefaultEducationalContent(topic, difficulty string) EducationalContent {
	return EducationalContent{
		Title: levelTitle(topic, difficulty),
		Content: fmt.Sprintf("A detailed lesson on %s is not available right now. "+
			"Start by learning how %s works and what can go wrong, then decide how it fits your own goals and time horizon.", topic, topic),
		KeyPoints: []string{
			"Understand the basics before you invest",
			"Match every investment to a goal and a time horizon",
			"Diversify to manage risk",
			"Check costs, lock-in periods and tax treatment",
		},
	}
}

func levelTitle(topic, difficulty string) string {
	return fmt.Sprintf("%s (%s level)", topic, difficulty)
}
