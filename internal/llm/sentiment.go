package llm

import (
	"math"
	"regexp"
	"strings"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"

	sentimentThreshold = 0.15
)

type SentimentResult struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
	Sentiment string  `json:"sentiment"`
}

type lexiconTerm struct {
	term   string
	weight float64
	re     *regexp.Regexp
}

// Weights are fixed: strong, moderate and slight bands for each polarity plus
// emotional terms that signal investor bias.
var sentimentLexicon = compileLexicon([]struct {
	term   string
	weight float64
}{
	{"soar", 0.9},
	{"surge", 0.9},
	{"skyrocket", 1.0},
	{"bull market", 0.8},
	{"tremendous growth", 0.9},
	{"exceptional performance", 0.9},
	{"breakthrough", 0.8},

	{"growth", 0.5},
	{"profit", 0.6},
	{"gain", 0.5},
	{"increase", 0.4},
	{"bullish", 0.6},
	{"upward", 0.4},
	{"rise", 0.4},
	{"rising", 0.4},
	{"outperform", 0.7},
	{"exceed expectations", 0.7},
	{"opportunity", 0.6},
	{"upside", 0.5},
	{"recovery", 0.5},

	{"stable", 0.3},
	{"steady", 0.3},
	{"potential", 0.2},
	{"improve", 0.3},
	{"promising", 0.3},
	{"upgrade", 0.3},

	{"crash", -0.9},
	{"collapse", -0.9},
	{"plummet", -1.0},
	{"bear market", -0.8},
	{"catastrophic", -1.0},
	{"bankruptcy", -1.0},
	{"default", -0.8},

	{"loss", -0.6},
	{"debt", -0.5},
	{"decline", -0.5},
	{"decrease", -0.4},
	{"bearish", -0.6},
	{"downward", -0.4},
	{"fall", -0.4},
	{"falling", -0.4},
	{"underperform", -0.7},
	{"miss expectations", -0.7},
	{"risk", -0.5},
	{"downside", -0.5},
	{"recession", -0.7},

	{"cautious", -0.2},
	{"uncertain", -0.3},
	{"slowdown", -0.3},
	{"concern", -0.3},
	{"challenge", -0.2},
	{"downgrade", -0.3},

	{"fear", -0.7},
	{"worried", -0.6},
	{"anxiety", -0.6},
	{"panic", -0.8},
	{"excited", 0.7},
	{"enthusiastic", 0.7},
	{"confident", 0.6},
	{"optimistic", 0.6},
	{"greedy", -0.2},
	{"fomo", -0.3},
})

func compileLexicon(entries []struct {
	term   string
	weight float64
}) []lexiconTerm {
	out := make([]lexiconTerm, 0, len(entries))
	for _, e := range entries {
		out = append(out, lexiconTerm{
			term:   e.term,
			weight: e.weight,
			re:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(e.term) + `\b`),
		})
	}
	return out
}

// AnalyzeFallback scores text against the weighted lexicon. It never fails;
// text with no known terms is neutral with zero magnitude.
func AnalyzeFallback(text string) SentimentResult {
	lower := strings.ToLower(text)

	var total float64
	var matches int
	var strongestPositive, strongestNegative float64

	for _, entry := range sentimentLexicon {
		count := len(entry.re.FindAllStringIndex(lower, -1))
		if count == 0 {
			continue
		}
		total += entry.weight * float64(count)
		matches += count
		if entry.weight > 0 && entry.weight > strongestPositive {
			strongestPositive = entry.weight
		} else if entry.weight < 0 && entry.weight < strongestNegative {
			strongestNegative = entry.weight
		}
	}

	score := 0.0
	if matches > 0 {
		score = total / float64(matches)
	}
	magnitude := math.Min(1, math.Abs(score)*0.7+math.Abs(strongestPositive-strongestNegative)*0.3)

	return NormalizeSentiment(SentimentResult{
		Score:     round2(score),
		Magnitude: round2(magnitude),
		Sentiment: labelFor(score),
	})
}

// NormalizeSentiment clamps score and magnitude into range and repairs an
// unknown label from the score.
func NormalizeSentiment(r SentimentResult) SentimentResult {
	r.Score = clamp(r.Score, -1, 1)
	r.Magnitude = clamp(r.Magnitude, 0, 1)
	switch strings.ToLower(strings.TrimSpace(r.Sentiment)) {
	case SentimentPositive:
		r.Sentiment = SentimentPositive
	case SentimentNegative:
		r.Sentiment = SentimentNegative
	case SentimentNeutral:
		r.Sentiment = SentimentNeutral
	default:
		r.Sentiment = labelFor(r.Score)
	}
	return r
}

func labelFor(score float64) string {
	switch {
	case score > sentimentThreshold:
		return SentimentPositive
	case score < -sentimentThreshold:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
