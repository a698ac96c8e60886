package domain

import "math"

// SafetyTier grades how much harmful content a reply set contains.
type SafetyTier string

const (
	SafetyLow    SafetyTier = "low"
	SafetyMedium SafetyTier = "medium"
	SafetyHigh   SafetyTier = "high"
)

// SentimentDistribution counts outcomes per category.
type SentimentDistribution struct {
	Friendly   int `json:"friendly"`
	Silly      int `json:"silly"`
	Unfriendly int `json:"unfriendly"`
	Harmful    int `json:"harmful"`
}

// AggregateSummary is the derived, stateless digest of a finished run. It is
// a pure function of the outcome list and never persisted on its own.
type AggregateSummary struct {
	TotalReplies int                   `json:"total_replies"`
	Distribution SentimentDistribution `json:"sentiment_distribution"`
	Overall      OverallSentiment      `json:"overall_sentiment"`

	// Rates are percentages of the total, rounded to one decimal.
	EngagementRate float64 `json:"engagement_rate"`
	HumorRate      float64 `json:"humor_rate"`
	NegativityRate float64 `json:"negativity_rate"`
	HarmfulRate    float64 `json:"harmful_content_rate"`

	SafetyConcern       SafetyTier `json:"safety_concern"`
	ImportantResponders int        `json:"important_responders"`
}

// Summarize computes the aggregate for a completed outcome list. The
// thresholds here are exact business rules: harmful outcomes count triple
// toward the negative side so a handful of them dominates the signal, two or
// more harmful replies (or more than 15% of the total) force a negative
// label, and a clear label requires one side to outweigh the other two to
// one.
func Summarize(outcomes []Outcome) AggregateSummary {
	var dist SentimentDistribution
	important := 0
	for _, o := range outcomes {
		switch o.Sentiment {
		case SentimentFriendly:
			dist.Friendly++
		case SentimentSilly:
			dist.Silly++
		case SentimentUnfriendly:
			dist.Unfriendly++
		case SentimentHarmful:
			dist.Harmful++
		}
		if o.AuthorImportant {
			important++
		}
	}

	total := len(outcomes)
	positive := dist.Friendly + dist.Silly
	negative := dist.Unfriendly + 3*dist.Harmful

	var overall OverallSentiment
	switch {
	case dist.Harmful > 0:
		switch {
		case dist.Harmful >= 2 || float64(dist.Harmful) > 0.15*float64(total):
			overall = OverallNegative
		case positive > negative:
			overall = OverallMixed
		default:
			overall = OverallNegative
		}
	case positive > 2*negative:
		overall = OverallPositive
	case negative > 2*positive:
		overall = OverallNegative
	case positive > 0 && negative > 0:
		overall = OverallMixed
	default:
		overall = OverallNeutral
	}

	tier := SafetyMedium
	switch {
	case dist.Harmful >= 2 || float64(dist.Harmful) > 0.15*float64(total):
		tier = SafetyHigh
	case dist.Harmful == 0:
		tier = SafetyLow
	}

	return AggregateSummary{
		TotalReplies:        total,
		Distribution:        dist,
		Overall:             overall,
		EngagementRate:      percent(positive, total),
		HumorRate:           percent(dist.Silly, total),
		NegativityRate:      percent(dist.Unfriendly+dist.Harmful, total),
		HarmfulRate:         percent(dist.Harmful, total),
		SafetyConcern:       tier,
		ImportantResponders: important,
	}
}

// percent returns count/total as a percentage rounded to one decimal place.
// A zero total yields 0 rather than NaN.
func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}
