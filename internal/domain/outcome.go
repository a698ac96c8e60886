package domain

import (
	"errors"
	"time"
)

// Classifier failure taxonomy. Transient failures are everything not matched
// by these sentinels.
var (
	// ErrContentUnavailable means attached media could not be fetched by
	// the classifier. The orchestrator retries once with text only.
	ErrContentUnavailable = errors.New("attached media unavailable")

	// ErrMalformedResponse means the classifier answered but its response
	// could not be parsed into a valid verdict.
	ErrMalformedResponse = errors.New("malformed classifier response")
)

// ReplyVerdict is a classifier's raw judgment of one reply, before the
// orchestrator turns it into an Outcome.
type ReplyVerdict struct {
	Sentiment       Sentiment
	Justification   string
	Confidence      float64
	ShouldHide      bool
	AuthorImportant bool
}

// Outcome statuses.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
)

// Outcome is the result of classifying one reply. Exactly one Outcome exists
// per input reply per run; written once by the orchestrator, read by the
// publisher and summarizer.
type Outcome struct {
	ReplyID string `json:"reply_id"`

	// Status is "success" for a real classification and "fallback" when
	// analysis failed and the safety default was applied.
	Status string `json:"analysis_status"`

	Sentiment       Sentiment `json:"sentiment"`
	Justification   string    `json:"justification"`
	ShouldHide      bool      `json:"should_hide"`
	AuthorImportant bool      `json:"author_important"`

	// FailureReason describes why classification failed. Only set on
	// fallback outcomes.
	FailureReason string `json:"failure_reason,omitempty"`
}

// PostAnalysis is the classification of the post itself, used as context when
// judging replies.
type PostAnalysis struct {
	Analysis   string           `json:"analysis"`
	Sentiment  OverallSentiment `json:"sentiment"`
	Confidence float64          `json:"confidence_score"`
	Category   PostCategory     `json:"category"`
}

// ProvisionalPostAnalysis is the neutral context reply analysis starts from
// while the real post classification is still in flight.
func ProvisionalPostAnalysis(post Post) PostAnalysis {
	return PostAnalysis{
		Analysis:   "Analyzing " + post.Type + " post by " + post.Author.Name,
		Sentiment:  OverallNeutral,
		Confidence: 0.5,
		Category:   CategoryOther,
	}
}

// ModerationAction is what the UI should do with a flagged reply.
type ModerationAction string

const (
	// ActionBlur keeps the content partially visible.
	ActionBlur ModerationAction = "blur"

	// ActionHide removes the content from view entirely.
	ActionHide ModerationAction = "hide"
)

// ModerationRecord is the current hide/blur decision for one reply. At most
// one current record exists per reply; a later write overwrites the earlier
// one.
type ModerationRecord struct {
	ReplyID   string           `json:"reply_id"`
	Action    ModerationAction `json:"action_type"`
	Reason    string           `json:"reason"`
	Sentiment Sentiment        `json:"sentiment"`
	Timestamp time.Time        `json:"timestamp"`
	Status    string           `json:"status"`
}
