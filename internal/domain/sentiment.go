package domain

import "fmt"

// Sentiment is the closed classification set for a single reply.
type Sentiment string

const (
	// SentimentFriendly is genuine positivity or constructive engagement.
	SentimentFriendly Sentiment = "friendly"

	// SentimentSilly is jokes, memes, and playful banter with clear
	// humorous intent.
	SentimentSilly Sentiment = "silly"

	// SentimentUnfriendly is negative or dismissive content that targets
	// the post rather than the person.
	SentimentUnfriendly Sentiment = "unfriendly"

	// SentimentHarmful is abuse, harassment, threats, or hate speech.
	SentimentHarmful Sentiment = "harmful"
)

// ParseSentiment validates a classifier-produced category against the closed
// set. Anything outside it is rejected here rather than propagated downstream.
func ParseSentiment(s string) (Sentiment, error) {
	switch Sentiment(s) {
	case SentimentFriendly, SentimentSilly, SentimentUnfriendly, SentimentHarmful:
		return Sentiment(s), nil
	}
	return "", fmt.Errorf("unknown sentiment category %q", s)
}

// Flagged reports whether the sentiment triggers a moderation action.
func (s Sentiment) Flagged() bool {
	return s == SentimentHarmful || s == SentimentUnfriendly
}

// ModerationAction returns the action a flagged sentiment maps to: hide for
// harmful, blur for unfriendly. The zero action is returned for unflagged
// sentiments.
func (s Sentiment) ModerationAction() ModerationAction {
	switch s {
	case SentimentHarmful:
		return ActionHide
	case SentimentUnfriendly:
		return ActionBlur
	}
	return ""
}

// OverallSentiment is the aggregate classification of a whole reply set, and
// also the sentiment scale used for the post itself.
type OverallSentiment string

const (
	OverallPositive OverallSentiment = "positive"
	OverallNegative OverallSentiment = "negative"
	OverallMixed    OverallSentiment = "mixed"
	OverallNeutral  OverallSentiment = "neutral"
)

// PostCategory is the closed category set for the post itself.
type PostCategory string

const (
	CategoryJoke          PostCategory = "joke"
	CategoryComedy        PostCategory = "comedy"
	CategorySerious       PostCategory = "serious"
	CategoryNewsworthy    PostCategory = "newsworthy"
	CategoryPersonal      PostCategory = "personal"
	CategoryAdvertisement PostCategory = "advertisement"
	CategoryOther         PostCategory = "other"
)

// ParsePostCategory validates a classifier-produced post category, falling
// back to "other" only by explicit caller choice, never silently.
func ParsePostCategory(s string) (PostCategory, error) {
	switch PostCategory(s) {
	case CategoryJoke, CategoryComedy, CategorySerious, CategoryNewsworthy,
		CategoryPersonal, CategoryAdvertisement, CategoryOther:
		return PostCategory(s), nil
	}
	return "", fmt.Errorf("unknown post category %q", s)
}

// ParseOverallSentiment validates a post/aggregate sentiment label.
func ParseOverallSentiment(s string) (OverallSentiment, error) {
	switch OverallSentiment(s) {
	case OverallPositive, OverallNegative, OverallMixed, OverallNeutral:
		return OverallSentiment(s), nil
	}
	return "", fmt.Errorf("unknown overall sentiment %q", s)
}
