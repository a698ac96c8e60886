package gemini

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/replyguard/internal/domain"
)

func TestParseReplyVerdict(t *testing.T) {
	completion := `{"sentiment": "silly", "justification": "playful meme reference", "confidence_score": 0.85, "should_hide": false, "author_important": true}`

	verdict, err := parseReplyVerdict(completion)
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentSilly, verdict.Sentiment)
	assert.Equal(t, "playful meme reference", verdict.Justification)
	assert.InDelta(t, 0.85, verdict.Confidence, 0.001)
	assert.False(t, verdict.ShouldHide)
	assert.True(t, verdict.AuthorImportant)
}

func TestParseReplyVerdictWithCodeFences(t *testing.T) {
	completion := "```json\n{\"sentiment\": \"harmful\", \"justification\": \"direct threat\", \"should_hide\": true}\n```"

	verdict, err := parseReplyVerdict(completion)
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentHarmful, verdict.Sentiment)
	assert.True(t, verdict.ShouldHide)
}

func TestParseReplyVerdictWithSurroundingProse(t *testing.T) {
	completion := `Here is my assessment of the reply:

{"sentiment": "friendly", "justification": "genuinely supportive, says \"great work\"", "confidence_score": 0.9}

Let me know if you need anything else.`

	verdict, err := parseReplyVerdict(completion)
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentFriendly, verdict.Sentiment)
	assert.Contains(t, verdict.Justification, `"great work"`)
}

func TestParseReplyVerdictRejectsUnknownSentiment(t *testing.T) {
	completion := `{"sentiment": "hostile", "justification": "bad vibes"}`

	_, err := parseReplyVerdict(completion)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
}

func TestParseReplyVerdictRejectsNonJSON(t *testing.T) {
	_, err := parseReplyVerdict("I cannot classify this reply.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
}

func TestExtractJSONHandlesNestedObjects(t *testing.T) {
	raw, ok := extractJSON(`prefix {"a": {"b": "}"}, "c": 1} suffix`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": "}"}, "c": 1}`, raw)
}

func TestParsePostAnalysis(t *testing.T) {
	completion := `{"analysis": "Lighthearted product teaser", "sentiment": "positive", "confidence_score": 0.8, "category": "advertisement"}`

	analysis, err := parsePostAnalysis(completion)
	require.NoError(t, err)
	assert.Equal(t, domain.OverallPositive, analysis.Sentiment)
	assert.Equal(t, domain.CategoryAdvertisement, analysis.Category)
	assert.InDelta(t, 0.8, analysis.Confidence, 0.001)
}

func TestParsePostAnalysisRejectsUnknownCategory(t *testing.T) {
	completion := `{"analysis": "x", "sentiment": "positive", "category": "manifesto"}`

	_, err := parsePostAnalysis(completion)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
}

func TestParseRecommendedActions(t *testing.T) {
	completion := "```json\n" + `{"recommended_actions": [
		{"responder": "brand_account", "action": "send_dm", "description": "Reach out about the collab", "priority": "high"}
	]}` + "\n```"

	actions, err := parseRecommendedActions(completion)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "send_dm", actions[0].Action)
	assert.Equal(t, "high", actions[0].Priority)
}
