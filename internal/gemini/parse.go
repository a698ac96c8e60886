package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blackmichael/replyguard/internal/domain"
)

// stripFences removes a markdown code fence wrapper, if present, and trims
// whitespace. Models frequently wrap JSON answers in ```json fences.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSON returns the first top-level JSON object embedded in s. Models
// sometimes surround the object with prose.
func extractJSON(s string) (string, bool) {
	s = stripFences(s)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// replyResponse is the JSON shape the classifier prompt asks for.
type replyResponse struct {
	Sentiment       string  `json:"sentiment"`
	Justification   string  `json:"justification"`
	ConfidenceScore float64 `json:"confidence_score"`
	ShouldHide      bool    `json:"should_hide"`
	AuthorImportant bool    `json:"author_important"`
}

// parseReplyVerdict decodes and validates a classifier completion. Unknown
// sentiment categories are rejected here rather than propagated.
func parseReplyVerdict(completion string) (domain.ReplyVerdict, error) {
	raw, ok := extractJSON(completion)
	if !ok {
		return domain.ReplyVerdict{}, fmt.Errorf("%w: no JSON object in completion", domain.ErrMalformedResponse)
	}

	var resp replyResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return domain.ReplyVerdict{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	sentiment, err := domain.ParseSentiment(resp.Sentiment)
	if err != nil {
		return domain.ReplyVerdict{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	return domain.ReplyVerdict{
		Sentiment:       sentiment,
		Justification:   resp.Justification,
		Confidence:      resp.ConfidenceScore,
		ShouldHide:      resp.ShouldHide,
		AuthorImportant: resp.AuthorImportant,
	}, nil
}

// postResponse is the JSON shape the post analyzer prompt asks for.
type postResponse struct {
	Analysis        string  `json:"analysis"`
	Sentiment       string  `json:"sentiment"`
	ConfidenceScore float64 `json:"confidence_score"`
	Category        string  `json:"category"`
}

func parsePostAnalysis(completion string) (domain.PostAnalysis, error) {
	raw, ok := extractJSON(completion)
	if !ok {
		return domain.PostAnalysis{}, fmt.Errorf("%w: no JSON object in completion", domain.ErrMalformedResponse)
	}

	var resp postResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return domain.PostAnalysis{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	sentiment, err := domain.ParseOverallSentiment(resp.Sentiment)
	if err != nil {
		return domain.PostAnalysis{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	category, err := domain.ParsePostCategory(resp.Category)
	if err != nil {
		return domain.PostAnalysis{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	return domain.PostAnalysis{
		Analysis:   resp.Analysis,
		Sentiment:  sentiment,
		Confidence: resp.ConfidenceScore,
		Category:   category,
	}, nil
}

// actionsResponse is the JSON shape the advisor prompt asks for.
type actionsResponse struct {
	RecommendedActions []domain.RecommendedAction `json:"recommended_actions"`
}

func parseRecommendedActions(completion string) ([]domain.RecommendedAction, error) {
	raw, ok := extractJSON(completion)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in completion", domain.ErrMalformedResponse)
	}

	var resp actionsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return resp.RecommendedActions, nil
}
