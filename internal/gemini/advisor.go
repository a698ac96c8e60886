package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/blackmichael/replyguard/internal/domain"
)

const advisorSystemPrompt = `You are a strategic advisor for viral social media engagement.

Analyze reply data to identify the best engagement strategy per important responder (celebrities, brands, verified accounts, influencers): reply publicly, send a DM, follow up, or ignore. Consider their comment content and sentiment, their influence level, and potential business opportunities or risks. For brands, consider partnership openings and craft playful but professional responses. For celebrities and verified accounts, match their energy while staying authentic. Provide specific, actionable recommendations.`

// Advisor generates next-step recommendations with Gemini.
type Advisor struct {
	client *Client
}

// NewAdvisor creates the advisor adapter.
func NewAdvisor(client *Client) *Advisor {
	return &Advisor{client: client}
}

var _ domain.Advisor = (*Advisor)(nil)

// RecommendNextSteps implements domain.Advisor.
func (a *Advisor) RecommendNextSteps(ctx context.Context, post domain.Post, postCtx domain.PostAnalysis, responders []domain.ImportantResponder) ([]domain.RecommendedAction, error) {
	detail, err := json.MarshalIndent(responders, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode responders: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Important responders found on a post: %d

Context:
- Post category: %s
- Post sentiment: %s
- Total replies: %d

Important responder details:
%s

For each responder provide a recommendation, considering their comment, verification status, sentiment, language, and any business or networking opening.

Respond ONLY with a JSON object in exactly this form:
{
  "recommended_actions": [
    {
      "responder": "exact responder name",
      "reply_id": "reply id",
      "action": "reply_publicly" | "send_dm" | "ignore" | "follow_up",
      "description": "what to do and why",
      "priority": "high" | "medium" | "low",
      "suggested_response": "exact text to reply with",
      "reasoning": "strategic reasoning",
      "opportunity_type": "business" | "networking" | "community" | "brand_partnership" | "none"
    }
  ]
}`, len(responders), postCtx.Category, postCtx.Sentiment, len(post.Replies), detail)

	contents := []*genai.Content{genai.NewContentFromText(b.String(), genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(advisorSystemPrompt, genai.RoleUser),
	}

	completion, _, err := a.client.generate(ctx, contents, config)
	if err != nil {
		return nil, err
	}
	return parseRecommendedActions(completion)
}
