package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ImportantResponder is a notable author whose reply deserves a deliberate
// response, joined from the outcome and the original reply.
type ImportantResponder struct {
	ReplyID       string    `json:"reply_id"`
	AuthorName    string    `json:"author_name"`
	AuthorAvatar  string    `json:"author_avatar"`
	Comment       string    `json:"comment"`
	CommentType   string    `json:"comment_type"`
	MediaURL      string    `json:"media_url,omitempty"`
	Sentiment     Sentiment `json:"sentiment"`
	Justification string    `json:"justification"`
	Verified      bool      `json:"is_verified"`
	Language      string    `json:"language"`
}

// Engagement actions for a recommended step.
const (
	ActionReplyPublicly = "reply_publicly"
	ActionSendDM        = "send_dm"
	ActionIgnore        = "ignore"
	ActionFollowUp      = "follow_up"
)

// RecommendedAction is one ranked engagement step for a responder.
type RecommendedAction struct {
	Responder         string `json:"responder,omitempty"`
	ReplyID           string `json:"reply_id,omitempty"`
	Action            string `json:"action"`
	Description       string `json:"description"`
	Priority          string `json:"priority"`
	SuggestedResponse string `json:"suggested_response,omitempty"`
	Reasoning         string `json:"reasoning,omitempty"`
	OpportunityType   string `json:"opportunity_type,omitempty"`
}

// NextSteps is the strategic recommendation set for a finished run.
type NextSteps struct {
	ImportantResponders []ImportantResponder `json:"important_responders"`
	Actions             []RecommendedAction  `json:"recommended_next_steps"`
	Summary             string               `json:"summary"`
}

// NextStepPlanner extracts notable responders from a finished run and asks
// the advisor for engagement recommendations, degrading to deterministic
// template drafts when the advisor is unavailable.
type NextStepPlanner struct {
	advisor Advisor
	logger  *slog.Logger
}

// NewNextStepPlanner creates a planner.
func NewNextStepPlanner(advisor Advisor, logger *slog.Logger) *NextStepPlanner {
	return &NextStepPlanner{advisor: advisor, logger: logger}
}

// Plan builds the next-step recommendations. It never fails: advisor errors
// are contained and replaced with template drafts.
func (p *NextStepPlanner) Plan(ctx context.Context, post Post, postCtx PostAnalysis, outcomes []Outcome, replies []Reply) NextSteps {
	responders := collectImportantResponders(outcomes, replies)
	if len(responders) == 0 {
		return NextSteps{
			ImportantResponders: []ImportantResponder{},
			Actions: []RecommendedAction{
				{
					Action:      "monitor_engagement",
					Description: "Continue monitoring for important responders as the post gains traction",
					Priority:    "low",
				},
				{
					Action:      "engage_community",
					Description: "Respond to friendly comments to build community engagement",
					Priority:    "medium",
				},
			},
			Summary: "No important responders found for this post.",
		}
	}

	actions, err := p.advisor.RecommendNextSteps(ctx, post, postCtx, responders)
	if err != nil || len(actions) == 0 {
		if err != nil {
			p.logger.Warn("advisor unavailable, using template drafts", "error", err)
		}
		actions = make([]RecommendedAction, 0, len(responders))
		for _, r := range responders {
			actions = append(actions, draftAction(r))
		}
	}

	return NextSteps{
		ImportantResponders: responders,
		Actions:             actions,
		Summary:             summarizeResponders(responders, actions),
	}
}

// collectImportantResponders joins important-flagged outcomes with their
// original replies, preserving input order.
func collectImportantResponders(outcomes []Outcome, replies []Reply) []ImportantResponder {
	byID := make(map[string]Reply, len(replies))
	for _, r := range replies {
		byID[r.ID] = r
	}

	var responders []ImportantResponder
	for _, o := range outcomes {
		if !o.AuthorImportant {
			continue
		}
		reply, ok := byID[o.ReplyID]
		if !ok {
			continue
		}
		responders = append(responders, ImportantResponder{
			ReplyID:       o.ReplyID,
			AuthorName:    reply.Author.Name,
			AuthorAvatar:  reply.Author.Avatar,
			Comment:       reply.Content,
			CommentType:   reply.Type,
			MediaURL:      reply.MediaURL,
			Sentiment:     o.Sentiment,
			Justification: o.Justification,
			Verified:      reply.Author.Verified,
			Language:      reply.Language,
		})
	}
	return responders
}

// draftAction is the deterministic fallback recommendation for one responder.
func draftAction(r ImportantResponder) RecommendedAction {
	comment := strings.ToLower(r.Comment)

	var draft, opportunity string
	switch {
	case strings.Contains(comment, "collab") || strings.Contains(comment, "partner"):
		draft = fmt.Sprintf("Hi %s, thanks for reaching out! Let's connect about potential collaboration.", r.AuthorName)
		opportunity = "brand_partnership"
	case r.Sentiment == SentimentUnfriendly || r.Sentiment == SentimentHarmful:
		draft = fmt.Sprintf("Hi %s, thanks for the feedback. We appreciate different perspectives.", r.AuthorName)
		opportunity = "none"
	case r.Verified:
		draft = fmt.Sprintf("Thank you %s! Your support means a lot.", r.AuthorName)
		opportunity = "networking"
	default:
		draft = fmt.Sprintf("Hey %s! Thanks for the love, really appreciate you!", r.AuthorName)
		opportunity = "community"
	}

	action := ActionReplyPublicly
	priority := "medium"
	if r.Sentiment == SentimentHarmful {
		action = ActionIgnore
		priority = "low"
		draft = ""
	} else if r.Verified {
		priority = "high"
	}

	return RecommendedAction{
		Responder:         r.AuthorName,
		ReplyID:           r.ReplyID,
		Action:            action,
		Description:       fmt.Sprintf("Respond to %s's %s comment", r.AuthorName, r.Sentiment),
		Priority:          priority,
		SuggestedResponse: draft,
		Reasoning:         "Template draft; advisor was unavailable",
		OpportunityType:   opportunity,
	}
}

// summarizeResponders renders the human-readable digest of who showed up and
// what to do about it.
func summarizeResponders(responders []ImportantResponder, actions []RecommendedAction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d important responder(s):", len(responders))
	for _, r := range responders {
		badge := ""
		if r.Verified {
			badge = " [verified]"
		}
		fmt.Fprintf(&b, "\n- %s%s (%s): %q", r.AuthorName, badge, r.Sentiment, truncate(r.Comment, 50))
	}
	if len(actions) > 0 {
		b.WriteString("\nKey recommendations:")
		for i, a := range actions {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "\n%d. %s", i+1, a.Description)
		}
	}
	return b.String()
}
