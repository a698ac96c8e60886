package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/blackmichael/replyguard/internal/domain"
)

const summarySystemPrompt = `You are a sharp social media analyst who writes like a human, not a robot. Give someone a quick, digestible read on how their post is landing.

Write ONE paragraph (3-5 sentences max) covering the overall vibe, any safety concerns without being alarmist, and notable interactions only if someone big jumped in. Conversational but informative: "people are absolutely loving this", not "engagement metrics indicate positive sentiment". Talk about overall patterns, not individual comments, and do not quote specific users unless they are actually famous.`

// SummaryWriter produces the one-paragraph reception summary with Gemini.
type SummaryWriter struct {
	client *Client
}

// NewSummaryWriter creates the summary adapter.
func NewSummaryWriter(client *Client) *SummaryWriter {
	return &SummaryWriter{client: client}
}

var _ domain.SummaryWriter = (*SummaryWriter)(nil)

// WriteSummary implements domain.SummaryWriter.
func (w *SummaryWriter) WriteSummary(ctx context.Context, post domain.Post, postCtx domain.PostAnalysis, agg domain.AggregateSummary, samples []domain.Outcome) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `ORIGINAL POST ANALYSIS:
Category: %s
Post Sentiment: %s
Post Analysis: %s

REPLY BREAKDOWN:
Total Replies Analyzed: %d
Friendly: %d
Silly/Humorous: %d
Unfriendly: %d
Harmful: %d
Important/Notable Authors: %d

SAMPLE REPLY INSIGHTS:`,
		postCtx.Category, postCtx.Sentiment, postCtx.Analysis,
		agg.TotalReplies,
		agg.Distribution.Friendly, agg.Distribution.Silly,
		agg.Distribution.Unfriendly, agg.Distribution.Harmful,
		agg.ImportantResponders)
	for _, o := range samples {
		fmt.Fprintf(&b, "\n- %s: %s", strings.ToUpper(string(o.Sentiment)), truncate(o.Justification, 100))
	}
	b.WriteString("\n\nBased on this data, write a conversational paragraph that captures how this post is being received and what it means for the poster.")

	contents := []*genai.Content{genai.NewContentFromText(b.String(), genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(summarySystemPrompt, genai.RoleUser),
	}

	completion, _, err := w.client.generate(ctx, contents, config)
	if err != nil {
		return "", err
	}
	completion = strings.TrimSpace(completion)
	if completion == "" {
		return "", fmt.Errorf("%w: empty summary", domain.ErrMalformedResponse)
	}
	return completion, nil
}

// truncate cuts s to n runes, so multibyte text is never split mid-rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
