package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/blackmichael/replyguard/internal/domain"
)

const postSystemPrompt = `You are a social media post analyzer that handles both text and visual content. Analyze the given post and provide:

1. A 2-3 sentence analysis of what the post is about and its likely impact
2. Overall sentiment (positive, negative, neutral, or mixed)
3. Confidence score (0.0 to 1.0)
4. Category of the post: joke, comedy, serious, newsworthy, personal, advertisement, or other

Consider tone, cultural references, meme potential, and how any visuals and the text work together. Be concise but insightful.`

// PostClassifier analyzes the post itself with Gemini.
type PostClassifier struct {
	client *Client
}

// NewPostClassifier creates the post analyzer adapter.
func NewPostClassifier(client *Client) *PostClassifier {
	return &PostClassifier{client: client}
}

var _ domain.PostClassifier = (*PostClassifier)(nil)

// ClassifyPost implements domain.PostClassifier.
func (p *PostClassifier) ClassifyPost(ctx context.Context, post domain.Post) (domain.PostAnalysis, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `Analyze this social media post:

Author: %s (verified: %t)
Content: %s
Post Type: %s
`, post.Author.Name, post.Author.Verified, post.Content, post.Type)
	if post.ImageURL != "" {
		b.WriteString("\nThe post's image is attached. Describe how it and the text work together.\n")
	}
	b.WriteString(`
Respond with a JSON object in exactly this form:
{
  "analysis": "2-3 sentence analysis",
  "sentiment": "positive" | "negative" | "neutral" | "mixed",
  "confidence_score": 0.0 to 1.0,
  "category": "joke" | "comedy" | "serious" | "newsworthy" | "personal" | "advertisement" | "other"
}`)

	parts := []*genai.Part{genai.NewPartFromText(b.String())}
	if post.ImageURL != "" {
		parts = append(parts, genai.NewPartFromURI(post.ImageURL, "image/jpeg"))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(postSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
	}

	completion, _, err := p.client.generate(ctx, contents, config)
	if err != nil {
		return domain.PostAnalysis{}, err
	}
	return parsePostAnalysis(completion)
}
