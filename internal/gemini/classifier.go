package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/blackmichael/replyguard/internal/domain"
)

const classifierSystemPrompt = `You are a sharp, perceptive social media analyst who reads between the lines. Decode the true intent and tone behind each reply.

Choose exactly one classification:

FRIENDLY - genuine positivity, support, or constructive engagement. Sincere appreciation, helpful comments, agreement or enthusiasm without jokes. Brief positive reactions count.

SILLY - jokes, memes, playful banter. Must have clear humorous intent, not just casual language or emojis. Sarcasm that is clearly meant to be funny, not hurtful.

UNFRIENDLY - negative, critical, or dismissive content that targets the post rather than the person. Criticism without constructive intent, passive-aggressive comments, general negativity.

HARMFUL - content that crosses into abuse, harassment, or genuine harm. Suicide ideation or death wishes, hate speech, threats even when framed as jokes, personal insults about appearance, intelligence, or worth, slurs.

Do not default to silly just because someone uses emojis. When truly ambiguous, pick the less extreme classification. When a reply includes an image or GIF, judge the visual content together with the text.

Author importance: look for brand names, media outlets, verified-seeming handles, or usernames suggesting influence.

Keep the justification concise and specific.`

const classifierResponseInstruction = `Respond with a JSON object in exactly this form:
{
  "sentiment": "friendly" | "silly" | "unfriendly" | "harmful",
  "justification": "brief explanation of the classification",
  "confidence_score": 0.0 to 1.0,
  "should_hide": true or false,
  "author_important": true or false
}

If the sentiment is "harmful" or "unfriendly" you MUST also call the hide_harmful_content tool: action_type "hide" for harmful content, "blur" for unfriendly content. Never call it for friendly or silly content.`

// ReplyClassifier judges replies with Gemini. When the model raises the
// moderation tool itself, the flag is written to the moderation log here, so
// the orchestrator sees it as already handled.
type ReplyClassifier struct {
	client     *Client
	moderation domain.ModerationLog
}

// NewReplyClassifier creates the classifier adapter.
func NewReplyClassifier(client *Client, moderation domain.ModerationLog) *ReplyClassifier {
	return &ReplyClassifier{client: client, moderation: moderation}
}

var _ domain.ReplyClassifier = (*ReplyClassifier)(nil)

// ClassifyReply implements domain.ReplyClassifier.
func (c *ReplyClassifier) ClassifyReply(ctx context.Context, post domain.Post, postCtx domain.PostAnalysis, reply domain.Reply, includeMedia bool) (domain.ReplyVerdict, error) {
	parts := []*genai.Part{genai.NewPartFromText(c.buildPrompt(post, postCtx, reply, includeMedia))}
	if includeMedia && reply.HasMedia() {
		parts = append(parts, genai.NewPartFromURI(reply.MediaURL, mediaMIMEType(reply.Type)))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(classifierSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
		Tools: []*genai.Tool{
			{FunctionDeclarations: []*genai.FunctionDeclaration{hideContentTool()}},
		},
	}

	completion, calls, err := c.client.generate(ctx, contents, config)
	if err != nil {
		return domain.ReplyVerdict{}, err
	}

	verdict, err := parseReplyVerdict(completion)
	if err != nil {
		return domain.ReplyVerdict{}, err
	}

	for _, call := range calls {
		c.applyToolCall(call, reply)
	}

	return verdict, nil
}

func (c *ReplyClassifier) buildPrompt(post domain.Post, postCtx domain.PostAnalysis, reply domain.Reply, includeMedia bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, `ORIGINAL POST ANALYSIS:
Category: %s
Sentiment: %s
Analysis: %s
Confidence: %.2f

ORIGINAL POST:
Author: %s (verified: %t)
Content: %s
Type: %s
`, postCtx.Category, postCtx.Sentiment, postCtx.Analysis, postCtx.Confidence,
		post.Author.Name, post.Author.Verified, post.Content, post.Type)
	if post.ImageURL != "" {
		fmt.Fprintf(&b, "Original Post Image: %s\n", post.ImageURL)
	}

	fmt.Fprintf(&b, `
REPLY TO ANALYZE:
Reply ID: %s
Author: %s (verified: %t)
Content: %s
Type: %s
Language: %s
`, reply.ID, reply.Author.Name, reply.Author.Verified, reply.Content, reply.Type, reply.Language)

	if includeMedia && reply.HasMedia() {
		fmt.Fprintf(&b, "\nThe reply's %s is attached. Judge the text and the visual content together, and consider how they relate to the original post.\n", reply.Type)
	} else if reply.HasMedia() {
		b.WriteString("\nThe reply references media that could not be loaded; judge the text alone.\n")
	}

	b.WriteString("\n")
	b.WriteString(classifierResponseInstruction)
	return b.String()
}

// applyToolCall writes a model-raised moderation flag into the shared log.
// Malformed calls are ignored; the verdict path still covers flagged content.
func (c *ReplyClassifier) applyToolCall(call *genai.FunctionCall, reply domain.Reply) {
	if call.Name != "hide_harmful_content" {
		c.client.logger.Warn("classifier made unknown tool call", "name", call.Name)
		return
	}

	replyID, _ := call.Args["reply_id"].(string)
	actionType, _ := call.Args["action_type"].(string)
	reason, _ := call.Args["reason"].(string)
	rawSentiment, _ := call.Args["sentiment"].(string)

	if replyID == "" {
		replyID = reply.ID
	}
	sentiment, err := domain.ParseSentiment(rawSentiment)
	if err != nil || !sentiment.Flagged() {
		c.client.logger.Warn("classifier tool call with invalid sentiment, ignoring", "reply_id", replyID, "sentiment", rawSentiment)
		return
	}

	action := domain.ModerationAction(actionType)
	if action != domain.ActionBlur && action != domain.ActionHide {
		action = sentiment.ModerationAction()
	}

	c.moderation.Record(replyID, action, reason, sentiment)
}

func hideContentTool() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        "hide_harmful_content",
		Description: "Hide or blur harmful/unfriendly content in the UI to protect the user from hateful or negative replies",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"reply_id": {
					Type:        genai.TypeString,
					Description: "The ID of the reply to moderate",
				},
				"action_type": {
					Type:        genai.TypeString,
					Enum:        []string{"blur", "hide"},
					Description: "Whether to blur the content (still partially visible) or completely hide it",
				},
				"reason": {
					Type:        genai.TypeString,
					Description: "Brief explanation of why this content is being moderated",
				},
				"sentiment": {
					Type:        genai.TypeString,
					Enum:        []string{"harmful", "unfriendly"},
					Description: "The sentiment classification that triggered this moderation",
				},
			},
			Required: []string{"reply_id", "action_type", "reason", "sentiment"},
		},
	}
}
