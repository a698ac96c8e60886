// Package gemini implements the pipeline's language-model ports on top of
// the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/blackmichael/replyguard/internal/domain"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Client wraps a shared genai client for the adapter set.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a Gemini client. An empty model selects DefaultModel.
func NewClient(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: client, model: model, logger: logger}, nil
}

// generate sends one user turn and returns the response text plus any
// function calls the model made.
func (c *Client) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, []*genai.FunctionCall, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", nil, mapAPIError(err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", nil, fmt.Errorf("%w: empty completion", domain.ErrMalformedResponse)
	}

	var text strings.Builder
	var calls []*genai.FunctionCall
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return text.String(), calls, nil
}

// mapAPIError classifies API failures into the domain taxonomy. Media-fetch
// failures become ErrContentUnavailable so the orchestrator can retry with
// text only; everything else stays transient.
func mapAPIError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unable to fetch") ||
		strings.Contains(msg, "could not fetch") ||
		strings.Contains(msg, "media from url") ||
		strings.Contains(msg, "unsupported file uri") {
		return fmt.Errorf("%w: %v", domain.ErrContentUnavailable, err)
	}
	return fmt.Errorf("gemini call failed: %w", err)
}

// mediaMIMEType guesses a MIME type for a reply attachment from its declared
// type.
func mediaMIMEType(replyType string) string {
	if replyType == "gif" {
		return "image/gif"
	}
	return "image/jpeg"
}
