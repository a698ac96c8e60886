package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application.
type Config struct {
	// Port is the HTTP server port.
	Port int

	// GeminiAPIKey authenticates against the Gemini API.
	GeminiAPIKey string

	// GeminiModel is the model name used for all analysis calls.
	GeminiModel string

	// GroupSize is the reply-analysis concurrency fan-out: how many
	// classification calls run at once within one group.
	GroupSize int

	// ArtifactPath is where the analysis state document is written.
	ArtifactPath string

	// DatabasePath is the SQLite file for the session archive.
	DatabasePath string

	// FeedPath is the JSON feed document with posts and replies.
	FeedPath string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}

	groupSize := 12
	if g := os.Getenv("ANALYZER_GROUP_SIZE"); g != "" {
		parsed, err := strconv.Atoi(g)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("ANALYZER_GROUP_SIZE must be a positive integer, got %q", g)
		}
		groupSize = parsed
	}

	artifactPath := os.Getenv("ARTIFACT_PATH")
	if artifactPath == "" {
		artifactPath = "data/reply_analysis.json"
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = "data/replyguard.db"
	}

	feedPath := os.Getenv("FEED_PATH")
	if feedPath == "" {
		feedPath = "data/feed.json"
	}

	return &Config{
		Port:         port,
		GeminiAPIKey: apiKey,
		GeminiModel:  model,
		GroupSize:    groupSize,
		ArtifactPath: artifactPath,
		DatabasePath: databasePath,
		FeedPath:     feedPath,
	}, nil
}
