package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/blackmichael/replyguard/internal/artifact"
	"github.com/blackmichael/replyguard/internal/config"
	"github.com/blackmichael/replyguard/internal/domain"
	"github.com/blackmichael/replyguard/internal/gemini"
	"github.com/blackmichael/replyguard/internal/moderation"
	"github.com/blackmichael/replyguard/internal/source"
)

// analyze runs the full pipeline once against a single post from a feed file
// and writes the state artifact, without starting the HTTP server.
func main() {
	feedPath := flag.String("feed", "data/feed.json", "path to the feed file")
	postID := flag.String("post", "", "id of the post to analyze (default: first post in the feed)")
	outPath := flag.String("out", "", "path for the state artifact (default: ARTIFACT_PATH)")
	flag.Parse()

	if err := run(*feedPath, *postID, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(feedPath, postID, outPath string) error {
	godotenv.Load(".env")

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if outPath == "" {
		outPath = cfg.ArtifactPath
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	feed := source.NewFileSource(feedPath)
	post, err := selectPost(feed, postID)
	if err != nil {
		return err
	}

	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}

	moderationStore := moderation.NewStore(logger)
	publisher := artifact.NewPublisher(outPath, moderationStore, logger)
	analyzer := domain.NewReplyAnalyzer(
		gemini.NewReplyClassifier(client, moderationStore),
		moderationStore,
		publisher,
		cfg.GroupSize,
		logger,
	)
	planner := domain.NewNextStepPlanner(gemini.NewAdvisor(client), logger)
	pipeline := domain.NewPipeline(
		gemini.NewPostClassifier(client),
		analyzer,
		publisher,
		gemini.NewSummaryWriter(client),
		planner,
		nil,
		moderationStore,
		logger,
	)

	result, err := pipeline.Run(ctx, "cli", post)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	fmt.Printf("analyzed %d replies for post %s\n", len(result.Outcomes), post.ID)
	fmt.Printf("overall sentiment: %s (safety concern: %s)\n",
		result.Summary.Overall, result.Summary.SafetyConcern)
	fmt.Printf("distribution: %d friendly, %d silly, %d unfriendly, %d harmful\n",
		result.Summary.Distribution.Friendly,
		result.Summary.Distribution.Silly,
		result.Summary.Distribution.Unfriendly,
		result.Summary.Distribution.Harmful)
	if result.SummaryProse != "" {
		fmt.Printf("\n%s\n", result.SummaryProse)
	}
	fmt.Printf("\nstate artifact written to %s\n", outPath)
	return nil
}

func selectPost(feed *source.FileSource, postID string) (domain.Post, error) {
	if postID != "" {
		return feed.Post(postID)
	}
	f, err := feed.Feed()
	if err != nil {
		return domain.Post{}, err
	}
	if len(f.Posts) == 0 {
		return domain.Post{}, fmt.Errorf("feed contains no posts")
	}
	return f.Posts[0], nil
}
