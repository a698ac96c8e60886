package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunResult is everything one complete pipeline pass produces.
type RunResult struct {
	Session      Session          `json:"session"`
	Post         Post             `json:"-"`
	PostAnalysis PostAnalysis     `json:"post_analysis"`
	Outcomes     []Outcome        `json:"reply_analyses"`
	Summary      AggregateSummary `json:"general_sentiment"`
	SummaryProse string           `json:"sentiment_summary"`
	NextSteps    NextSteps        `json:"next_steps"`
}

// Pipeline runs the full layered analysis: post classification and reply
// analysis in parallel, then the aggregate summary, then next-step planning,
// then best-effort archival.
type Pipeline struct {
	posts     PostClassifier
	analyzer  *ReplyAnalyzer
	publisher ProgressPublisher
	writer    SummaryWriter
	planner   *NextStepPlanner
	archive   SessionArchive
	modlog    ModerationLog
	logger    *slog.Logger
}

// NewPipeline wires the pipeline. archive may be nil to disable archival.
func NewPipeline(
	posts PostClassifier,
	analyzer *ReplyAnalyzer,
	publisher ProgressPublisher,
	writer SummaryWriter,
	planner *NextStepPlanner,
	archive SessionArchive,
	modlog ModerationLog,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		posts:     posts,
		analyzer:  analyzer,
		publisher: publisher,
		writer:    writer,
		planner:   planner,
		archive:   archive,
		modlog:    modlog,
		logger:    logger,
	}
}

// Run analyzes a post and all of its replies. The caller always receives
// either a complete result (individual replies may have fallen back to the
// safety default) or an error describing why the run could not proceed at
// all.
func (p *Pipeline) Run(ctx context.Context, trigger string, post Post) (*RunResult, error) {
	session := NewSession(trigger)
	p.logger.Info("starting analysis run",
		"session_id", session.ID,
		"post_id", post.ID,
		"replies", len(post.Replies),
	)

	// Reply analysis does not wait for the post verdict; it starts from a
	// neutral provisional context so both stages run concurrently.
	provisional := ProvisionalPostAnalysis(post)
	postAnalysis := provisional

	var outcomes []Outcome
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		analysis, err := p.posts.ClassifyPost(gctx, post)
		if err != nil {
			// Degrade to the provisional context instead of failing
			// the run.
			p.logger.Warn("post classification failed, keeping provisional context", "error", err)
			return nil
		}
		postAnalysis = analysis
		return nil
	})
	g.Go(func() error {
		var err error
		outcomes, err = p.analyzer.Run(gctx, session, post, provisional, post.Replies)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reply analysis: %w", err)
	}

	// The analyzer's checkpoints all carried the provisional context.
	// Republish once so artifact readers see the resolved post verdict.
	final := RunSnapshot{
		Session:       session,
		Post:          post,
		PostContext:   postAnalysis,
		Outcomes:      outcomes,
		TotalExpected: len(post.Replies),
	}
	if err := p.publisher.Publish(ctx, final); err != nil {
		return nil, fmt.Errorf("publish final snapshot: %w", err)
	}

	agg := Summarize(outcomes)
	p.logger.Info("aggregate computed",
		"session_id", session.ID,
		"overall", agg.Overall,
		"safety_concern", agg.SafetyConcern,
	)

	prose, err := p.writer.WriteSummary(ctx, post, postAnalysis, agg, sampleOutcomes(outcomes, 5))
	if err != nil {
		p.logger.Warn("summary prose unavailable, using generated sentence", "error", err)
		prose = fallbackProse(agg)
	}

	steps := p.planner.Plan(ctx, post, postAnalysis, outcomes, post.Replies)

	result := &RunResult{
		Session:      session,
		Post:         post,
		PostAnalysis: postAnalysis,
		Outcomes:     outcomes,
		Summary:      agg,
		SummaryProse: prose,
		NextSteps:    steps,
	}

	if p.archive != nil {
		if err := p.archive.SaveSession(ctx, p.sessionRecord(result)); err != nil {
			p.logger.Error("failed to archive session", "session_id", session.ID, "error", err)
		}
	}

	p.logger.Info("analysis run finished", "session_id", session.ID, "overall", agg.Overall)
	return result, nil
}

// StartArchiveJanitor runs a background loop that prunes archived sessions
// older than maxAge and caps the total at maxRows. It runs immediately on
// start and then repeats at the given interval. It blocks until ctx is
// cancelled.
func (p *Pipeline) StartArchiveJanitor(ctx context.Context, interval, maxAge time.Duration, maxRows int) {
	if p.archive == nil {
		return
	}
	p.pruneArchive(ctx, maxAge, maxRows)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pruneArchive(ctx, maxAge, maxRows)
		}
	}
}

func (p *Pipeline) pruneArchive(ctx context.Context, maxAge time.Duration, maxRows int) {
	deleted, err := p.archive.DeleteOldSessions(ctx, maxAge, maxRows)
	if err != nil {
		p.logger.Error("archive prune failed", "error", err)
	} else if deleted > 0 {
		p.logger.Info("archive prune complete", "deleted", deleted)
	}
}

func (p *Pipeline) sessionRecord(res *RunResult) SessionRecord {
	var moderation []ModerationRecord
	for _, o := range res.Outcomes {
		if rec, ok := p.modlog.Get(o.ReplyID); ok {
			moderation = append(moderation, rec)
		}
	}
	return SessionRecord{
		Summary: SessionSummary{
			SessionID:      res.Session.ID,
			PostID:         res.Post.ID,
			Overall:        res.Summary.Overall,
			TotalReplies:   res.Summary.TotalReplies,
			HarmfulCount:   res.Summary.Distribution.Harmful,
			ImportantCount: res.Summary.ImportantResponders,
			FinishedAt:     time.Now().UTC(),
		},
		StartedAt:  res.Session.StartedAt,
		Outcomes:   res.Outcomes,
		Moderation: moderation,
	}
}

// sampleOutcomes returns the first n outcomes for prose context.
func sampleOutcomes(outcomes []Outcome, n int) []Outcome {
	if len(outcomes) <= n {
		return outcomes
	}
	return outcomes[:n]
}

// fallbackProse builds a plain one-line reception summary when the summary
// writer is unavailable.
func fallbackProse(agg AggregateSummary) string {
	switch agg.Overall {
	case OverallPositive:
		return fmt.Sprintf("Replies are largely positive: %d of %d lean friendly or playful.",
			agg.Distribution.Friendly+agg.Distribution.Silly, agg.TotalReplies)
	case OverallNegative:
		if agg.Distribution.Harmful > 0 {
			return fmt.Sprintf("Reception is rough: %d harmful and %d unfriendly replies out of %d.",
				agg.Distribution.Harmful, agg.Distribution.Unfriendly, agg.TotalReplies)
		}
		return fmt.Sprintf("Reception skews negative: %d of %d replies are unfriendly.",
			agg.Distribution.Unfriendly, agg.TotalReplies)
	case OverallMixed:
		return fmt.Sprintf("Reception is mixed across %d replies, with support and pushback in similar measure.",
			agg.TotalReplies)
	default:
		return fmt.Sprintf("Not much signal yet: %d replies with no strong lean either way.", agg.TotalReplies)
	}
}
