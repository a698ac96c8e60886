package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/blackmichael/replyguard/internal/metrics"
)

// DefaultGroupSize bounds how many classification calls are in flight at
// once. Large enough to amortize per-call latency, small enough to stay under
// the classifier's own concurrency ceiling.
const DefaultGroupSize = 12

// ReplyAnalyzer drives classification of a whole reply list to completion
// with bounded concurrency and per-item fault isolation. Replies are
// partitioned into consecutive fixed-size groups; items within a group run
// concurrently, groups run strictly in sequence, and the full accumulated
// state is published after every group settles.
type ReplyAnalyzer struct {
	classifier ReplyClassifier
	moderation ModerationLog
	publisher  ProgressPublisher
	groupSize  int
	logger     *slog.Logger
}

// NewReplyAnalyzer creates an analyzer. groupSize <= 0 selects
// DefaultGroupSize.
func NewReplyAnalyzer(
	classifier ReplyClassifier,
	moderation ModerationLog,
	publisher ProgressPublisher,
	groupSize int,
	logger *slog.Logger,
) *ReplyAnalyzer {
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	return &ReplyAnalyzer{
		classifier: classifier,
		moderation: moderation,
		publisher:  publisher,
		groupSize:  groupSize,
		logger:     logger,
	}
}

// Run classifies every reply and returns one outcome per input reply, in
// input order. Item failures never propagate: a failed classification becomes
// a fallback outcome. The only fatal error is a failed publish, since a
// broken publish pipeline means no reader can observe progress.
func (a *ReplyAnalyzer) Run(ctx context.Context, session Session, post Post, postCtx PostAnalysis, replies []Reply) ([]Outcome, error) {
	a.logger.Info("starting reply analysis",
		"session_id", session.ID,
		"post_id", post.ID,
		"replies", len(replies),
		"group_size", a.groupSize,
	)

	outcomes := make([]Outcome, 0, len(replies))
	groups := (len(replies) + a.groupSize - 1) / a.groupSize

	for start := 0; start < len(replies); start += a.groupSize {
		group := replies[start:min(start+a.groupSize, len(replies))]
		a.logger.Info("processing group",
			"session_id", session.ID,
			"group", start/a.groupSize+1,
			"groups", groups,
			"size", len(group),
		)

		// Launch every item in the group before awaiting any of them,
		// and wait for the whole group to settle. Tasks store their
		// result in their own slot and never return an error, so a
		// failing item cannot cancel its siblings.
		results := make([]classifyResult, len(group))
		g := new(errgroup.Group)
		for i, reply := range group {
			g.Go(func() error {
				results[i] = a.classifyOne(ctx, post, postCtx, reply)
				return nil
			})
		}
		g.Wait()

		for i, res := range results {
			outcome := a.settle(session, group[i], res)
			outcomes = append(outcomes, outcome)
			metrics.RepliesAnalyzed.Inc()
		}

		snap := RunSnapshot{
			Session:       session,
			Post:          post,
			PostContext:   postCtx,
			Outcomes:      slices.Clone(outcomes),
			TotalExpected: len(replies),
		}
		if err := a.publisher.Publish(ctx, snap); err != nil {
			return nil, fmt.Errorf("publish progress after %d outcomes: %w", len(outcomes), err)
		}
		a.logger.Info("published progress",
			"session_id", session.ID,
			"analyzed", len(outcomes),
			"total", len(replies),
		)
	}

	if len(replies) == 0 {
		// No groups ran, but readers still need a completed snapshot.
		snap := RunSnapshot{Session: session, Post: post, PostContext: postCtx}
		if err := a.publisher.Publish(ctx, snap); err != nil {
			return nil, fmt.Errorf("publish empty run: %w", err)
		}
	}

	a.logger.Info("completed reply analysis", "session_id", session.ID, "outcomes", len(outcomes))
	return outcomes, nil
}

type classifyResult struct {
	verdict ReplyVerdict
	err     error
}

// classifyOne runs a single classification, retrying exactly once with text
// only when the reply's media could not be fetched.
func (a *ReplyAnalyzer) classifyOne(ctx context.Context, post Post, postCtx PostAnalysis, reply Reply) classifyResult {
	verdict, err := a.classifier.ClassifyReply(ctx, post, postCtx, reply, true)
	if err != nil && errors.Is(err, ErrContentUnavailable) && reply.HasMedia() {
		a.logger.Warn("media unavailable, retrying with text only", "reply_id", reply.ID, "error", err)
		verdict, err = a.classifier.ClassifyReply(ctx, post, postCtx, reply, false)
		if err == nil {
			verdict.Justification += " (media could not be loaded; judged on text alone)"
		}
	}
	return classifyResult{verdict: verdict, err: err}
}

// settle converts a classification result into the reply's single outcome,
// synthesizing the fallback on failure and raising the moderation flag for
// flagged sentiments.
func (a *ReplyAnalyzer) settle(session Session, reply Reply, res classifyResult) Outcome {
	if res.err != nil {
		a.logger.Error("classification failed, using fallback outcome", "reply_id", reply.ID, "error", res.err)
		metrics.ClassificationFailures.Inc()
		// Fail open on display: an unevaluated reply is shown, not
		// silently hidden.
		return Outcome{
			ReplyID:         reply.ID,
			Status:          OutcomeFallback,
			Sentiment:       SentimentFriendly,
			Justification:   fmt.Sprintf("Analysis failed: %v", res.err),
			ShouldHide:      false,
			AuthorImportant: reply.Author.Important,
			FailureReason:   res.err.Error(),
		}
	}

	outcome := Outcome{
		ReplyID:         reply.ID,
		Status:          OutcomeSuccess,
		Sentiment:       res.verdict.Sentiment,
		Justification:   res.verdict.Justification,
		ShouldHide:      res.verdict.ShouldHide,
		AuthorImportant: res.verdict.AuthorImportant || reply.Author.Important,
	}

	if outcome.Sentiment.Flagged() {
		// The classification stage may already have raised the flag
		// through its tool-call path; only record when it did not.
		// A record left over from an earlier run of the same post
		// predates this session and is refreshed, not honored.
		if existing, ok := a.moderation.Get(reply.ID); !ok || existing.Timestamp.Before(session.StartedAt) {
			rec := a.moderation.Record(reply.ID, outcome.Sentiment.ModerationAction(), truncate(outcome.Justification, 100), outcome.Sentiment)
			a.logger.Info("moderation flag raised",
				"reply_id", reply.ID,
				"action", rec.Action,
				"sentiment", rec.Sentiment,
			)
		}
	}

	return outcome
}

// truncate returns the first n characters of s, appending "..." if truncated.
// Counts runes, not bytes, so multibyte text is never cut mid-rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
