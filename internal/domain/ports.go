package domain

import (
	"context"
	"time"
)

// ReplyClassifier judges a single reply in the context of its post. The call
// may take arbitrarily long and may fail with ErrContentUnavailable,
// ErrMalformedResponse, or any transient error. It does not retry; retry
// policy lives in the orchestrator so implementations stay swappable.
type ReplyClassifier interface {
	// ClassifyReply returns a verdict for the reply. When includeMedia is
	// false the reply's media reference must be ignored (the degraded
	// text-only path).
	ClassifyReply(ctx context.Context, post Post, postCtx PostAnalysis, reply Reply, includeMedia bool) (ReplyVerdict, error)
}

// PostClassifier analyzes the post itself.
type PostClassifier interface {
	ClassifyPost(ctx context.Context, post Post) (PostAnalysis, error)
}

// SummaryWriter turns the finished aggregate into one human-readable
// paragraph describing how the post is being received.
type SummaryWriter interface {
	WriteSummary(ctx context.Context, post Post, postCtx PostAnalysis, agg AggregateSummary, samples []Outcome) (string, error)
}

// Advisor produces ranked engagement recommendations for notable responders.
type Advisor interface {
	RecommendNextSteps(ctx context.Context, post Post, postCtx PostAnalysis, responders []ImportantResponder) ([]RecommendedAction, error)
}

// ModerationLog is the shared store of current moderation decisions. All
// methods are safe for concurrent use from in-flight classification tasks.
type ModerationLog interface {
	// Record creates or overwrites the record for a reply (last write
	// wins), timestamps it, notifies live subscribers best-effort, and
	// returns the stored record.
	Record(replyID string, action ModerationAction, reason string, sentiment Sentiment) ModerationRecord

	// Get returns the current record for a reply, if any.
	Get(replyID string) (ModerationRecord, bool)

	// List returns a point-in-time snapshot of all current records.
	List() map[string]ModerationRecord
}

// ProgressPublisher makes partial progress externally observable. Each call
// replaces the whole published state atomically; a concurrent reader sees
// either the previous snapshot or the new one, never a torn write. Calls for
// one run are made sequentially by the orchestrator, never concurrently.
type ProgressPublisher interface {
	Publish(ctx context.Context, snap RunSnapshot) error
}

// SessionArchive persists completed runs for later inspection.
type SessionArchive interface {
	// SaveSession stores a completed run.
	SaveSession(ctx context.Context, rec SessionRecord) error

	// RecentSessions returns up to limit archived runs, newest first.
	RecentSessions(ctx context.Context, limit int) ([]SessionSummary, error)

	// DeleteOldSessions removes runs finished earlier than maxAge ago and
	// any excess beyond maxRows, keeping the most recent. Returns the
	// number of sessions deleted.
	DeleteOldSessions(ctx context.Context, maxAge time.Duration, maxRows int) (int64, error)
}
