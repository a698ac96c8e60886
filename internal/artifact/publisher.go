// Package artifact persists the externally readable analysis state document.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/blackmichael/replyguard/internal/domain"
	"github.com/blackmichael/replyguard/internal/metrics"
)

// Publisher writes the whole accumulated run state to a JSON document at a
// well-known path after every group of replies settles. Each write replaces
// the previous document atomically, so a concurrent reader observes either
// the old snapshot or the new one, never a torn file.
type Publisher struct {
	path       string
	moderation domain.ModerationLog
	logger     *slog.Logger

	// Writes are serialized; the orchestrator already calls sequentially,
	// the mutex keeps that true even if a second caller sneaks in.
	mu          sync.Mutex
	lastSession string
	lastCount   int
}

// NewPublisher creates a publisher writing to path. The moderation log is
// consulted at publish time so each outcome carries its current record.
func NewPublisher(path string, moderation domain.ModerationLog, logger *slog.Logger) *Publisher {
	return &Publisher{path: path, moderation: moderation, logger: logger}
}

var _ domain.ProgressPublisher = (*Publisher)(nil)

// Document is the on-disk JSON shape of a published snapshot.
type Document struct {
	Session     SessionBlock     `json:"analysis_session"`
	Results     ResultsBlock     `json:"reply_analysis"`
	PostContext PostContextBlock `json:"post_context"`
}

// SessionBlock is the session metadata of a Document.
type SessionBlock struct {
	SessionID string           `json:"session_id"`
	Timestamp time.Time        `json:"timestamp"`
	Trigger   string           `json:"trigger"`
	Status    domain.RunStatus `json:"status"`
	PostID    string           `json:"post_id"`
}

// ResultsBlock carries the accumulated outcomes of a Document.
type ResultsBlock struct {
	AnalysisTimestamp time.Time        `json:"analysis_timestamp"`
	TotalAnalyzed     int              `json:"total_replies_analyzed"`
	HarmfulCount      int              `json:"replies_with_harmful_content"`
	ImportantCount    int              `json:"important_authors_found"`
	Analyses          []AnalysisEntry  `json:"reply_analyses"`
	Status            domain.RunStatus `json:"status"`
}

// AnalysisEntry is one reply's outcome inside a Document.
type AnalysisEntry struct {
	ReplyID        string         `json:"reply_id"`
	AnalysisStatus string         `json:"analysis_status"`
	Result         AnalysisResult `json:"analysis_result"`
	OriginalReply  domain.Reply   `json:"original_reply"`
}

// AnalysisResult is the verdict portion of an AnalysisEntry.
type AnalysisResult struct {
	Sentiment         domain.Sentiment          `json:"sentiment"`
	Justification     string                    `json:"justification"`
	ShouldHide        bool                      `json:"should_hide"`
	AuthorImportant   bool                      `json:"author_important"`
	FailureReason     string                    `json:"failure_reason,omitempty"`
	ModerationActions []domain.ModerationRecord `json:"moderation_actions"`
}

// PostContextBlock carries the post fields readers need alongside outcomes.
type PostContextBlock struct {
	PostID        string                  `json:"post_id"`
	PostContent   string                  `json:"post_content"`
	PostCategory  domain.PostCategory     `json:"post_category"`
	PostSentiment domain.OverallSentiment `json:"post_sentiment"`
	TotalReplies  int                     `json:"total_replies"`
}

// Publish rewrites the full state document from the snapshot. It fails, and
// the failure is fatal to the caller's run, when the document cannot be
// written or when the snapshot would regress a previously published one for
// the same session.
func (p *Publisher) Publish(ctx context.Context, snap domain.RunSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if snap.Session.ID == p.lastSession && len(snap.Outcomes) < p.lastCount {
		return fmt.Errorf("snapshot regression for %s: %d outcomes after %d", snap.Session.ID, len(snap.Outcomes), p.lastCount)
	}

	doc := p.buildDocument(snap)
	buf, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact directory: %w", err)
		}
	}
	if err := atomic.WriteFile(p.path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	p.lastSession = snap.Session.ID
	p.lastCount = len(snap.Outcomes)
	metrics.SnapshotsPublished.Inc()

	p.logger.Debug("snapshot published",
		"session_id", snap.Session.ID,
		"outcomes", len(snap.Outcomes),
		"status", doc.Session.Status,
	)
	return nil
}

// ReadCurrent returns the raw bytes of the current document. os.IsNotExist
// holds on the error when nothing has been published yet.
func (p *Publisher) ReadCurrent() ([]byte, error) {
	return os.ReadFile(p.path)
}

func (p *Publisher) buildDocument(snap domain.RunSnapshot) Document {
	status := domain.StatusInProgress
	if len(snap.Outcomes) >= snap.TotalExpected {
		status = domain.StatusCompleted
	}

	replyByID := make(map[string]domain.Reply, len(snap.Post.Replies))
	for _, r := range snap.Post.Replies {
		replyByID[r.ID] = r
	}

	harmful, important := 0, 0
	analyses := make([]AnalysisEntry, 0, len(snap.Outcomes))
	for _, o := range snap.Outcomes {
		if o.Sentiment == domain.SentimentHarmful {
			harmful++
		}
		if o.AuthorImportant {
			important++
		}

		actions := []domain.ModerationRecord{}
		if rec, ok := p.moderation.Get(o.ReplyID); ok {
			actions = append(actions, rec)
		}

		analyses = append(analyses, AnalysisEntry{
			ReplyID:        o.ReplyID,
			AnalysisStatus: o.Status,
			Result: AnalysisResult{
				Sentiment:         o.Sentiment,
				Justification:     o.Justification,
				ShouldHide:        o.ShouldHide,
				AuthorImportant:   o.AuthorImportant,
				FailureReason:     o.FailureReason,
				ModerationActions: actions,
			},
			OriginalReply: replyByID[o.ReplyID],
		})
	}

	return Document{
		Session: SessionBlock{
			SessionID: snap.Session.ID,
			Timestamp: time.Now().UTC(),
			Trigger:   snap.Session.Trigger,
			Status:    status,
			PostID:    snap.Post.ID,
		},
		Results: ResultsBlock{
			AnalysisTimestamp: time.Now().UTC(),
			TotalAnalyzed:     len(snap.Outcomes),
			HarmfulCount:      harmful,
			ImportantCount:    important,
			Analyses:          analyses,
			Status:            status,
		},
		PostContext: PostContextBlock{
			PostID:        snap.Post.ID,
			PostContent:   snap.Post.Content,
			PostCategory:  snap.PostContext.Category,
			PostSentiment: snap.PostContext.Sentiment,
			TotalReplies:  len(snap.Post.Replies),
		},
	}
}
