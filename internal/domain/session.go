package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of one analysis run as seen by readers of
// the published snapshot. Within a session it only ever moves forward:
// in_progress -> completed, or straight to error.
type RunStatus string

const (
	StatusInProgress RunStatus = "in_progress"
	StatusCompleted  RunStatus = "completed"
	StatusError      RunStatus = "error"
)

// Session identifies one analysis run.
type Session struct {
	ID        string    `json:"session_id"`
	StartedAt time.Time `json:"timestamp"`

	// Trigger records what kicked the run off, e.g. "analyze_request" or
	// "cli".
	Trigger string `json:"trigger"`
}

// NewSession creates a session with a fresh identifier.
func NewSession(trigger string) Session {
	return Session{
		ID:        "session_" + uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Trigger:   trigger,
	}
}

// RunSnapshot is the accumulating state handed to the publisher after every
// group of replies settles. Outcomes only ever grows between snapshots of the
// same session; a reader never sees a half-written outcome.
type RunSnapshot struct {
	Session     Session
	Post        Post
	PostContext PostAnalysis

	// Outcomes is the full accumulated list so far, in input order.
	Outcomes []Outcome

	// TotalExpected is the size of the input reply list. The publisher
	// derives run status from len(Outcomes) against it.
	TotalExpected int
}

// SessionSummary is the archived, queryable digest of a completed run.
type SessionSummary struct {
	SessionID      string           `json:"session_id"`
	PostID         string           `json:"post_id"`
	Overall        OverallSentiment `json:"overall_sentiment"`
	TotalReplies   int              `json:"total_replies"`
	HarmfulCount   int              `json:"harmful_count"`
	ImportantCount int              `json:"important_count"`
	FinishedAt     time.Time        `json:"finished_at"`
}

// SessionRecord is everything the archive keeps about a completed run.
type SessionRecord struct {
	Summary    SessionSummary
	StartedAt  time.Time
	Outcomes   []Outcome
	Moderation []ModerationRecord
}
