// Package sqlite archives completed analysis sessions.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/blackmichael/replyguard/internal/domain"
)

// Repository implements domain.SessionArchive using SQLite.
type Repository struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id      TEXT PRIMARY KEY,
	post_id         TEXT NOT NULL,
	overall         TEXT NOT NULL,
	total_replies   INTEGER NOT NULL,
	harmful_count   INTEGER NOT NULL,
	important_count INTEGER NOT NULL,
	started_at      TIMESTAMP NOT NULL,
	finished_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS outcomes (
	session_id       TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
	position         INTEGER NOT NULL,
	reply_id         TEXT NOT NULL,
	analysis_status  TEXT NOT NULL,
	sentiment        TEXT NOT NULL,
	justification    TEXT NOT NULL,
	should_hide      INTEGER NOT NULL,
	author_important INTEGER NOT NULL,
	failure_reason   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (session_id, position)
);

CREATE TABLE IF NOT EXISTS moderation_actions (
	session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
	reply_id   TEXT NOT NULL,
	action     TEXT NOT NULL,
	reason     TEXT NOT NULL,
	sentiment  TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL,
	PRIMARY KEY (session_id, reply_id)
);
`

// NewRepository opens (or creates) the database at path, applies the schema,
// and returns a new Repository. The caller should call Close when done.
func NewRepository(path string) (*Repository, error) {
	// The pragma goes in the DSN so every pooled connection enforces it.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

var _ domain.SessionArchive = (*Repository)(nil)

// SaveSession stores a completed run and its per-reply rows in one
// transaction.
func (r *Repository) SaveSession(ctx context.Context, rec domain.SessionRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
			(session_id, post_id, overall, total_replies, harmful_count, important_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Summary.SessionID,
		rec.Summary.PostID,
		string(rec.Summary.Overall),
		rec.Summary.TotalReplies,
		rec.Summary.HarmfulCount,
		rec.Summary.ImportantCount,
		rec.StartedAt,
		rec.Summary.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for i, o := range rec.Outcomes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO outcomes
				(session_id, position, reply_id, analysis_status, sentiment, justification, should_hide, author_important, failure_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Summary.SessionID, i, o.ReplyID, o.Status, string(o.Sentiment),
			o.Justification, o.ShouldHide, o.AuthorImportant, o.FailureReason,
		)
		if err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.ReplyID, err)
		}
	}

	for _, m := range rec.Moderation {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO moderation_actions
				(session_id, reply_id, action, reason, sentiment, applied_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.Summary.SessionID, m.ReplyID, string(m.Action), m.Reason, string(m.Sentiment), m.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert moderation action %s: %w", m.ReplyID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RecentSessions returns up to limit archived runs, newest first.
func (r *Repository) RecentSessions(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, post_id, overall, total_replies, harmful_count, important_count, finished_at
		FROM sessions
		ORDER BY finished_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions (limit=%d): %w", limit, err)
	}
	defer rows.Close()

	var sessions []domain.SessionSummary
	for rows.Next() {
		var s domain.SessionSummary
		var overall string
		err := rows.Scan(
			&s.SessionID,
			&s.PostID,
			&overall,
			&s.TotalReplies,
			&s.HarmfulCount,
			&s.ImportantCount,
			&s.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Overall = domain.OverallSentiment(overall)
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// DeleteOldSessions removes sessions finished earlier than maxAge ago and any
// excess rows beyond maxRows, keeping the most recent. Returns the total
// number of sessions deleted.
func (r *Repository) DeleteOldSessions(ctx context.Context, maxAge time.Duration, maxRows int) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM sessions WHERE finished_at < ?`,
		time.Now().UTC().Add(-maxAge),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	ttlDeleted, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `
		DELETE FROM sessions WHERE session_id IN (
			SELECT session_id FROM sessions
			ORDER BY finished_at DESC
			LIMIT -1 OFFSET ?
		)`, maxRows,
	)
	if err != nil {
		return 0, fmt.Errorf("delete excess sessions: %w", err)
	}
	capDeleted, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return ttlDeleted + capDeleted, nil
}
