// Package moderation holds the shared store of current moderation decisions
// and fans each write out to live subscribers.
package moderation

import (
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/blackmichael/replyguard/internal/domain"
	"github.com/blackmichael/replyguard/internal/metrics"
)

// Event is the message pushed to subscribers on every moderation write.
type Event struct {
	Type   string                  `json:"type"`
	Action domain.ModerationRecord `json:"action"`
}

// EventTypeModeration is the Type of every event the store emits.
const EventTypeModeration = "content_moderation"

// Subscriber receives moderation events. Delivery is at-most-once with no
// guarantee: a Deliver error drops the subscriber and nothing is redelivered.
// This mirrors the unreliable live channel the store feeds (a UI socket), and
// is an accepted weak point, not something the store compensates for.
type Subscriber interface {
	Deliver(Event) error
}

// Store maps reply identity to the most recent moderation decision. All
// methods are safe for concurrent use; writes to different replies do not
// block each other beyond the shared map lock, and concurrent writes to the
// same reply resolve last-write-wins without corruption.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.ModerationRecord

	subMu  sync.Mutex
	subs   map[Subscriber]struct{}
	logger *slog.Logger
}

// NewStore creates an empty store. State lives for the process lifetime only;
// each run rebuilds it.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		records: make(map[string]domain.ModerationRecord),
		subs:    make(map[Subscriber]struct{}),
		logger:  logger,
	}
}

var _ domain.ModerationLog = (*Store)(nil)

// Record creates or overwrites the record for a reply, timestamps it, pushes
// it to all subscribers, and returns the stored record. A later write for the
// same reply wins.
func (s *Store) Record(replyID string, action domain.ModerationAction, reason string, sentiment domain.Sentiment) domain.ModerationRecord {
	rec := domain.ModerationRecord{
		ReplyID:   replyID,
		Action:    action,
		Reason:    reason,
		Sentiment: sentiment,
		Timestamp: time.Now().UTC(),
		Status:    "applied",
	}

	s.mu.Lock()
	s.records[replyID] = rec
	s.mu.Unlock()

	metrics.ModerationActions.WithLabelValues(string(action)).Inc()
	s.logger.Info("moderation record stored", "reply_id", replyID, "action", action, "sentiment", sentiment)

	s.notify(rec)
	return rec
}

// Get returns the current record for a reply, if any.
func (s *Store) Get(replyID string) (domain.ModerationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[replyID]
	return rec, ok
}

// List returns a point-in-time snapshot of all current records. The snapshot
// is not transactionally consistent with concurrent writes, but every record
// in it was fully written.
func (s *Store) List() map[string]domain.ModerationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.records)
}

// Subscribe registers a live receiver for future writes.
func (s *Store) Subscribe(sub Subscriber) {
	s.subMu.Lock()
	s.subs[sub] = struct{}{}
	total := len(s.subs)
	s.subMu.Unlock()
	s.logger.Info("moderation subscriber added", "subscribers", total)
}

// Unsubscribe deregisters a receiver. Unknown subscribers are ignored.
func (s *Store) Unsubscribe(sub Subscriber) {
	s.subMu.Lock()
	delete(s.subs, sub)
	total := len(s.subs)
	s.subMu.Unlock()
	s.logger.Info("moderation subscriber removed", "subscribers", total)
}

// notify pushes an event to every subscriber. A failed delivery removes that
// subscriber but never affects the others or the caller of Record. Delivery
// happens outside the registry lock so a stalled subscriber cannot block
// Subscribe, Unsubscribe, or other writers' bookkeeping.
func (s *Store) notify(rec domain.ModerationRecord) {
	event := Event{Type: EventTypeModeration, Action: rec}

	s.subMu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subMu.Unlock()

	var failed []Subscriber
	for _, sub := range subs {
		if err := sub.Deliver(event); err != nil {
			s.logger.Error("moderation event delivery failed, dropping subscriber", "error", err)
			failed = append(failed, sub)
		}
	}
	if len(failed) == 0 {
		return
	}

	s.subMu.Lock()
	for _, sub := range failed {
		delete(s.subs, sub)
	}
	s.subMu.Unlock()
}
