package moderation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/replyguard/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSubscriber struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSubscriber) Deliver(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSubscriber) received() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestRecordAndGet(t *testing.T) {
	store := NewStore(testLogger())

	rec := store.Record("reply-1", domain.ActionHide, "direct threat", domain.SentimentHarmful)
	assert.Equal(t, "reply-1", rec.ReplyID)
	assert.Equal(t, domain.ActionHide, rec.Action)
	assert.Equal(t, "applied", rec.Status)
	assert.False(t, rec.Timestamp.IsZero())

	got, ok := store.Get("reply-1")
	require.True(t, ok)
	assert.Equal(t, rec, got)

	_, ok = store.Get("reply-2")
	assert.False(t, ok)
}

func TestRecordLastWriteWins(t *testing.T) {
	store := NewStore(testLogger())

	store.Record("reply-1", domain.ActionBlur, "dismissive", domain.SentimentUnfriendly)
	store.Record("reply-1", domain.ActionHide, "escalated to threats", domain.SentimentHarmful)

	got, ok := store.Get("reply-1")
	require.True(t, ok)
	assert.Equal(t, domain.ActionHide, got.Action)
	assert.Equal(t, "escalated to threats", got.Reason)

	assert.Len(t, store.List(), 1)
}

func TestConcurrentWritesDoNotCorrupt(t *testing.T) {
	store := NewStore(testLogger())

	const identities = 10
	const writesPerIdentity = 5

	// Writes to one identity are ordered within its goroutine; identities
	// run against each other. The final record per identity must be that
	// identity's last issued write, with varying actions so a lost update
	// is visible.
	var wg sync.WaitGroup
	for i := 0; i < identities; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("reply-%d", i)
			for seq := 0; seq < writesPerIdentity; seq++ {
				action, sentiment := domain.ActionBlur, domain.SentimentUnfriendly
				if seq%2 == 1 {
					action, sentiment = domain.ActionHide, domain.SentimentHarmful
				}
				store.Record(id, action, fmt.Sprintf("write %d for %s", seq, id), sentiment)
			}
		}(i)
	}
	wg.Wait()

	records := store.List()
	require.Len(t, records, identities)
	for i := 0; i < identities; i++ {
		id := fmt.Sprintf("reply-%d", i)
		rec, ok := records[id]
		require.True(t, ok)
		assert.Equal(t, id, rec.ReplyID)
		assert.Equal(t, fmt.Sprintf("write %d for %s", writesPerIdentity-1, id), rec.Reason)
		assert.Equal(t, domain.ActionBlur, rec.Action)
		assert.Equal(t, domain.SentimentUnfriendly, rec.Sentiment)
		assert.False(t, rec.Timestamp.IsZero())
	}
}

func TestListReturnsSnapshot(t *testing.T) {
	store := NewStore(testLogger())
	store.Record("reply-1", domain.ActionHide, "threat", domain.SentimentHarmful)

	snapshot := store.List()
	store.Record("reply-2", domain.ActionBlur, "rude", domain.SentimentUnfriendly)

	assert.Len(t, snapshot, 1, "snapshot must not see later writes")
	assert.Len(t, store.List(), 2)
}

func TestSubscribersReceiveEvents(t *testing.T) {
	store := NewStore(testLogger())
	a := &recordingSubscriber{}
	b := &recordingSubscriber{}
	store.Subscribe(a)
	store.Subscribe(b)

	rec := store.Record("reply-1", domain.ActionHide, "threat", domain.SentimentHarmful)

	for _, sub := range []*recordingSubscriber{a, b} {
		events := sub.received()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeModeration, events[0].Type)
		assert.Equal(t, rec, events[0].Action)
	}
}

func TestFailingSubscriberIsDroppedOthersUnaffected(t *testing.T) {
	store := NewStore(testLogger())
	healthy := &recordingSubscriber{}
	broken := &recordingSubscriber{err: errors.New("connection reset")}
	store.Subscribe(healthy)
	store.Subscribe(broken)

	store.Record("reply-1", domain.ActionBlur, "rude", domain.SentimentUnfriendly)
	store.Record("reply-2", domain.ActionHide, "threat", domain.SentimentHarmful)

	assert.Len(t, healthy.received(), 2)
	assert.Empty(t, broken.received(), "broken subscriber dropped after first failure")
}

// stalledSubscriber blocks inside Deliver until released.
type stalledSubscriber struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *stalledSubscriber) Deliver(Event) error {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return nil
}

func TestStalledDeliveryDoesNotBlockRegistry(t *testing.T) {
	store := NewStore(testLogger())
	stalled := &stalledSubscriber{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	defer close(stalled.release)
	store.Subscribe(stalled)

	go store.Record("reply-1", domain.ActionHide, "threat", domain.SentimentHarmful)
	<-stalled.entered

	// With delivery in flight, registry operations must still complete.
	done := make(chan struct{})
	go func() {
		other := &recordingSubscriber{}
		store.Subscribe(other)
		store.Unsubscribe(other)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe/Unsubscribe blocked behind a stalled delivery")
	}

	// Reads of the record map are on a separate lock entirely.
	_, ok := store.Get("reply-1")
	assert.True(t, ok)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	store := NewStore(testLogger())
	sub := &recordingSubscriber{}
	store.Subscribe(sub)

	store.Record("reply-1", domain.ActionBlur, "rude", domain.SentimentUnfriendly)
	store.Unsubscribe(sub)
	store.Record("reply-2", domain.ActionHide, "threat", domain.SentimentHarmful)

	assert.Len(t, sub.received(), 1)
}
