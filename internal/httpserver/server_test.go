package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/replyguard/internal/artifact"
	"github.com/blackmichael/replyguard/internal/config"
	"github.com/blackmichael/replyguard/internal/domain"
	"github.com/blackmichael/replyguard/internal/moderation"
	"github.com/blackmichael/replyguard/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubClassifier returns a fixed sentiment per reply id prefix so tests can
// exercise the whole pipeline without a live model.
type stubClassifier struct{}

func (stubClassifier) ClassifyReply(_ context.Context, _ domain.Post, _ domain.PostAnalysis, reply domain.Reply, _ bool) (domain.ReplyVerdict, error) {
	if strings.HasPrefix(reply.ID, "harmful-") {
		return domain.ReplyVerdict{Sentiment: domain.SentimentHarmful, Justification: "abusive language", ShouldHide: true}, nil
	}
	return domain.ReplyVerdict{Sentiment: domain.SentimentFriendly, Justification: "supportive"}, nil
}

type stubPostClassifier struct{}

func (stubPostClassifier) ClassifyPost(context.Context, domain.Post) (domain.PostAnalysis, error) {
	return domain.PostAnalysis{Analysis: "test post", Sentiment: domain.OverallNeutral, Confidence: 0.7, Category: domain.CategoryPersonal}, nil
}

type stubWriter struct{}

func (stubWriter) WriteSummary(context.Context, domain.Post, domain.PostAnalysis, domain.AggregateSummary, []domain.Outcome) (string, error) {
	return "Reception looks fine.", nil
}

type stubAdvisor struct{}

func (stubAdvisor) RecommendNextSteps(context.Context, domain.Post, domain.PostAnalysis, []domain.ImportantResponder) ([]domain.RecommendedAction, error) {
	return nil, nil
}

const serverFeed = `{
  "posts": [
    {
      "id": "post-1",
      "type": "text",
      "content": "hello",
      "author": {"name": "creator"},
      "replies": [
        {"id": "reply-1", "type": "text", "content": "nice", "author": {"name": "fan"}},
        {"id": "harmful-1", "type": "text", "content": "awful stuff", "author": {"name": "troll"}}
      ]
    }
  ]
}`

func newTestServer(t *testing.T) (*httptest.Server, *moderation.Store, string) {
	t.Helper()

	dir := t.TempDir()
	feedPath := filepath.Join(dir, "feed.json")
	require.NoError(t, os.WriteFile(feedPath, []byte(serverFeed), 0o644))
	artifactPath := filepath.Join(dir, "reply_analysis.json")

	logger := testLogger()
	store := moderation.NewStore(logger)
	publisher := artifact.NewPublisher(artifactPath, store, logger)
	analyzer := domain.NewReplyAnalyzer(stubClassifier{}, store, publisher, 2, logger)
	planner := domain.NewNextStepPlanner(stubAdvisor{}, logger)
	pipeline := domain.NewPipeline(stubPostClassifier{}, analyzer, publisher, stubWriter{}, planner, nil, store, logger)

	srv := NewServer(&config.Config{Port: 0}, pipeline, source.NewFileSource(feedPath), store, publisher, nil, logger)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, store, artifactPath
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyzeEndpoint(t *testing.T) {
	ts, store, artifactPath := newTestServer(t)

	body := bytes.NewBufferString(`{"post_id": "post-1"}`)
	resp, err := http.Post(ts.URL+"/api/analyses", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Status string           `json:"status"`
		Result domain.RunResult `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "success", payload.Status)
	assert.Len(t, payload.Result.Outcomes, 2)

	// The harmful reply must have produced a moderation record and the
	// artifact must be on disk.
	rec, ok := store.Get("harmful-1")
	require.True(t, ok)
	assert.Equal(t, domain.ActionHide, rec.Action)
	_, err = os.Stat(artifactPath)
	assert.NoError(t, err)
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/analyses", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/analyses", "application/json", bytes.NewBufferString(`{"post_id": "post-404"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStateEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	// Nothing published yet.
	resp, err := http.Get(ts.URL + "/api/analyses/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	post, err := http.Post(ts.URL+"/api/analyses", "application/json", bytes.NewBufferString(`{"post_id": "post-1"}`))
	require.NoError(t, err)
	post.Body.Close()

	resp, err = http.Get(ts.URL + "/api/analyses/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc artifact.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, domain.StatusCompleted, doc.Session.Status)
	assert.Equal(t, 2, doc.Results.TotalAnalyzed)

	// The final artifact carries the resolved post verdict, not the
	// provisional context the reply stage started from.
	assert.Equal(t, domain.CategoryPersonal, doc.PostContext.PostCategory)
	assert.Equal(t, domain.OverallNeutral, doc.PostContext.PostSentiment)
}

func TestModerationListEndpoint(t *testing.T) {
	ts, store, _ := newTestServer(t)
	store.Record("reply-9", domain.ActionBlur, "rude", domain.SentimentUnfriendly)

	resp, err := http.Get(ts.URL + "/api/moderation")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Actions map[string]domain.ModerationRecord `json:"moderation_actions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Contains(t, payload.Actions, "reply-9")
	assert.Equal(t, domain.ActionBlur, payload.Actions["reply-9"].Action)
}

func TestFeedEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/feed")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var feed source.Feed
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&feed))
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, "post-1", feed.Posts[0].ID)
}

func TestSessionsEndpointDisabledArchive(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/sessions")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestModerationWebsocketStream(t *testing.T) {
	ts, store, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/moderation/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// The handler registers the subscriber right after the upgrade; give it
	// a moment to get there before writing.
	time.Sleep(100 * time.Millisecond)

	rec := store.Record("reply-ws", domain.ActionHide, "threat", domain.SentimentHarmful)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event moderation.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, moderation.EventTypeModeration, event.Type)
	assert.Equal(t, rec.ReplyID, event.Action.ReplyID)
	assert.Equal(t, domain.ActionHide, event.Action.Action)
}
