package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `{
  "posts": [
    {
      "id": "post-1",
      "type": "image",
      "content": "new drop!",
      "author": {"name": "creator", "verified": true},
      "replies": [
        {"id": "reply-1", "type": "text", "content": "love it", "author": {"name": "fan"}},
        {"id": "reply-2", "type": "image", "content": "me rn", "media_url": "https://example.com/meme.gif", "author": {"name": "memer"}}
      ]
    },
    {"id": "post-2", "type": "text", "content": "thoughts?", "author": {"name": "creator"}}
  ]
}`

func writeFeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFeedLoadsPosts(t *testing.T) {
	src := NewFileSource(writeFeed(t, sampleFeed))

	feed, err := src.Feed()
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)
	assert.Equal(t, "post-1", feed.Posts[0].ID)
	assert.True(t, feed.Posts[0].Author.Verified)
	assert.Len(t, feed.Posts[0].Replies, 2)
}

func TestPostLookup(t *testing.T) {
	src := NewFileSource(writeFeed(t, sampleFeed))

	post, err := src.Post("post-1")
	require.NoError(t, err)
	assert.Equal(t, "new drop!", post.Content)
	require.Len(t, post.Replies, 2)
	assert.Equal(t, "reply-2", post.Replies[1].ID)

	_, err = src.Post("post-404")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPostNotFound))
}

func TestFeedMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing.json"))
	_, err := src.Feed()
	assert.Error(t, err)
}

func TestFeedMalformedJSON(t *testing.T) {
	src := NewFileSource(writeFeed(t, "{not json"))
	_, err := src.Feed()
	assert.Error(t, err)
}

func TestFeedReloadsOnEachCall(t *testing.T) {
	path := writeFeed(t, sampleFeed)
	src := NewFileSource(path)

	feed, err := src.Feed()
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)

	require.NoError(t, os.WriteFile(path, []byte(`{"posts": []}`), 0o644))
	feed, err = src.Feed()
	require.NoError(t, err)
	assert.Empty(t, feed.Posts)
}
