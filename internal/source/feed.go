// Package source loads the sample social feed the pipeline analyzes.
package source

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blackmichael/replyguard/internal/domain"
)

// ErrPostNotFound is returned when a requested post id is not in the feed.
var ErrPostNotFound = fmt.Errorf("post not found in feed")

// Feed is the on-disk document shape: a list of posts, each carrying its
// replies inline.
type Feed struct {
	Posts []domain.Post `json:"posts"`
}

// FileSource reads the feed document from a JSON file. The file is re-read
// on every call so edits are picked up without a restart.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Feed loads and decodes the whole feed document.
func (s *FileSource) Feed() (*Feed, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read feed file: %w", err)
	}

	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parse feed file %s: %w", s.path, err)
	}
	return &feed, nil
}

// Post returns the post with the given id, including its replies.
func (s *FileSource) Post(id string) (domain.Post, error) {
	feed, err := s.Feed()
	if err != nil {
		return domain.Post{}, err
	}
	for _, p := range feed.Posts {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Post{}, fmt.Errorf("%w: %s", ErrPostNotFound, id)
}
