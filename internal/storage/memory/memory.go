// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/carnagereport/theater/internal/storage"
	"github.com/carnagereport/theater/internal/telemetry"
)

// Source keeps feeds in memory, keyed by replay id
type Source struct {
	feeds map[string]telemetry.Feed
	mu    sync.RWMutex
}

var (
	_ storage.Source = (*Source)(nil)
	_ storage.Lister = (*Source)(nil)
)

// New creates a new memory source
func New() *Source {
	return &Source{
		feeds: make(map[string]telemetry.Feed),
	}
}

// Open is a no-op
func (s *Source) Open(ctx context.Context) error {
	return nil
}

// Close drops all feeds
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds = make(map[string]telemetry.Feed)
	return nil
}

// Add registers a feed under id, replacing any previous one
func (s *Source) Add(id string, feed telemetry.Feed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[id] = feed
}

// LoadFeed returns a copy of the stored feed
func (s *Source) LoadFeed(ctx context.Context, replayID string) (telemetry.Feed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	feed, ok := s.feeds[replayID]
	if !ok {
		return telemetry.Feed{}, fmt.Errorf("%w: %s", storage.ErrReplayNotFound, replayID)
	}

	out := telemetry.Feed{
		Header: append([]string(nil), feed.Header...),
		Rows:   make([][]string, len(feed.Rows)),
	}
	for i, row := range feed.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out, nil
}

// ListReplays returns the stored ids, sorted
func (s *Source) ListReplays(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.feeds))
	for id := range s.feeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
