package services

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"
)

// DefaultEpisodeCacheTTL is how long a fetched episode list is served from memory
const DefaultEpisodeCacheTTL = 5 * time.Minute

type episodeSnapshot struct {
	episodes  []Episode
	fetchedAt time.Time
}

// CachedEpisodeSource keeps the last successful ListEpisodes result for a fixed TTL.
// Other reads go straight to the wrapped source. Concurrent refreshes are not
// deduplicated, the last one to finish wins.
type CachedEpisodeSource struct {
	EpisodeSource
	ttl      time.Duration
	now      func() time.Time
	snapshot atomic.Pointer[episodeSnapshot]
}

// NewCachedEpisodeSource wraps src with a list cache
func NewCachedEpisodeSource(src EpisodeSource, ttl time.Duration) *CachedEpisodeSource {
	if ttl <= 0 {
		ttl = DefaultEpisodeCacheTTL
	}
	return &CachedEpisodeSource{EpisodeSource: src, ttl: ttl, now: time.Now}
}

// ListEpisodes serves the cached list while fresh, otherwise fetches and replaces it.
// A failed fetch leaves the previous snapshot in place and returns the error.
func (c *CachedEpisodeSource) ListEpisodes(ctx context.Context) ([]Episode, error) {
	if snap := c.snapshot.Load(); snap != nil && c.now().Sub(snap.fetchedAt) < c.ttl {
		return cloneEpisodes(snap.episodes), nil
	}

	episodes, err := c.EpisodeSource.ListEpisodes(ctx)
	if err != nil {
		return nil, err
	}

	c.snapshot.Store(&episodeSnapshot{episodes: cloneEpisodes(episodes), fetchedAt: c.now()})
	log.Printf("[DEBUG] episode cache refreshed, %d episodes", len(episodes))
	return episodes, nil
}

// Invalidate drops the cached list
func (c *CachedEpisodeSource) Invalidate() {
	c.snapshot.Store(nil)
}

func cloneEpisodes(src []Episode) []Episode {
	if src == nil {
		return nil
	}
	dst := make([]Episode, len(src))
	copy(dst, src)
	return dst
}
