package services

import (
	"context"
	"time"
)

// StatusCompleted is the only episode status visible outside the editorial pipeline
const StatusCompleted = "completed"

// Episode is the public shape of an episode returned by the API
type Episode struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	LongDescription string    `json:"longDescription,omitempty"`
	CoverImageURL   string    `json:"coverImageUrl,omitempty"`
	AudioURL        string    `json:"audioUrl,omitempty"`
	Duration        *int      `json:"duration,omitempty"`      // seconds
	EpisodeNumber   *int      `json:"episodeNumber,omitempty"` // sequence within the show
	Host            string    `json:"host,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	Category        string    `json:"category,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Summary returns the long description if present, otherwise the short one
func (e *Episode) Summary() string {
	if e.LongDescription != "" {
		return e.LongDescription
	}
	return e.Description
}

// EpisodeSource is the read-only view of the episode collection
type EpisodeSource interface {
	// ListEpisodes returns all completed episodes, newest first
	ListEpisodes(ctx context.Context) ([]Episode, error)
	// GetEpisode returns the completed episode with the given id, or nil if there is none
	GetEpisode(ctx context.Context, id string) (*Episode, error)
	// ListCategories returns the sorted distinct categories of completed episodes
	ListCategories(ctx context.Context) ([]string, error)
	// LatestEpisode returns the newest completed episode in category, or the newest overall
	// when category is empty. Returns nil if there is none.
	LatestEpisode(ctx context.Context, category string) (*Episode, error)
}

// CategoryLister is the part of EpisodeSource needed for slug resolution
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]string, error)
}
