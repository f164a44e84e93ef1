package services

import (
	"context"
	"sort"
	"sync/atomic"
	"time"
)

// fakeSource is an in-memory EpisodeSource holding completed episodes only
type fakeSource struct {
	episodes    []Episode
	listErr     error
	getErr      error
	categoryErr error
	latestErr   error
	listCalls   atomic.Int32
}

func (f *fakeSource) ListEpisodes(_ context.Context) ([]Episode, error) {
	f.listCalls.Add(1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Episode, len(f.episodes))
	copy(out, f.episodes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSource) GetEpisode(_ context.Context, id string) (*Episode, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.episodes {
		if f.episodes[i].ID == id {
			ep := f.episodes[i]
			return &ep, nil
		}
	}
	return nil, nil
}

func (f *fakeSource) ListCategories(_ context.Context) ([]string, error) {
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	set := map[string]bool{}
	for _, ep := range f.episodes {
		if ep.Category != "" {
			set[ep.Category] = true
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeSource) LatestEpisode(ctx context.Context, category string) (*Episode, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	episodes, _ := f.ListEpisodes(ctx)
	for i := range episodes {
		if category == "" || episodes[i].Category == category {
			return &episodes[i], nil
		}
	}
	return nil, nil
}

// categoryList is a CategoryLister over a fixed list
type categoryList []string

func (c categoryList) ListCategories(context.Context) ([]string, error) {
	return c, nil
}

func testEpisodes() []Episode {
	base := time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC)
	return []Episode{
		{ID: "ep-1", Title: "Sleep & <Recovery>", Description: "Why rest matters", Category: "Health", CreatedAt: base},
		{ID: "ep-2", Title: "Markets 101", Description: "Intro to markets", LongDescription: "A longer look at how markets work", Category: "Business & Economy", CreatedAt: base.Add(24 * time.Hour)},
		{ID: "ep-3", Title: "Untagged", Description: "", CreatedAt: base.Add(-24 * time.Hour)},
	}
}
