package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/gostremiocatalog/internal/cache"
	"github.com/amaumene/gostremiocatalog/internal/upstream"
)

type fakeUpstream struct {
	mu        sync.Mutex
	searches  []upstream.SearchParams
	videoGets int
	items     []upstream.Item
	videos    map[string]*upstream.VideoData
	err       error
}

func (f *fakeUpstream) Search(_ context.Context, params upstream.SearchParams) ([]upstream.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, params)
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func (f *fakeUpstream) GetVideoData(_ context.Context, slug string) (*upstream.VideoData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoGets++
	if f.err != nil {
		return nil, f.err
	}
	return f.videos[slug], nil
}

func (f *fakeUpstream) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

// fakeAccountAPI implements session.API.
type fakeAccountAPI struct {
	loginErr error
	premium  bool
}

func (f *fakeAccountAPI) Login(context.Context, string, string) (*upstream.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &upstream.LoginResult{
		SessionToken: "tok",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         upstream.User{IsPremium: f.premium},
	}, nil
}

func (f *fakeAccountAPI) GetAuthenticatedStreamDetails(_ context.Context, token, videoID string) (*upstream.StreamDetails, error) {
	return &upstream.StreamDetails{Streams: []upstream.RawStream{
		{URL: fmt.Sprintf("https://premium.cdn/%s.m3u8?t=%s", videoID, token), Quality: "1080p"},
	}}, nil
}

func newTestWrappers() *cache.Wrappers {
	tc := cache.NewTiered(cache.New(100), nil, cache.Options{})
	return cache.NewWrappers(tc, cache.DefaultTTLs(), nil)
}

func sampleVideoData() *upstream.VideoData {
	return &upstream.VideoData{
		Item: upstream.Item{
			ID:            "1",
			Slug:          "dragon-tales",
			Title:         "Dragon Tales",
			Description:   "<p>Two kids &amp; <b>dragons</b>.</p>",
			Genres:        []string{"action", "slice of life"},
			Year:          2021,
			PosterURL:     "https://cdn/poster.jpg",
			BackgroundURL: "https://cdn/bg.jpg",
		},
		Videos: []upstream.Video{
			{ID: "v2", Title: "The Return", Episode: 2, ThumbnailURL: "https://cdn/v2.jpg",
				Streams: []upstream.RawStream{{URL: "https://cdn/v2.mp4", Quality: "720p"}}},
			{ID: "v1", Title: "Episode 1", ThumbnailURL: "https://cdn/v1.jpg",
				Streams: []upstream.RawStream{{URL: "https://cdn/v1.mp4", Quality: "720p"}}},
		},
	}
}
