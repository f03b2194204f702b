package services

import (
	"context"

	"github.com/amaumene/gostremiocatalog/internal/cache"
	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
	"github.com/amaumene/gostremiocatalog/internal/models"
	"github.com/amaumene/gostremiocatalog/internal/session"
	"github.com/amaumene/gostremiocatalog/internal/upstream"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
	"github.com/amaumene/gostremiocatalog/pkg/security"
)

// Credentials are the per-request account details from the user config.
type Credentials struct {
	Email    string
	Password string
}

func (c *Credentials) valid() bool {
	return c != nil && c.Email != "" && c.Password != ""
}

// SessionProvider hands out authenticated sessions.
type SessionProvider interface {
	GetUserAPI(ctx context.Context, email, password string) (*session.Session, error)
}

type StreamService struct {
	upstream Upstream
	sessions SessionProvider
	cache    *cache.Wrapper
	logger   logger.Logger
}

func NewStreamService(up Upstream, sessions SessionProvider, wrapper *cache.Wrapper, log logger.Logger) *StreamService {
	return &StreamService{upstream: up, sessions: sessions, cache: wrapper, logger: log}
}

// GetStreams returns the playable streams of a video id. A meta id without
// a video part resolves to the franchise's first video. With credentials
// the authenticated endpoint is used, falling back to public streams when
// login fails.
func (s *StreamService) GetStreams(ctx context.Context, id string, creds *Credentials) ([]models.Stream, error) {
	slug, videoID, ok := ParseID(id)
	if !ok {
		return nil, apperrors.NewInvalidInputError("invalid stream id: " + id)
	}

	video, err := s.resolveVideo(ctx, slug, videoID)
	if err != nil {
		return nil, err
	}

	if creds.valid() {
		streams, err := s.authenticatedStreams(ctx, slug, video.ID, creds)
		if err == nil {
			return streams, nil
		}
		s.logger.Warnf("[StreamService] authenticated streams failed for %s (%s), using public streams: %v",
			id, security.MaskEmail(creds.Email), err)
	}

	return toStreams(video.Streams, slug), nil
}

// resolveVideo finds the video in the franchise payload. The payload is
// fetched through the stream cache, which holds the public streams.
func (s *StreamService) resolveVideo(ctx context.Context, slug, videoID string) (*upstream.Video, error) {
	result := cache.Wrap(ctx, s.cache, slug, func(ctx context.Context) cache.Result[[]upstream.Video] {
		data, err := s.upstream.GetVideoData(ctx, slug)
		if err != nil {
			return cache.FromError[[]upstream.Video](nil, err)
		}
		if data == nil || len(data.Videos) == 0 {
			return cache.NotFound[[]upstream.Video]()
		}
		return cache.Found(data.Videos)
	})

	videos, err := result.Unwrap()
	if err != nil {
		return nil, err
	}

	if videoID == "" {
		return &videos[0], nil
	}
	for i := range videos {
		if videos[i].ID == videoID {
			return &videos[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// authenticatedStreams are cached per account tier: every account of a tier
// is granted the same streams.
func (s *StreamService) authenticatedStreams(ctx context.Context, slug, videoID string, creds *Credentials) ([]models.Stream, error) {
	sess, err := s.sessions.GetUserAPI(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, err
	}

	tier := "free"
	if sess.IsPremium() {
		tier = "premium"
	}

	result := cache.Wrap(ctx, s.cache, slug+":"+videoID+":"+tier, func(ctx context.Context) cache.Result[[]models.Stream] {
		details, err := sess.GetStreamDetails(ctx, videoID)
		if err != nil {
			return cache.FromError[[]models.Stream](nil, err)
		}
		streams := toStreams(details.Streams, slug)
		if len(streams) == 0 {
			return cache.NotFound[[]models.Stream]()
		}
		return cache.Found(streams)
	})
	return result.Unwrap()
}
