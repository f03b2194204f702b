package services

import (
	"context"

	"github.com/amaumene/gostremiocatalog/internal/cache"
	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
	"github.com/amaumene/gostremiocatalog/internal/models"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
)

type MetaService struct {
	upstream Upstream
	cache    *cache.Wrapper
	logger   logger.Logger
}

func NewMetaService(up Upstream, wrapper *cache.Wrapper, log logger.Logger) *MetaService {
	return &MetaService{upstream: up, cache: wrapper, logger: log}
}

// GetMeta returns the full metadata, episodes included, for a public id.
// Artwork URLs point at the CDN; callers rewrite them for the image proxy.
func (s *MetaService) GetMeta(ctx context.Context, id string) (*models.Meta, error) {
	slug, _, ok := ParseID(id)
	if !ok {
		return nil, apperrors.NewInvalidInputError("invalid meta id: " + id)
	}

	result := cache.Wrap(ctx, s.cache, slug, func(ctx context.Context) cache.Result[models.Meta] {
		data, err := s.upstream.GetVideoData(ctx, slug)
		if err != nil {
			return cache.FromError(models.Meta{}, err)
		}
		if data == nil {
			return cache.NotFound[models.Meta]()
		}
		if data.Slug == "" {
			data.Slug = slug
		}
		return cache.Found(toMeta(data))
	})

	meta, err := result.Unwrap()
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// ArtworkURL returns the CDN URL of one artwork. imageID is a slug for
// posters and backgrounds, and "<slug>:<videoID>" for thumbnails.
func (s *MetaService) ArtworkURL(ctx context.Context, imageType, imageID string) (string, error) {
	meta, err := s.GetMeta(ctx, MetaID(imageID))
	if err != nil {
		return "", err
	}

	var source string
	switch imageType {
	case "poster":
		source = meta.Poster
	case "background":
		source = meta.Background
	case "thumbnail":
		want := MetaID(imageID)
		for _, v := range meta.Videos {
			if v.ID == want {
				source = v.Thumbnail
				break
			}
		}
	default:
		return "", apperrors.NewInvalidInputError("unknown image type: " + imageType)
	}

	if source == "" {
		return "", apperrors.ErrNotFound
	}
	return source, nil
}
