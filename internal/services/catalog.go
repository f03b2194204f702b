package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/amaumene/gostremiocatalog/internal/cache"
	"github.com/amaumene/gostremiocatalog/internal/constants"
	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
	"github.com/amaumene/gostremiocatalog/internal/models"
	"github.com/amaumene/gostremiocatalog/internal/upstream"
	"github.com/amaumene/gostremiocatalog/pkg/logger"
)

// Catalog extra parameters understood by GetCatalog
const (
	ExtraSearch = "search"
	ExtraGenre  = "genre"
	ExtraSkip   = "skip"
)

// Upstream is the part of the upstream client used for public data.
type Upstream interface {
	Search(ctx context.Context, params upstream.SearchParams) ([]upstream.Item, error)
	GetVideoData(ctx context.Context, slug string) (*upstream.VideoData, error)
}

type CatalogService struct {
	upstream Upstream
	cache    *cache.Wrapper
	logger   logger.Logger
	perPage  int
}

func NewCatalogService(up Upstream, wrapper *cache.Wrapper, log logger.Logger) *CatalogService {
	return &CatalogService{
		upstream: up,
		cache:    wrapper,
		logger:   log,
		perPage:  constants.DefaultCatalogPerPage,
	}
}

// GetCatalog returns one page of a catalog. extra holds the raw search,
// genre and skip values; unknown keys are ignored.
func (s *CatalogService) GetCatalog(ctx context.Context, catalogID string, extra map[string]string) ([]models.Meta, error) {
	params, normalized, err := s.searchParams(catalogID, extra)
	if err != nil {
		return nil, err
	}

	result := cache.Wrap(ctx, s.cache, cache.CatalogIdentifier(catalogID, normalized), func(ctx context.Context) cache.Result[[]models.Meta] {
		items, err := s.upstream.Search(ctx, params)
		if err != nil {
			return cache.TransientError[[]models.Meta](err)
		}

		metas := make([]models.Meta, 0, len(items))
		for _, item := range items {
			if item.Slug == "" {
				continue
			}
			metas = append(metas, toPreview(item))
		}
		if len(metas) == 0 {
			return cache.NotFound[[]models.Meta]()
		}
		return cache.Found(metas)
	})

	metas, err := result.Unwrap()
	if apperrors.IsNotFound(err) {
		return []models.Meta{}, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debugf("[CatalogService] %s page %d: %d items (cached: %v)", catalogID, params.Page, len(metas), result.Cached)
	return metas, nil
}

// searchParams maps a catalog request onto an upstream search and returns
// the normalized extras used in the cache identifier.
func (s *CatalogService) searchParams(catalogID string, extra map[string]string) (upstream.SearchParams, map[string]string, error) {
	normalized := map[string]string{}
	params := upstream.SearchParams{PerPage: s.perPage, Page: 1}

	if skip, err := strconv.Atoi(extra[ExtraSkip]); err == nil && skip > 0 {
		params.Page = skip/s.perPage + 1
		normalized[ExtraSkip] = strconv.Itoa((params.Page - 1) * s.perPage)
	}
	if genre := strings.ToLower(strings.TrimSpace(extra[ExtraGenre])); genre != "" {
		params.Genre = genre
		normalized[ExtraGenre] = genre
	}

	switch catalogID {
	case constants.CatalogNewest:
		params.Sort = upstream.SortNewest
	case constants.CatalogTrending:
		params.Sort = upstream.SortTrending
	case constants.CatalogSearch:
		query := strings.TrimSpace(extra[ExtraSearch])
		if query == "" {
			return params, nil, apperrors.NewInvalidInputError("search catalog requires a search term")
		}
		params.Query = query
		normalized[ExtraSearch] = strings.ToLower(query)
	default:
		return params, nil, apperrors.NewInvalidInputError("unknown catalog: " + catalogID)
	}
	return params, normalized, nil
}
