package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocatalog/internal/constants"
	"github.com/amaumene/gostremiocatalog/internal/models"
	"github.com/amaumene/gostremiocatalog/internal/services"
)

func (h *Handler) handleManifest(c *gin.Context) {
	c.JSON(http.StatusOK, h.createManifest())
}

func (h *Handler) createManifest() models.Manifest {
	return models.Manifest{
		ID:          constants.AddonID,
		Version:     constants.AddonVersion,
		Name:        constants.AddonName,
		Description: constants.AddonDescription,
		Types:       []string{"series", "movie"},
		Resources:   []string{"catalog", "meta", "stream"},
		Catalogs:    h.getDefaultCatalogs(),
		BehaviorHints: models.BehaviorHints{
			Configurable: true,
		},
		IDPrefixes: []string{constants.IDPrefix + ":"},
	}
}

func (h *Handler) getDefaultCatalogs() []models.Catalog {
	return []models.Catalog{
		{
			Type: "series",
			ID:   constants.CatalogNewest,
			Name: "Newest",
			Extra: []models.ExtraField{
				{Name: services.ExtraGenre, Options: constants.Genres},
				{Name: services.ExtraSkip},
			},
		},
		{
			Type: "series",
			ID:   constants.CatalogTrending,
			Name: "Trending",
			Extra: []models.ExtraField{
				{Name: services.ExtraGenre, Options: constants.Genres},
				{Name: services.ExtraSkip},
			},
		},
		{
			Type: "series",
			ID:   constants.CatalogSearch,
			Name: "Search",
			Extra: []models.ExtraField{
				{Name: services.ExtraSearch, IsRequired: true},
				{Name: services.ExtraSkip},
			},
		},
	}
}
