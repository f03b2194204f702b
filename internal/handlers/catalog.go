package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocatalog/internal/constants"
	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
	"github.com/amaumene/gostremiocatalog/internal/models"
)

func (h *Handler) handleCatalog(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout)
	defer cancel()

	catalogType := c.Param("type")
	catalogID := c.Param("id")
	extra := catalogExtra(c)

	h.services.Logger.Infof("[CatalogHandler] processing catalog request - type: %s, id: %s, skip: %s",
		catalogType, catalogID, extra["skip"])

	metas, err := h.services.Catalog.GetCatalog(ctx, catalogID, extra)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeInvalidInput) {
			h.services.Logger.Warnf("[CatalogHandler] rejected catalog request: %v", err)
		} else {
			h.services.Logger.Errorf("[CatalogHandler] failed to fetch catalog: %v", err)
		}
		c.JSON(http.StatusOK, models.CatalogResponse{Metas: []models.Meta{}})
		return
	}

	base := publicBaseURL(c)
	out := make([]models.Meta, len(metas))
	for i := range metas {
		out[i] = metas[i]
		proxyArtwork(base, &out[i])
	}

	h.services.Logger.Infof("[CatalogHandler] returning %d items for %s/%s", len(out), catalogType, catalogID)
	c.JSON(http.StatusOK, models.CatalogResponse{Metas: out})
}

func (h *Handler) handleMeta(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout)
	defer cancel()

	metaType := c.Param("type")
	metaID := c.Param("id")

	h.services.Logger.Infof("[MetaHandler] fetching metadata - type: %s, id: %s", metaType, metaID)

	meta, err := h.services.Meta.GetMeta(ctx, metaID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			h.services.Logger.Errorf("[MetaHandler] failed to fetch metadata for %s: %v", metaID, err)
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Meta not found"})
		return
	}

	proxyArtwork(publicBaseURL(c), meta)
	c.JSON(http.StatusOK, models.MetaResponse{Meta: meta})
}
