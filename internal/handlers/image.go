package handlers

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocatalog/internal/cache"
	"github.com/amaumene/gostremiocatalog/internal/constants"
	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
)

// handleImage serves poster, background and thumbnail bytes through the
// image proxy. The id is a slug, or "<slug>:<videoID>" for thumbnails.
func (h *Handler) handleImage(c *gin.Context) {
	stripExtension(c, "id", ".jpg", ".jpeg", ".png", ".webp", ".json")

	imageType := c.Param("type")
	imageID := c.Param("id")
	if !slices.Contains(constants.ImageTypes, imageType) || imageID == "" {
		c.Status(http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout)
	defer cancel()

	source, err := h.services.Meta.ArtworkURL(ctx, imageType, imageID)
	if err != nil {
		h.writeImageError(c, imageType, imageID, err)
		return
	}

	image, err := h.services.Images.Fetch(ctx, cache.ImageIdentifier(imageID, imageType), source)
	if err != nil {
		h.writeImageError(c, imageType, imageID, err)
		return
	}

	maxAge := constants.ImageTTL
	if h.config != nil {
		maxAge = h.config.CacheTTLImage.Std()
	}
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
	c.Data(http.StatusOK, image.ContentType, image.Bytes)
}

func (h *Handler) writeImageError(c *gin.Context, imageType, imageID string, err error) {
	switch {
	case apperrors.IsNotFound(err):
		c.Status(http.StatusNotFound)
	case apperrors.IsType(err, apperrors.ErrorTypeInvalidInput):
		c.Status(http.StatusBadRequest)
	default:
		h.services.Logger.Warnf("[ImageHandler] failed to serve %s %s: %v", imageType, imageID, err)
		c.Status(http.StatusBadGateway)
	}
}
