package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocatalog/internal/constants"
	"github.com/amaumene/gostremiocatalog/internal/models"
	"github.com/amaumene/gostremiocatalog/pkg/security"
)

func (h *Handler) handleStream(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout)
	defer cancel()

	id := c.Param("id")
	creds := h.credentials(c)

	account := "anonymous"
	if creds != nil {
		account = security.MaskEmail(creds.Email)
	}
	h.services.Logger.Infof("[StreamHandler] processing %s request - %s (%s)", c.Param("type"), id, account)

	streams, err := h.services.Stream.GetStreams(ctx, id, creds)
	if err != nil {
		h.services.Logger.Errorf("[StreamHandler] failed to get streams for %s: %v", id, err)
		c.JSON(http.StatusOK, models.StreamResponse{Streams: []models.Stream{}})
		return
	}

	c.JSON(http.StatusOK, models.StreamResponse{Streams: streams})
}
