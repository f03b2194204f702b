package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocatalog/internal/constants"
)

func (h *Handler) handleHealth(c *gin.Context) {
	tiers := []string{}
	if h.services.Cache != nil {
		tiers = h.services.Cache.Tiers()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": constants.AddonVersion,
		"cache":   tiers,
	})
}
