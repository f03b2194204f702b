// Package handlers implements HTTP request handlers for the Stremio addon API.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocatalog/internal/config"
	"github.com/amaumene/gostremiocatalog/internal/services"
)

// Handler handles HTTP requests for the Stremio addon.
type Handler struct {
	services *services.Container
	config   *config.Config
}

// New creates a new Handler with the provided services and configuration.
func New(services *services.Container, config *config.Config) *Handler {
	return &Handler{
		services: services,
		config:   config,
	}
}

// RegisterRoutes registers all HTTP routes for the Stremio addon.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// Home route
	r.GET("/", h.handleHome)
	r.GET("/health", h.handleHealth)

	// Configuration routes
	r.GET("/configure", h.handleConfig)
	r.GET("/:configuration/configure", h.handleConfig)

	// Manifest routes
	r.GET("/manifest.json", h.handleManifest)
	r.GET("/:configuration/manifest.json", h.handleManifest)

	// Catalog routes - handle both with and without .json in the handler
	r.GET("/:configuration/catalog/:type/:id", h.handleCatalogWrapper)
	r.GET("/:configuration/catalog/:type/:id/*extra", h.handleCatalogWrapper)

	// Meta routes
	r.GET("/:configuration/meta/:type/:id", h.handleMetaWrapper)

	// Stream routes
	r.GET("/:configuration/stream/:type/:id", h.handleStreamWrapper)

	// Artwork served through the image proxy
	r.GET("/image/:type/:id", h.handleImage)
}

func (h *Handler) handleHome(c *gin.Context) {
	c.String(200, "Welcome to GoStremioCatalog! Visit /configure to set up the addon.")
}

// Wrapper functions to handle .json extension
func (h *Handler) handleCatalogWrapper(c *gin.Context) {
	stripJSONExtension(c, "id")
	h.handleCatalog(c)
}

func (h *Handler) handleMetaWrapper(c *gin.Context) {
	stripJSONExtension(c, "id")
	h.handleMeta(c)
}

func (h *Handler) handleStreamWrapper(c *gin.Context) {
	stripJSONExtension(c, "id")
	h.handleStream(c)
}
