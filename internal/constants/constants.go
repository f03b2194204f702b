// Package constants defines application-wide constants and default values.
package constants

const (
	// Addon metadata
	AddonID          = "gostremiocatalog.stremio.addon"
	AddonVersion     = "1.2.0"
	AddonName        = "GoStremioCatalog"
	AddonDescription = "Catalog, metadata and streams from the upstream video platform, cached and deduplicated"

	// IDPrefix prefixes every meta id served by the addon.
	IDPrefix = "gsc"

	// Default configuration values
	DefaultPort           = "7000"
	DefaultLogLevel       = "info"
	DefaultUpstreamBase   = "https://api.upstream.example"
	DefaultCacheMaxItems  = 5000
	DefaultUpstreamRate   = 10 // requests per second
	DefaultUpstreamBurst  = 5
	DefaultInboundRate    = 5 // requests per second per IP
	DefaultInboundBurst   = 20
	DefaultCatalogPerPage = 24
)

// Cache key namespaces
const (
	KeyPrefixCatalog     = "catalog"
	KeyPrefixMeta        = "meta"
	KeyPrefixStream      = "stream"
	KeyPrefixImage       = "binary-images"
	KeyPrefixUserSession = "user-session"
)

// Catalog ids exposed in the manifest
const (
	CatalogNewest   = "newest"
	CatalogTrending = "trending"
	CatalogSearch   = "search"
)

// Genres lists the upstream tags offered as catalog genre filters.
var Genres = []string{
	"action",
	"adventure",
	"comedy",
	"drama",
	"fantasy",
	"horror",
	"mystery",
	"romance",
	"school life",
	"sci-fi",
	"slice of life",
	"sports",
	"supernatural",
	"thriller",
}

// ImageTypes are the artwork kinds the image proxy serves.
var ImageTypes = []string{"poster", "background", "thumbnail"}
