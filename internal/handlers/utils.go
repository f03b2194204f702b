package handlers

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocatalog/internal/models"
	"github.com/amaumene/gostremiocatalog/internal/services"
	"github.com/amaumene/gostremiocatalog/pkg/helpers"
)

// stripJSONExtension removes .json extension from a parameter if present
func stripJSONExtension(c *gin.Context, paramName string) {
	stripExtension(c, paramName, ".json")
}

func stripExtension(c *gin.Context, paramName string, suffixes ...string) {
	value := c.Param(paramName)
	for _, suffix := range suffixes {
		if !strings.HasSuffix(value, suffix) {
			continue
		}
		for i, param := range c.Params {
			if param.Key == paramName {
				c.Params[i].Value = strings.TrimSuffix(value, suffix)
				break
			}
		}
		return
	}
}

// catalogExtra merges the path-based extra ("search=one%20piece&skip=24.json")
// with the query string. Path values win.
func catalogExtra(c *gin.Context) map[string]string {
	extra := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			extra[key] = values[0]
		}
	}

	raw := strings.TrimSuffix(strings.TrimPrefix(c.Param("extra"), "/"), ".json")
	if raw == "" {
		return extra
	}
	parsed, err := url.ParseQuery(raw)
	if err != nil {
		return extra
	}
	for key, values := range parsed {
		if len(values) > 0 {
			extra[key] = values[0]
		}
	}
	return extra
}

// credentials returns the account configured in the URL, or nil for
// anonymous requests and unreadable configurations.
func (h *Handler) credentials(c *gin.Context) *services.Credentials {
	userConfig, err := helpers.GetConfig(c)
	if err != nil {
		h.services.Logger.Warnf("[Handler] ignoring user configuration: %v", err)
		return nil
	}
	if !userConfig.HasCredentials() {
		return nil
	}
	return &services.Credentials{Email: userConfig.Email, Password: userConfig.Password}
}

// publicBaseURL is the scheme and host clients used to reach the addon.
func publicBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}

	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host
}

func imageURL(base, imageType, imageID string) string {
	return base + "/image/" + imageType + "/" + url.PathEscape(imageID) + ".jpg"
}

// proxyArtwork points a meta's artwork at the image proxy. Entries without
// artwork are left untouched.
func proxyArtwork(base string, meta *models.Meta) {
	slug, _, ok := services.ParseID(meta.ID)
	if !ok {
		return
	}
	if meta.Poster != "" {
		meta.Poster = imageURL(base, "poster", slug)
	}
	if meta.Background != "" {
		meta.Background = imageURL(base, "background", slug)
	}
	for i := range meta.Videos {
		v := &meta.Videos[i]
		if v.Thumbnail == "" {
			continue
		}
		if vslug, videoID, ok := services.ParseID(v.ID); ok && videoID != "" {
			v.Thumbnail = imageURL(base, "thumbnail", vslug+":"+videoID)
		}
	}
}
