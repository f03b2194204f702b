package helpers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocatalog/pkg/security"
)

// ConfigParam is the route parameter holding the encoded user configuration.
const ConfigParam = "configuration"

// UserConfig represents the per-user configuration embedded in addon URLs.
// Both fields empty means anonymous access.
type UserConfig struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HasCredentials reports whether the user configured an account.
func (c *UserConfig) HasCredentials() bool {
	return c != nil && c.Email != "" && c.Password != ""
}

// Encode returns the URL-safe form of the configuration.
func (c *UserConfig) Encode() string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// GetConfig decodes the configuration from the request path. A request
// without the parameter yields an empty configuration.
func GetConfig(c *gin.Context) (*UserConfig, error) {
	return DecodeConfig(c.Param(ConfigParam))
}

// DecodeConfig parses a base64 encoded JSON configuration. Standard and
// URL-safe alphabets are accepted, padded or not.
func DecodeConfig(encoded string) (*UserConfig, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return &UserConfig{}, nil
	}

	decoded, err := decodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration in URL: %v", err)
	}

	var config UserConfig
	if err := json.Unmarshal(decoded, &config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %v", err)
	}

	config.Email = security.SanitizeEmail(config.Email)
	if config.Email != "" && !security.IsValidEmail(config.Email) {
		return nil, fmt.Errorf("invalid email in configuration")
	}
	if (config.Email == "") != (config.Password == "") {
		return nil, fmt.Errorf("email and password must be provided together")
	}

	return &config, nil
}

func decodeBase64(s string) ([]byte, error) {
	var lastErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		decoded, err := enc.DecodeString(s)
		if err == nil {
			return decoded, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
