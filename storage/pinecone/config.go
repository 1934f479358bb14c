package pinecone

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultControlPlaneURL is the Pinecone control plane endpoint.
	DefaultControlPlaneURL = "https://api.pinecone.io"

	// DefaultAPIVersion is sent in the X-Pinecone-API-Version header.
	DefaultAPIVersion = "2024-07"

	defaultTimeout    = 30 * time.Second
	fetchBatchSize    = 100
	maxErrorBodyBytes = 512
)

// Config configures a Pinecone store.
type Config struct {
	// APIKey authenticates every request.
	APIKey string

	// IndexName is used to resolve Host when Host is empty.
	IndexName string

	// Host is the index data plane URL, with or without scheme.
	Host string

	// ControlPlaneURL overrides DefaultControlPlaneURL.
	ControlPlaneURL string

	// APIVersion overrides DefaultAPIVersion.
	APIVersion string

	// Timeout bounds each HTTP request. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient replaces the default client.
	HTTPClient *http.Client
}

// Validate checks that the configuration can address an index.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("pinecone config: APIKey is required")
	}
	if c.Host == "" && c.IndexName == "" {
		return errors.New("pinecone config: Host or IndexName is required")
	}
	return nil
}

func (c *Config) normalize() {
	if c.ControlPlaneURL == "" {
		c.ControlPlaneURL = DefaultControlPlaneURL
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	c.ControlPlaneURL = strings.TrimSuffix(c.ControlPlaneURL, "/")
	if c.Host != "" {
		c.Host = normalizeHost(c.Host)
	}
}

// normalizeHost adds an https scheme when missing and drops trailing slashes.
func normalizeHost(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}
