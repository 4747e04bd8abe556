package sandbox

import "time"

const defaultUploadTimeout = 2 * time.Second

// Config holds sandbox runtime and artifact storage parameters.
type Config struct {
	RuntimeURL      string `json:"runtime_url,omitempty"`
	RuntimeAPIKey   string `json:"runtime_api_key,omitempty"`
	StorageURL      string `json:"storage_url,omitempty"`       // afs destination, e.g. s3://bucket/outputs
	PublicBaseURL   string `json:"public_base_url,omitempty"`   // public prefix for returned artifact URLs
	UploadTimeoutMS int    `json:"upload_timeout_ms,omitempty"` // per-artifact upload bound
}

// DefaultConfig returns a Config with local temp storage and the default
// upload timeout.
func DefaultConfig() Config {
	return Config{
		StorageURL:      "file:///tmp/mplx-artifacts",
		UploadTimeoutMS: int(defaultUploadTimeout / time.Millisecond),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.RuntimeURL != "" {
		c.RuntimeURL = source.RuntimeURL
	}
	if source.RuntimeAPIKey != "" {
		c.RuntimeAPIKey = source.RuntimeAPIKey
	}
	if source.StorageURL != "" {
		c.StorageURL = source.StorageURL
	}
	if source.PublicBaseURL != "" {
		c.PublicBaseURL = source.PublicBaseURL
	}
	if source.UploadTimeoutMS > 0 {
		c.UploadTimeoutMS = source.UploadTimeoutMS
	}
}

// UploadTimeout returns the configured per-artifact upload bound.
func (c *Config) UploadTimeout() time.Duration {
	if c.UploadTimeoutMS <= 0 {
		return defaultUploadTimeout
	}
	return time.Duration(c.UploadTimeoutMS) * time.Millisecond
}
