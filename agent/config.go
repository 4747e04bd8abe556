package agent

import "errors"

const (
	defaultProvider = "openai"
	defaultBaseURL  = "https://api.openai.com/v1"
)

// Config holds generation-provider connection and sampling parameters.
type Config struct {
	Provider string         `json:"provider,omitempty"`
	BaseURL  string         `json:"base_url,omitempty"`
	APIKey   string         `json:"api_key,omitempty"`
	Model    string         `json:"model"`
	Options  map[string]any `json:"options,omitempty"` // sampling parameters, merged into each request
}

// DefaultConfig returns a Config pointing at the default provider endpoint.
func DefaultConfig() Config {
	return Config{
		Provider: defaultProvider,
		BaseURL:  defaultBaseURL,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Provider != "" {
		c.Provider = source.Provider
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if len(source.Options) > 0 {
		c.Options = source.Options
	}
}

// Validate checks that the config names a model and an endpoint.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("agent config is nil")
	}
	if c.Model == "" {
		return errors.New("agent config: model is required")
	}
	if c.BaseURL == "" {
		return errors.New("agent config: base_url is required")
	}
	return nil
}
