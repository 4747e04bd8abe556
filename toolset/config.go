// Package toolset provides the built-in tool executors: web search, content
// retrieval, geocoding and places lookup, weather, translation, and code
// execution. Executors hold no mutable state across calls; provider
// credentials are injected once at construction, never read from globals.
package toolset

// Providers carries endpoint and credential configuration for every external
// provider the executors call. Constructed once in cmd and injected.
type Providers struct {
	SearchBaseURL    string `json:"search_base_url,omitempty"`
	SearchAPIKey     string `json:"search_api_key,omitempty"`
	MapsBaseURL      string `json:"maps_base_url,omitempty"`
	MapsAPIKey       string `json:"maps_api_key,omitempty"`
	WeatherBaseURL   string `json:"weather_base_url,omitempty"`
	WeatherAPIKey    string `json:"weather_api_key,omitempty"`
	TranslateBaseURL string `json:"translate_base_url,omitempty"`
	TranslateAPIKey  string `json:"translate_api_key,omitempty"`
}

// DefaultProviders returns the production provider endpoints.
func DefaultProviders() Providers {
	return Providers{
		SearchBaseURL:    "https://api.tavily.com",
		MapsBaseURL:      "https://maps.googleapis.com/maps/api",
		WeatherBaseURL:   "https://api.openweathermap.org/data/2.5",
		TranslateBaseURL: "https://translation.googleapis.com/language/translate/v2",
	}
}

// Merge applies non-zero values from source into p.
func (p *Providers) Merge(source *Providers) {
	if source.SearchBaseURL != "" {
		p.SearchBaseURL = source.SearchBaseURL
	}
	if source.SearchAPIKey != "" {
		p.SearchAPIKey = source.SearchAPIKey
	}
	if source.MapsBaseURL != "" {
		p.MapsBaseURL = source.MapsBaseURL
	}
	if source.MapsAPIKey != "" {
		p.MapsAPIKey = source.MapsAPIKey
	}
	if source.WeatherBaseURL != "" {
		p.WeatherBaseURL = source.WeatherBaseURL
	}
	if source.WeatherAPIKey != "" {
		p.WeatherAPIKey = source.WeatherAPIKey
	}
	if source.TranslateBaseURL != "" {
		p.TranslateBaseURL = source.TranslateBaseURL
	}
	if source.TranslateAPIKey != "" {
		p.TranslateAPIKey = source.TranslateAPIKey
	}
}
