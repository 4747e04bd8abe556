package toolset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/tools"
)

// WeatherExecutor implements get_weather_data: a multi-day forecast at a
// fixed 3-hour cadence. Shape normalization only; the provider payload
// passes through.
type WeatherExecutor struct {
	client *Client
	cfg    Providers
}

// NewWeatherExecutor creates a weather forecast executor.
func NewWeatherExecutor(hc *Client, cfg Providers) *WeatherExecutor {
	return &WeatherExecutor{client: hc, cfg: cfg}
}

// Definition returns the get_weather_data tool descriptor.
func (e *WeatherExecutor) Definition() protocol.Tool {
	return protocol.Tool{
		Name:        "get_weather_data",
		Description: "Get a multi-day weather forecast for coordinates, in 3-hour steps.",
		SideEffect:  protocol.SideEffectReadOnly,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"lat": map[string]any{
					"type":        "number",
					"description": "Latitude.",
				},
				"lon": map[string]any{
					"type":        "number",
					"description": "Longitude.",
				},
			},
			"required": []string{"lat", "lon"},
		},
	}
}

// Handle executes a validated get_weather_data call.
func (e *WeatherExecutor) Handle(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
	var args struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Errorf("invalid arguments: %v", err), nil
	}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", args.Lat))
	query.Set("lon", fmt.Sprintf("%f", args.Lon))
	query.Set("units", "metric")
	query.Set("appid", e.cfg.WeatherAPIKey)

	var forecast json.RawMessage
	if err := e.client.getJSON(ctx, e.cfg.WeatherBaseURL+"/forecast?"+query.Encode(), &forecast); err != nil {
		return tools.Errorf("weather lookup failed: %v", err), nil
	}

	return tools.Result{Content: string(forecast)}, nil
}
