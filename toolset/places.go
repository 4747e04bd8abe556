package toolset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/tools"
)

const (
	defaultPlacesRadius = 3000
	maxPlacesRadius     = 50000
	maxPlacesResults    = 5
)

// PlacesExecutor implements the nearby_search tool: a two-stage geocode
// then places query against a maps provider.
type PlacesExecutor struct {
	client *Client
	cfg    Providers
}

// NewPlacesExecutor creates a geocode+places executor.
func NewPlacesExecutor(hc *Client, cfg Providers) *PlacesExecutor {
	return &PlacesExecutor{client: hc, cfg: cfg}
}

// Definition returns the nearby_search tool descriptor.
func (e *PlacesExecutor) Definition() protocol.Tool {
	return protocol.Tool{
		Name:        "nearby_search",
		Description: "Find places of a given type near a free-text location.",
		SideEffect:  protocol.SideEffectReadOnly,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "Free-text location to search around, e.g. a city name.",
				},
				"type": map[string]any{
					"type":        "string",
					"description": "Place category, e.g. cafe, restaurant, museum.",
				},
				"keyword": map[string]any{
					"type":        "string",
					"description": "Optional keyword to narrow results.",
				},
				"radius": map[string]any{
					"type":        "number",
					"description": "Search radius in meters, clamped to 50000.",
				},
			},
			"required": []string{"location", "type"},
		},
	}
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is one normalized places result.
type Place struct {
	Name     string      `json:"name"`
	Address  string      `json:"vicinity"`
	Rating   float64     `json:"rating,omitempty"`
	PlaceID  string      `json:"place_id"`
	Location Coordinates `json:"location"`
}

// PlacesOutput is the nearby_search result payload.
type PlacesOutput struct {
	Results          []Place     `json:"results"`
	Center           Coordinates `json:"center"`
	FormattedAddress string      `json:"formatted_address"`
}

type geocodeResponse struct {
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status string `json:"status"`
}

type nearbyResponse struct {
	Results []struct {
		Name     string  `json:"name"`
		Vicinity string  `json:"vicinity"`
		Rating   float64 `json:"rating"`
		PlaceID  string  `json:"place_id"`
		Geometry struct {
			Location Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status string `json:"status"`
}

// Handle executes a validated nearby_search call. Zero geocoding hits yield
// a structured error, never a crash.
func (e *PlacesExecutor) Handle(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
	var args struct {
		Location string  `json:"location"`
		Type     string  `json:"type"`
		Keyword  string  `json:"keyword"`
		Radius   float64 `json:"radius"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Errorf("invalid arguments: %v", err), nil
	}
	if args.Radius <= 0 {
		args.Radius = defaultPlacesRadius
	}
	if args.Radius > maxPlacesRadius {
		args.Radius = maxPlacesRadius
	}

	center, address, err := e.geocode(ctx, args.Location)
	if err != nil {
		return tools.Errorf("%v", err), nil
	}

	query := url.Values{}
	query.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lng))
	query.Set("radius", fmt.Sprintf("%.0f", args.Radius))
	query.Set("type", args.Type)
	if args.Keyword != "" {
		query.Set("keyword", args.Keyword)
	}
	query.Set("key", e.cfg.MapsAPIKey)

	var nearby nearbyResponse
	if err := e.client.getJSON(ctx, e.cfg.MapsBaseURL+"/place/nearbysearch/json?"+query.Encode(), &nearby); err != nil {
		return tools.Errorf("places lookup failed: %v", err), nil
	}

	out := PlacesOutput{
		Center:           center,
		FormattedAddress: address,
		Results:          make([]Place, 0, maxPlacesResults),
	}
	for _, r := range nearby.Results {
		if len(out.Results) == maxPlacesResults {
			break
		}
		out.Results = append(out.Results, Place{
			Name:     r.Name,
			Address:  r.Vicinity,
			Rating:   r.Rating,
			PlaceID:  r.PlaceID,
			Location: r.Geometry.Location,
		})
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Result{Content: string(payload)}, nil
}

// geocode resolves a free-text location to coordinates and a formatted
// address.
func (e *PlacesExecutor) geocode(ctx context.Context, location string) (Coordinates, string, error) {
	query := url.Values{}
	query.Set("address", location)
	query.Set("key", e.cfg.MapsAPIKey)

	var resp geocodeResponse
	if err := e.client.getJSON(ctx, e.cfg.MapsBaseURL+"/geocode/json?"+query.Encode(), &resp); err != nil {
		return Coordinates{}, "", fmt.Errorf("geocoding failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return Coordinates{}, "", fmt.Errorf("no geocoding results for %q", location)
	}

	first := resp.Results[0]
	return first.Geometry.Location, first.FormattedAddress, nil
}
