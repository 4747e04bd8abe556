package toolset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/sandbox"
	"github.com/zaidmukaddam/miniperplx-sub000/tools"
)

// Groups maps tool-group selector names to the tool names each exposes.
// The server resolves the inbound request's group against this table.
var Groups = map[string][]string{
	"web": {
		"web_search", "retrieve", "nearby_search",
		"get_weather_data", "text_translate", "programming",
	},
	"search":   {"web_search", "retrieve"},
	"location": {"nearby_search", "get_weather_data"},
	"code":     {"programming"},
}

// Executor is the shape every built-in adapter satisfies: a descriptor plus
// a handler matching the registry contract.
type Executor interface {
	Definition() protocol.Tool
	Handle(ctx context.Context, args json.RawMessage) (tools.Result, error)
}

// RegisterAll registers every built-in executor on the registry. Provider
// credentials, the shared HTTP client, and the sandbox manager are injected
// here, once.
func RegisterAll(reg *tools.Registry, cfg Providers, manager *sandbox.Manager) error {
	for _, e := range buildExecutors(NewClient(), cfg, manager) {
		def := e.Definition()
		if err := reg.Register(def, e.Handle); err != nil {
			return fmt.Errorf("failed to register %s: %w", def.Name, err)
		}
	}
	return nil
}

// buildExecutors constructs every built-in executor over one shared provider
// client, so a burst of concurrent tool calls in a single turn is bounded by
// a single rate limiter.
func buildExecutors(hc *Client, cfg Providers, manager *sandbox.Manager) []Executor {
	return []Executor{
		NewSearchExecutor(hc, cfg),
		NewRetrieveExecutor(hc, cfg),
		NewPlacesExecutor(hc, cfg),
		NewWeatherExecutor(hc, cfg),
		NewTranslateExecutor(hc, cfg),
		NewCodeExecutor(manager),
	}
}
