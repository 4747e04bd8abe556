package toolset

import (
	"context"
	"encoding/json"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/tools"
)

const (
	minSearchResults = 5
	newsRecencyDays  = 7
)

// SearchExecutor implements the web_search tool over a search provider API.
type SearchExecutor struct {
	client *Client
	cfg    Providers
}

// NewSearchExecutor creates a web search executor with injected credentials.
func NewSearchExecutor(hc *Client, cfg Providers) *SearchExecutor {
	return &SearchExecutor{client: hc, cfg: cfg}
}

// Definition returns the web_search tool descriptor.
func (e *SearchExecutor) Definition() protocol.Tool {
	return protocol.Tool{
		Name:        "web_search",
		Description: "Search the web for information on a topic. Supports news-scoped and deep search modes.",
		SideEffect:  protocol.SideEffectReadOnly,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query.",
				},
				"maxResults": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return. Values below 5 are raised to 5.",
				},
				"topic": map[string]any{
					"type": "string",
					"enum": []string{"general", "news"},
				},
				"searchDepth": map[string]any{
					"type": "string",
					"enum": []string{"basic", "advanced"},
				},
				"excludeDomains": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []string{"query"},
		},
	}
}

type searchArgs struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"maxResults"`
	Topic          string   `json:"topic"`
	SearchDepth    string   `json:"searchDepth"`
	ExcludeDomains []string `json:"excludeDomains"`
}

// SearchHit is one normalized search result.
type SearchHit struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	RawContent    string `json:"raw_content,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
}

// SearchImage is one normalized image result.
type SearchImage struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// SearchOutput is the web_search result payload.
type SearchOutput struct {
	Results []SearchHit   `json:"results"`
	Images  []SearchImage `json:"images"`
}

type providerSearchResponse struct {
	Results []struct {
		URL           string `json:"url"`
		Title         string `json:"title"`
		Content       string `json:"content"`
		RawContent    string `json:"raw_content"`
		PublishedDate string `json:"published_date"`
	} `json:"results"`
	Images []struct {
		URL         string `json:"url"`
		Description string `json:"description"`
	} `json:"images"`
}

// Handle executes a validated web_search call.
func (e *SearchExecutor) Handle(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
	var args searchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Errorf("invalid arguments: %v", err), nil
	}

	if args.MaxResults < minSearchResults {
		args.MaxResults = minSearchResults
	}
	if args.Topic == "" {
		args.Topic = "general"
	}
	if args.SearchDepth == "" {
		args.SearchDepth = "basic"
	}

	body := map[string]any{
		"api_key":                    e.cfg.SearchAPIKey,
		"query":                      args.Query,
		"topic":                      args.Topic,
		"search_depth":               args.SearchDepth,
		"max_results":                args.MaxResults,
		"include_images":             true,
		"include_image_descriptions": true,
		"exclude_domains":            args.ExcludeDomains,
	}
	if args.Topic == "news" {
		// News searches stay within a bounded recency window.
		body["days"] = newsRecencyDays
	}

	var resp providerSearchResponse
	if err := e.client.postJSON(ctx, e.cfg.SearchBaseURL+"/search", body, &resp); err != nil {
		return tools.Errorf("web search failed: %v", err), nil
	}

	out := SearchOutput{
		Results: make([]SearchHit, 0, len(resp.Results)),
		Images:  make([]SearchImage, 0, len(resp.Images)),
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, SearchHit{
			URL:           encodeURL(r.URL),
			Title:         r.Title,
			Content:       r.Content,
			RawContent:    r.RawContent,
			PublishedDate: r.PublishedDate,
		})
	}
	for _, img := range resp.Images {
		// Caption enrichment was requested; images without a usable
		// description carry no signal for the model and are dropped.
		if img.Description == "" {
			continue
		}
		out.Images = append(out.Images, SearchImage{
			URL:         encodeURL(img.URL),
			Description: img.Description,
		})
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Result{Content: string(payload)}, nil
}
