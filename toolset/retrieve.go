package toolset

import (
	"context"
	"encoding/json"
	"net/url"

	"golang.org/x/text/language"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/tools"
)

// RetrieveExecutor implements the retrieve tool: full-content extraction of
// a single URL via the search provider's extraction endpoint.
type RetrieveExecutor struct {
	client *Client
	cfg    Providers
}

// NewRetrieveExecutor creates a content retrieval executor.
func NewRetrieveExecutor(hc *Client, cfg Providers) *RetrieveExecutor {
	return &RetrieveExecutor{client: hc, cfg: cfg}
}

// Definition returns the retrieve tool descriptor.
func (e *RetrieveExecutor) Definition() protocol.Tool {
	return protocol.Tool{
		Name:        "retrieve",
		Description: "Retrieve the full content of a web page by URL.",
		SideEffect:  protocol.SideEffectReadOnly,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "The URL to retrieve content from.",
				},
			},
			"required": []string{"url"},
		},
	}
}

// RetrievedPage is one extracted document.
type RetrievedPage struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// RetrieveOutput is the retrieve result payload.
type RetrieveOutput struct {
	Results []RetrievedPage `json:"results"`
}

type providerExtractResponse struct {
	Results []struct {
		Title       string `json:"title"`
		RawContent  string `json:"raw_content"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Language    string `json:"language"`
	} `json:"results"`
	FailedResults []struct {
		URL   string `json:"url"`
		Error string `json:"error"`
	} `json:"failed_results"`
}

// Handle executes a validated retrieve call. Extraction failure is a
// structured error result, never a Go error.
func (e *RetrieveExecutor) Handle(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Errorf("invalid arguments: %v", err), nil
	}
	if _, err := url.ParseRequestURI(args.URL); err != nil {
		return tools.Errorf("invalid url %q: %v", args.URL, err), nil
	}

	body := map[string]any{
		"api_key": e.cfg.SearchAPIKey,
		"urls":    []string{args.URL},
	}

	var resp providerExtractResponse
	if err := e.client.postJSON(ctx, e.cfg.SearchBaseURL+"/extract", body, &resp); err != nil {
		return tools.Errorf("retrieval failed: %v", err), nil
	}
	if len(resp.Results) == 0 {
		if len(resp.FailedResults) > 0 {
			return tools.Errorf("extraction failed for %s: %s", args.URL, resp.FailedResults[0].Error), nil
		}
		return tools.Errorf("no content could be extracted from %s", args.URL), nil
	}

	first := resp.Results[0]
	out := RetrieveOutput{
		Results: []RetrievedPage{{
			Title:       first.Title,
			Content:     first.RawContent,
			URL:         encodeURL(first.URL),
			Description: first.Description,
			Language:    normalizeLanguage(first.Language),
		}},
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Result{Content: string(payload)}, nil
}

// normalizeLanguage canonicalizes a provider-reported language to a BCP 47
// tag; unparseable values pass through untouched.
func normalizeLanguage(detected string) string {
	if detected == "" {
		return ""
	}
	tag, err := language.Parse(detected)
	if err != nil {
		return detected
	}
	return tag.String()
}
