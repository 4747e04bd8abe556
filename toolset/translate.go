package toolset

import (
	"context"
	"encoding/json"

	"golang.org/x/text/language"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/tools"
)

// TranslateExecutor implements text_translate. Policy above the executor
// restricts use to user-requested translation; the executor itself is a
// plain provider adapter.
type TranslateExecutor struct {
	client *Client
	cfg    Providers
}

// NewTranslateExecutor creates a translation executor.
func NewTranslateExecutor(hc *Client, cfg Providers) *TranslateExecutor {
	return &TranslateExecutor{client: hc, cfg: cfg}
}

// Definition returns the text_translate tool descriptor.
func (e *TranslateExecutor) Definition() protocol.Tool {
	return protocol.Tool{
		Name:        "text_translate",
		Description: "Translate text to a target language. Only use when the user explicitly asks for a translation.",
		SideEffect:  protocol.SideEffectReadOnly,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The text to translate.",
				},
				"to": map[string]any{
					"type":        "string",
					"description": "Target language as a BCP 47 tag, e.g. fr or zh-Hans.",
				},
				"from": map[string]any{
					"type":        "string",
					"description": "Optional source language; detected when omitted.",
				},
			},
			"required": []string{"text", "to"},
		},
	}
}

// TranslateOutput is the text_translate result payload.
type TranslateOutput struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage string `json:"detectedLanguage"`
}

type providerTranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

// Handle executes a validated text_translate call.
func (e *TranslateExecutor) Handle(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
	var args struct {
		Text string `json:"text"`
		To   string `json:"to"`
		From string `json:"from"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Errorf("invalid arguments: %v", err), nil
	}

	target, err := language.Parse(args.To)
	if err != nil {
		return tools.Errorf("unknown target language %q: %v", args.To, err), nil
	}
	source := ""
	if args.From != "" {
		tag, err := language.Parse(args.From)
		if err != nil {
			return tools.Errorf("unknown source language %q: %v", args.From, err), nil
		}
		source = tag.String()
	}

	body := map[string]any{
		"q":      args.Text,
		"target": target.String(),
		"format": "text",
		"key":    e.cfg.TranslateAPIKey,
	}
	if source != "" {
		body["source"] = source
	}

	var resp providerTranslateResponse
	if err := e.client.postJSON(ctx, e.cfg.TranslateBaseURL, body, &resp); err != nil {
		return tools.Errorf("translation failed: %v", err), nil
	}
	if len(resp.Data.Translations) == 0 {
		return tools.Errorf("provider returned no translation"), nil
	}

	first := resp.Data.Translations[0]
	detected := first.DetectedSourceLanguage
	if detected == "" {
		detected = source
	}
	out := TranslateOutput{
		TranslatedText:   first.TranslatedText,
		DetectedLanguage: normalizeLanguage(detected),
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Result{Content: string(payload)}, nil
}
