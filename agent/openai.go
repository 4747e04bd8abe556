package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/core/response"
)

const defaultRequestTimeout = 120 * time.Second

// openAIAgent talks to any OpenAI-compatible chat-completions endpoint.
type openAIAgent struct {
	cfg    Config
	client *http.Client
}

func newOpenAIAgent(cfg *Config) *openAIAgent {
	return &openAIAgent{
		cfg:    *cfg,
		client: &http.Client{Timeout: defaultRequestTimeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []wireTool    `json:"tools,omitempty"`
	Stream   bool          `json:"stream,omitempty"`
}

type wireTool struct {
	Type     string        `json:"type"`
	Function protocol.Tool `json:"function"`
}

// wireMessage is a conversation message in the provider's request format.
// Content is a string for plain messages and a part array when the message
// carries attachments.
type wireMessage struct {
	Role       string              `json:"role"`
	Content    any                 `json:"content"`
	ToolCallID string              `json:"tool_call_id,omitempty"`
	ToolCalls  []protocol.ToolCall `json:"tool_calls,omitempty"`
}

type wirePart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireImageURL struct {
	URL string `json:"url"`
}

// wireMessages converts history to the provider format. Attachments become
// content parts: the text first, then one image_url part per image
// attachment. Non-image attachments are referenced by name and URL in a
// text part.
func wireMessages(messages []protocol.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wm := wireMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			ToolCalls:  m.ToolCalls,
		}
		if len(m.Attachments) > 0 {
			parts := make([]wirePart, 0, len(m.Attachments)+1)
			if m.Content != "" {
				parts = append(parts, wirePart{Type: "text", Text: m.Content})
			}
			for _, a := range m.Attachments {
				if a.ContentType == "" || strings.HasPrefix(a.ContentType, "image/") {
					parts = append(parts, wirePart{Type: "image_url", ImageURL: &wireImageURL{URL: a.URL}})
					continue
				}
				parts = append(parts, wirePart{Type: "text", Text: fmt.Sprintf("Attached file %s: %s", a.Name, a.URL)})
			}
			wm.Content = parts
		}
		out = append(out, wm)
	}
	return out
}

func (a *openAIAgent) buildBody(messages []protocol.Message, tools []protocol.Tool, stream bool, opts []map[string]any) ([]byte, error) {
	req := chatRequest{
		Model:    a.cfg.Model,
		Messages: wireMessages(messages),
		Stream:   stream,
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, wireTool{Type: "function", Function: t})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	// Fold sampling options (temperature, top_p, max_tokens, ...) into the
	// request object. Config options apply first, call options override.
	merged := map[string]any{}
	if err := json.Unmarshal(body, &merged); err != nil {
		return nil, err
	}
	for k, v := range a.cfg.Options {
		merged[k] = v
	}
	for _, opt := range opts {
		for k, v := range opt {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

func (a *openAIAgent) post(ctx context.Context, body []byte) (*http.Response, error) {
	url := strings.TrimRight(a.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return resp, nil
}

// streamChunk is one chat-completions SSE frame.
type streamChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *response.TokenUsage `json:"usage,omitempty"`
}

func (a *openAIAgent) StreamTools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool, onDelta DeltaFunc, opts ...map[string]any) (*response.ToolsResponse, error) {
	body, err := a.buildBody(messages, tools, true, opts)
	if err != nil {
		return nil, err
	}

	resp, err := a.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var (
		content      strings.Builder
		calls        []protocol.ToolCall
		finishReason string
		usage        *response.TokenUsage
		model        string
	)

	err = consumeSSE(ctx, resp.Body, func(data string) error {
		if data == "[DONE]" {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("failed to parse stream chunk: %w", err)
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			return nil
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finishReason = choice.FinishReason
		}
		if choice.Delta.Content != "" {
			content.WriteString(choice.Delta.Content)
			if onDelta != nil {
				if err := onDelta(choice.Delta.Content); err != nil {
					return err
				}
			}
		}

		// Tool-call arguments arrive fragmented across chunks, keyed by index.
		for _, tc := range choice.Delta.ToolCalls {
			for len(calls) <= tc.Index {
				calls = append(calls, protocol.ToolCall{})
			}
			if tc.ID != "" {
				calls[tc.Index].ID = tc.ID
			}
			if tc.Function.Name != "" {
				calls[tc.Index].Name = tc.Function.Name
			}
			calls[tc.Index].Arguments += tc.Function.Arguments
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	assembled := &response.ToolsResponse{Model: model, Usage: usage}
	var choice response.Choice
	choice.Message.Role = string(protocol.RoleAssistant)
	choice.Message.Content = content.String()
	choice.Message.ToolCalls = calls
	choice.FinishReason = finishReason
	assembled.Choices = append(assembled.Choices, choice)
	return assembled, nil
}

// consumeSSE parses a Server-Sent Events stream, invoking fn for each data
// payload. Comment lines and event names are skipped; the chat-completions
// stream carries everything in data fields.
func consumeSSE(ctx context.Context, r io.Reader, fn func(data string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		if err := fn(strings.TrimSpace(line[5:])); err != nil {
			return err
		}
	}
	return scanner.Err()
}
