// Package response parses generation-provider output for the orchestrator.
package response

import (
	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
)

// TokenUsage reports token accounting from a provider response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates usage from another response into u.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Choice is one candidate completion from the provider.
type Choice struct {
	Index   int `json:"index"`
	Message struct {
		Role      string              `json:"role"`
		Content   string              `json:"content"`
		ToolCalls []protocol.ToolCall `json:"tool_calls,omitempty"`
	} `json:"message"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// ToolsResponse is a provider response to a tools (function calling)
// request: either text content or one-or-more tool call requests per choice.
type ToolsResponse struct {
	ID      string      `json:"id,omitempty"`
	Object  string      `json:"object,omitempty"`
	Created int64       `json:"created,omitempty"`
	Model   string      `json:"model"`
	Choices []Choice    `json:"choices"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}
