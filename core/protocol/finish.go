package protocol

// FinishReason explains why a conversation stream ended.
type FinishReason string

const (
	// FinishStop: the model produced a final text response.
	FinishStop FinishReason = "stop"
	// FinishLength: generation hit the provider's token limit.
	FinishLength FinishReason = "length"
	// FinishBudget: the step or wall-clock budget ran out; the partial text
	// already streamed is the final output. Not an error.
	FinishBudget FinishReason = "budget-exhausted"
	// FinishError: an infrastructure failure aborted the turn.
	FinishError FinishReason = "error"
)

// Terminal reports whether the reason ends the stream without error.
func (r FinishReason) Terminal() bool {
	return r == FinishStop || r == FinishLength || r == FinishBudget
}
