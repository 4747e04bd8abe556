package orchestrator

import "github.com/zaidmukaddam/miniperplx-sub000/observability"

// Orchestrator event types emitted during the turn loop.
const (
	EventRunStart     observability.EventType = "orchestrator.run.start"
	EventTurnStart    observability.EventType = "orchestrator.turn.start"
	EventToolCall     observability.EventType = "orchestrator.tool.call"
	EventToolComplete observability.EventType = "orchestrator.tool.complete"
	EventResponse     observability.EventType = "orchestrator.response"
	EventBudget       observability.EventType = "orchestrator.budget.exhausted"
	EventError        observability.EventType = "orchestrator.error"
)
