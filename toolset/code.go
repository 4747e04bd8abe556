package toolset

import (
	"context"
	"encoding/json"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/sandbox"
	"github.com/zaidmukaddam/miniperplx-sub000/tools"
)

// CodeExecutor implements the programming tool by delegating to the sandbox
// manager. It is the only resource-mutating executor: each call provisions
// compute and may write artifacts.
type CodeExecutor struct {
	manager *sandbox.Manager
}

// NewCodeExecutor creates a code execution executor over the given manager.
func NewCodeExecutor(manager *sandbox.Manager) *CodeExecutor {
	return &CodeExecutor{manager: manager}
}

// Definition returns the programming tool descriptor.
func (e *CodeExecutor) Definition() protocol.Tool {
	return protocol.Tool{
		Name:        "programming",
		Description: "Execute Python code in an isolated sandbox. Print statements and rendered charts are captured.",
		SideEffect:  protocol.SideEffectMutating,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "The code to execute.",
				},
			},
			"required": []string{"code"},
		},
	}
}

// Handle executes a validated programming call. In-code errors come back as
// message text; only sandbox or storage infrastructure failures are errors.
func (e *CodeExecutor) Handle(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
	var args struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Errorf("invalid arguments: %v", err), nil
	}

	out, err := e.manager.Execute(ctx, args.Code)
	if err != nil {
		return tools.Result{}, err
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Result{Content: string(payload)}, nil
}
