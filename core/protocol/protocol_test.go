package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
)

func TestToolCall_UnmarshalNested(t *testing.T) {
	payload := `{"id":"call_1","type":"function","function":{"name":"web_search","arguments":"{\"query\":\"go\"}"}}`

	var tc protocol.ToolCall
	if err := json.Unmarshal([]byte(payload), &tc); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if tc.ID != "call_1" {
		t.Errorf("ID = %q, want %q", tc.ID, "call_1")
	}
	if tc.Name != "web_search" {
		t.Errorf("Name = %q, want %q", tc.Name, "web_search")
	}
	if tc.Arguments != `{"query":"go"}` {
		t.Errorf("Arguments = %q", tc.Arguments)
	}
}

func TestToolCall_UnmarshalFlat(t *testing.T) {
	payload := `{"id":"call_2","name":"retrieve","arguments":"{}"}`

	var tc protocol.ToolCall
	if err := json.Unmarshal([]byte(payload), &tc); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if tc.Name != "retrieve" {
		t.Errorf("Name = %q, want %q", tc.Name, "retrieve")
	}
}

func TestToolCall_RoundTrip(t *testing.T) {
	original := protocol.ToolCall{ID: "call_3", Name: "get_weather_data", Arguments: `{"lat":1}`}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	var decoded protocol.ToolCall
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip = %+v, want %+v", decoded, original)
	}
}

func TestFinishReason_Terminal(t *testing.T) {
	tests := []struct {
		reason protocol.FinishReason
		want   bool
	}{
		{protocol.FinishStop, true},
		{protocol.FinishLength, true},
		{protocol.FinishBudget, true},
		{protocol.FinishError, false},
	}

	for _, tt := range tests {
		if got := tt.reason.Terminal(); got != tt.want {
			t.Errorf("Terminal(%s) = %v, want %v", tt.reason, got, tt.want)
		}
	}
}

func TestTool_Mutating(t *testing.T) {
	readonly := protocol.Tool{Name: "web_search", SideEffect: protocol.SideEffectReadOnly}
	mutating := protocol.Tool{Name: "programming", SideEffect: protocol.SideEffectMutating}

	if readonly.Mutating() {
		t.Error("read-only tool reported as mutating")
	}
	if !mutating.Mutating() {
		t.Error("resource-mutating tool not reported as mutating")
	}
}
