package session_test

import (
	"testing"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/session"
)

func TestNew_SeedsHistory(t *testing.T) {
	sess := session.New(
		protocol.NewMessage(protocol.RoleSystem, "be helpful"),
		protocol.NewMessage(protocol.RoleUser, "hi"),
	)

	if sess.ID() == "" {
		t.Error("ID() is empty")
	}
	messages := sess.Messages()
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Role != protocol.RoleSystem || messages[1].Role != protocol.RoleUser {
		t.Errorf("roles = %s, %s", messages[0].Role, messages[1].Role)
	}
}

func TestIDs_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := session.New().ID()
		if seen[id] {
			t.Fatalf("duplicate session id %s", id)
		}
		seen[id] = true
	}
}

func TestAddMessage_AppendOnlyOrder(t *testing.T) {
	sess := session.New()
	sess.AddMessage(protocol.NewMessage(protocol.RoleUser, "first"))
	sess.AddMessage(protocol.Message{
		Role:      protocol.RoleAssistant,
		ToolCalls: []protocol.ToolCall{{ID: "c1", Name: "web_search", Arguments: "{}"}},
	})
	sess.AddMessage(protocol.Message{Role: protocol.RoleTool, Content: "result", ToolCallID: "c1"})

	messages := sess.Messages()
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	if messages[2].ToolCallID != messages[1].ToolCalls[0].ID {
		t.Error("tool result does not correlate with its request")
	}
}

func TestMessages_ReturnsDefensiveCopy(t *testing.T) {
	sess := session.New()
	sess.AddMessage(protocol.Message{
		Role:      protocol.RoleAssistant,
		ToolCalls: []protocol.ToolCall{{ID: "c1", Name: "web_search"}},
	})

	snapshot := sess.Messages()
	snapshot[0].Content = "mutated"
	snapshot[0].ToolCalls[0].Name = "mutated"

	fresh := sess.Messages()
	if fresh[0].Content == "mutated" {
		t.Error("mutating the snapshot altered session history")
	}
	if fresh[0].ToolCalls[0].Name == "mutated" {
		t.Error("mutating snapshot tool calls altered session history")
	}
}

func TestClear(t *testing.T) {
	sess := session.New(protocol.NewMessage(protocol.RoleUser, "hi"))
	id := sess.ID()

	sess.Clear()
	if len(sess.Messages()) != 0 {
		t.Error("Clear() left messages behind")
	}
	if sess.ID() != id {
		t.Error("Clear() changed the session id")
	}
}
