package session

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
)

type memorySession struct {
	id       string
	messages []protocol.Message
	mu       sync.RWMutex
}

// New creates a Session backed by an in-memory slice, assigned a UUIDv7
// identifier. Seed messages, if any, become the initial history.
func New(seed ...protocol.Message) Session {
	return &memorySession{
		id:       uuid.Must(uuid.NewV7()).String(),
		messages: slices.Clone(seed),
	}
}

func (s *memorySession) ID() string {
	return s.id
}

func (s *memorySession) AddMessage(msg protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

func (s *memorySession) Messages() []protocol.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]protocol.Message, len(s.messages))
	for i, msg := range s.messages {
		copied[i] = msg
		copied[i].ToolCalls = slices.Clone(msg.ToolCalls)
		copied[i].Attachments = slices.Clone(msg.Attachments)
	}
	return copied
}

func (s *memorySession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
