// Package server exposes the conversation orchestrator over HTTP:
// POST /api/chat accepts a conversation and streams the orchestrator's event
// sequence back as Server-Sent Events.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/zaidmukaddam/miniperplx-sub000/agent"
	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/observability"
	"github.com/zaidmukaddam/miniperplx-sub000/orchestrator"
	"github.com/zaidmukaddam/miniperplx-sub000/session"
	"github.com/zaidmukaddam/miniperplx-sub000/stream"
	"github.com/zaidmukaddam/miniperplx-sub000/toolset"
	"github.com/zaidmukaddam/miniperplx-sub000/tools"
)

const pipeBufferSize = 64

// ChatRequest is the inbound conversation payload.
type ChatRequest struct {
	Messages []protocol.Message `json:"messages"`
	Model    string             `json:"model,omitempty"` // model selector; falls back to the configured default
	Group    string             `json:"group,omitempty"` // tool-group selector; falls back to the configured default
}

// Server routes chat requests into the orchestrator.
type Server struct {
	agents       *agent.Registry
	registry     *tools.Registry
	orcConfig    orchestrator.Config
	observer     observability.Observer
	defaultModel string
	defaultGroup string
}

// Option configures a Server.
type Option func(*Server)

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(s *Server) { s.observer = o }
}

// New creates a Server over the given model registry and tool registry.
func New(agents *agent.Registry, registry *tools.Registry, cfg *Config, opts ...Option) *Server {
	s := &Server{
		agents:       agents,
		registry:     registry,
		orcConfig:    cfg.Orchestrator,
		observer:     observability.NewSlogObserver(slog.Default()),
		defaultModel: cfg.DefaultModel,
		defaultGroup: cfg.DefaultGroup,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register mounts the server's routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages is required")
		return
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}
	eng, err := s.agents.Get(model)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown model: "+model)
		return
	}

	group := req.Group
	if group == "" {
		group = s.defaultGroup
	}
	names, ok := toolset.Groups[group]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown tool group: "+group)
		return
	}
	active := s.registry.Subset(names...)

	sess := session.New(req.Messages...)
	orc := orchestrator.New(eng, s.registry, &s.orcConfig, orchestrator.WithObserver(s.observer))

	// Client disconnect cancels r.Context(), which propagates to in-flight
	// generation and tool calls through the run context.
	pipe := stream.NewPipe(r.Context(), pipeBufferSize)
	go orc.Run(r.Context(), sess, active, pipe)

	if err := stream.WriteSSE(w, r, pipe); err != nil {
		s.observer.OnEvent(r.Context(), observability.Event{
			Type:      "server.stream.aborted",
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "server.handleChat",
			Data:      map[string]any{"error": err.Error()},
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
