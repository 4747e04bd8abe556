package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zaidmukaddam/miniperplx-sub000/observability"
)

// Sandbox event types emitted during the execution lifecycle.
const (
	EventSessionCreate   observability.EventType = "sandbox.session.create"
	EventSessionTeardown observability.EventType = "sandbox.session.teardown"
	EventRunComplete     observability.EventType = "sandbox.run.complete"
	EventArtifactPersist observability.EventType = "sandbox.artifact.persist"
	EventArtifactDropped observability.EventType = "sandbox.artifact.dropped"
)

// Output is the tool-facing result of one code execution: concatenated text
// output in emission order plus the persisted image artifacts.
type Output struct {
	Message string     `json:"message"`
	Images  []Artifact `json:"images"`
}

// ArtifactPutter persists one image and returns its durable artifact.
// ArtifactStore is the production implementation.
type ArtifactPutter interface {
	Put(ctx context.Context, img Image) (Artifact, error)
}

// Manager drives the per-invocation state machine:
// create → run → collect → persist → teardown → return.
// One session per invocation; no pooling.
type Manager struct {
	runtime       Runtime
	store         ArtifactPutter
	observer      observability.Observer
	uploadTimeout time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) ManagerOption {
	return func(m *Manager) { m.observer = o }
}

// WithUploadTimeout overrides the per-artifact upload timeout.
func WithUploadTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.uploadTimeout = d }
}

// NewManager creates a Manager over the given runtime and artifact store.
func NewManager(runtime Runtime, store ArtifactPutter, opts ...ManagerOption) *Manager {
	m := &Manager{
		runtime:       runtime,
		store:         store,
		observer:      observability.NoOpObserver{},
		uploadTimeout: defaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute runs code in a fresh session and returns its output. Session
// provisioning and storage failures are infrastructure errors; everything
// the code itself does — including raising — comes back as Output data.
// The session is released on every exit path.
func (m *Manager) Execute(ctx context.Context, code string) (*Output, error) {
	sess, err := m.runtime.CreateSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to provision sandbox session: %w", err)
	}
	m.observer.OnEvent(ctx, observability.Event{
		Type:      EventSessionCreate,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "sandbox.Execute",
		Data:      map[string]any{"session": sess.ID()},
	})

	defer func() {
		// Teardown is unconditional, even after cancellation.
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if closeErr := sess.Close(closeCtx); closeErr != nil {
			m.observer.OnEvent(closeCtx, observability.Event{
				Type:      EventSessionTeardown,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    "sandbox.Execute",
				Data:      map[string]any{"session": sess.ID(), "error": closeErr.Error()},
			})
			return
		}
		m.observer.OnEvent(closeCtx, observability.Event{
			Type:      EventSessionTeardown,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "sandbox.Execute",
			Data:      map[string]any{"session": sess.ID()},
		})
	}()

	exec, err := sess.Run(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("sandbox run failed: %w", err)
	}

	m.observer.OnEvent(ctx, observability.Event{
		Type:      EventRunComplete,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "sandbox.Execute",
		Data: map[string]any{
			"session": sess.ID(),
			"images":  len(exec.Images),
			"errored": exec.Error != nil,
		},
	})

	out := &Output{
		Message: collectMessage(exec),
		Images:  make([]Artifact, 0, len(exec.Images)),
	}

	for _, img := range exec.Images {
		artifact, perr := m.persist(ctx, img)
		if perr != nil {
			// A slow or failed upload drops the artifact, never the result.
			m.observer.OnEvent(ctx, observability.Event{
				Type:      EventArtifactDropped,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    "sandbox.Execute",
				Data:      map[string]any{"session": sess.ID(), "error": perr.Error()},
			})
			continue
		}
		m.observer.OnEvent(ctx, observability.Event{
			Type:      EventArtifactPersist,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "sandbox.Execute",
			Data:      map[string]any{"session": sess.ID(), "url": artifact.URL},
		})
		out.Images = append(out.Images, artifact)
	}

	return out, nil
}

func (m *Manager) persist(ctx context.Context, img Image) (Artifact, error) {
	uploadCtx, cancel := context.WithTimeout(ctx, m.uploadTimeout)
	defer cancel()
	return m.store.Put(uploadCtx, img)
}

// collectMessage concatenates captured output in emission order: result
// text, stdout, stderr, then any in-code error trace.
func collectMessage(exec *Execution) string {
	var b strings.Builder
	for _, t := range exec.Text {
		b.WriteString(t)
		b.WriteByte('\n')
	}
	for _, line := range exec.Stdout {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, line := range exec.Stderr {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if exec.Error != nil {
		fmt.Fprintf(&b, "%s: %s\n%s\n", exec.Error.Name, exec.Error.Value, exec.Error.Traceback)
	}
	return strings.TrimRight(b.String(), "\n")
}
