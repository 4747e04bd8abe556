package tools

import (
	"encoding/json"
	"sync"
)

// TurnGuard is an argument-fingerprint set scoped to a single turn. It backs
// the optional duplicate-call policy: when the registry has dedup enabled,
// the orchestrator marks each dispatched call and skips repeats. A fresh
// guard is created per turn; fingerprints never outlive it.
type TurnGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewTurnGuard creates an empty guard for one turn.
func NewTurnGuard() *TurnGuard {
	return &TurnGuard{seen: make(map[string]bool)}
}

// Mark records the call and reports whether it was already present.
// Fingerprints canonicalize the argument JSON so key order is irrelevant.
func (g *TurnGuard) Mark(name string, args json.RawMessage) bool {
	fp := fingerprint(name, args)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.seen[fp] {
		return true
	}
	g.seen[fp] = true
	return false
}

func fingerprint(name string, args json.RawMessage) string {
	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return name + "\x00" + string(args)
	}
	// encoding/json sorts map keys, which canonicalizes object key order.
	canonical, err := json.Marshal(decoded)
	if err != nil {
		return name + "\x00" + string(args)
	}
	return name + "\x00" + string(canonical)
}
