package agent_test

import (
	"errors"
	"testing"

	"github.com/zaidmukaddam/miniperplx-sub000/agent"
)

func validConfig() agent.Config {
	return agent.Config{Provider: "openai", BaseURL: "https://api.example.com/v1", Model: "m"}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := agent.NewRegistry()
	if err := reg.Register("fast", validConfig()); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	first, err := reg.Get("fast")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	second, err := reg.Get("fast")
	if err != nil {
		t.Fatalf("second Get() failed: %v", err)
	}
	if first != second {
		t.Error("Get() did not return the cached instance")
	}
}

func TestRegistry_Errors(t *testing.T) {
	reg := agent.NewRegistry()

	if err := reg.Register("", validConfig()); !errors.Is(err, agent.ErrEmptyName) {
		t.Errorf("empty name error = %v, want ErrEmptyName", err)
	}

	if err := reg.Register("dup", validConfig()); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register("dup", validConfig()); !errors.Is(err, agent.ErrAgentExists) {
		t.Errorf("duplicate error = %v, want ErrAgentExists", err)
	}

	if _, err := reg.Get("missing"); !errors.Is(err, agent.ErrAgentNotFound) {
		t.Errorf("missing error = %v, want ErrAgentNotFound", err)
	}
}

func TestRegistry_LazyValidation(t *testing.T) {
	reg := agent.NewRegistry()
	if err := reg.Register("broken", agent.Config{}); err != nil {
		t.Fatalf("Register() rejected config, want lazy validation: %v", err)
	}
	if _, err := reg.Get("broken"); err == nil {
		t.Error("Get() succeeded with invalid config")
	}
}

func TestRegistry_ReplaceInvalidatesCache(t *testing.T) {
	reg := agent.NewRegistry()
	if err := reg.Register("model", validConfig()); err != nil {
		t.Fatal(err)
	}
	before, err := reg.Get("model")
	if err != nil {
		t.Fatal(err)
	}

	replacement := validConfig()
	replacement.Model = "m2"
	if err := reg.Replace("model", replacement); err != nil {
		t.Fatalf("Replace() failed: %v", err)
	}

	after, err := reg.Get("model")
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Error("Replace() did not invalidate the cached instance")
	}

	if err := reg.Replace("missing", validConfig()); !errors.Is(err, agent.ErrAgentNotFound) {
		t.Errorf("Replace() missing error = %v, want ErrAgentNotFound", err)
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	reg := agent.NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(name, validConfig()); err != nil {
			t.Fatal(err)
		}
	}
	got := reg.List()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
