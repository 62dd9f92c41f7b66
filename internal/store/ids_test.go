package store

import "testing"

func TestDeriveIDIsStableAndAgentScoped(t *testing.T) {
	a := DeriveID("agent-a", "the same text")
	b := DeriveID("agent-a", "the same text")
	if a != b {
		t.Errorf("expected identical (agent, text) to derive the same id, got %q and %q", a, b)
	}

	c := DeriveID("agent-b", "the same text")
	if a == c {
		t.Error("expected different agents to derive different ids for the same text")
	}

	d := DeriveID("agent-a", "different text")
	if a == d {
		t.Error("expected different text to derive a different id")
	}
}
