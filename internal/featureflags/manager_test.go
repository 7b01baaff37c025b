package featureflags

import "testing"

func TestDefaults(t *testing.T) {
	m := NewManager("")

	if !m.Enabled(IndexCache, 0) {
		t.Fatal("index cache should be on by default")
	}
	if !m.Enabled(Signup, 0) {
		t.Fatal("signup should be on by default")
	}
	if m.Enabled("unknown", 1) {
		t.Fatal("unknown flags are off")
	}
}

func TestOverrides(t *testing.T) {
	m := NewManager("INDEX_CACHE=off, signup = false")

	if m.Enabled(IndexCache, 0) || m.Enabled(Signup, 0) {
		t.Fatal("configured values must override defaults")
	}
}

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%")

	if !m.Enabled("always", 1) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", 1) {
		t.Fatal("0% rollout should always be disabled")
	}

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}

	if m.Enabled("canary", 0) {
		t.Fatal("percentage rollout requires a signed-in user")
	}
}

func TestString(t *testing.T) {
	m := NewManager(" bad ,signup=20%")

	if got, want := m.String(), "index_cache=on,signup=20%"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager
	if m.Enabled(IndexCache, 1) {
		t.Fatal("nil manager enables nothing")
	}
}
