package testutil

import "testing"

// Given, When, Then and And keep scenario tests readable without pulling in a
// BDD framework. Each wraps a plain subtest with a labelled description.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	step(t, "Then", desc, fn)
}

func And(t *testing.T, desc string, fn func(t *testing.T)) {
	step(t, "And", desc, fn)
}

func step(t *testing.T, label, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(label+" "+desc, fn)
}
