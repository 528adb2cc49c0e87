package models

import (
	"testing"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "market", "market"},
		{"uppercase", "Market Entry", "market-entry"},
		{"underscores", "q3_supply_shock", "q3-supply-shock"},
		{"special chars stripped", "Rates, Up!", "rates-up"},
		{"numbers preserved", "plan-v2.1", "plan-v21"},
		{"empty string", "", ""},
		{"only special chars", "!@#$%", ""},
		{"unicode stripped", "café crème", "caf-crme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.in)
			if got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRecordIDString(t *testing.T) {
	id := surrealmodels.NewRecordID("outcome_map", "alpha")
	got, err := RecordIDString(id)
	if err != nil {
		t.Fatalf("RecordIDString failed: %v", err)
	}
	if got != "alpha" {
		t.Errorf("RecordIDString = %q, want %q", got, "alpha")
	}

	if _, err := RecordIDString(surrealmodels.NewRecordID("outcome_map", 42)); err == nil {
		t.Error("expected error for non-string ID")
	}
}

func TestSignature(t *testing.T) {
	tests := []struct {
		from, to, want string
	}{
		{"start", "growth", "start->growth"},
		{"", "growth", "*->growth"},
		{"*", "growth", "*->growth"},
		{" start ", " growth", "start->growth"},
	}
	for _, tt := range tests {
		if got := Signature(tt.from, tt.to); got != tt.want {
			t.Errorf("Signature(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTransitionMatches(t *testing.T) {
	exact := Transition{FromLabel: "start", ToLabel: "growth"}
	wild := Transition{FromLabel: "*", ToLabel: "shock"}
	blank := Transition{ToLabel: "shock"}

	if !exact.Matches("start") || exact.Matches("growth") {
		t.Error("exact transition should only match its own state")
	}
	if !wild.Matches("anything") || !blank.Matches("anything") {
		t.Error("wildcard transitions should match every state")
	}
}

func TestExtractInitialState(t *testing.T) {
	var nilExtract *Extract
	if got := nilExtract.InitialState(); got != DefaultInitialState {
		t.Errorf("nil extract initial state = %q", got)
	}
	e := &Extract{SeedContext: map[string]string{"initial_state": "launch"}}
	if got := e.InitialState(); got != "launch" {
		t.Errorf("InitialState = %q, want launch", got)
	}
}
