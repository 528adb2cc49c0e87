package models

import "strings"

// WildcardLabel matches any state when used as a transition's FromLabel.
const WildcardLabel = "*"

// DefaultInitialState is the root label when the seed context names none.
const DefaultInitialState = "start"

// Factor is a qualitative driver attached to an observed transition.
type Factor struct {
	Category  string    `json:"category" yaml:"category" validate:"required,max=100"`
	Direction Direction `json:"direction" yaml:"direction" validate:"required,oneof=positive negative"`
	Severity  float64   `json:"severity" yaml:"severity" validate:"gte=0,lte=100"`
}

// Transition is one observed state change from the upstream simulation store.
type Transition struct {
	FromLabel         string   `json:"from" yaml:"from" validate:"max=200"`
	ToLabel           string   `json:"to" yaml:"to" validate:"required,max=200"`
	ObservedFrequency float64  `json:"observed_frequency" yaml:"observed_frequency" validate:"gte=0,lte=1"`
	Occurrences       int      `json:"occurrences,omitempty" yaml:"occurrences,omitempty" validate:"gte=0"`
	Trigger           string   `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Factors           []Factor `json:"factors,omitempty" yaml:"factors,omitempty" validate:"dive"`
}

// Signature identifies a transition type; duplicates are evidence for the
// same candidate.
func (t Transition) Signature() string {
	return Signature(t.FromLabel, t.ToLabel)
}

// Matches reports whether the transition can leave the given state.
func (t Transition) Matches(state string) bool {
	return t.FromLabel == "" || t.FromLabel == WildcardLabel || t.FromLabel == state
}

// Weight returns the observation count, treating an unset count as one.
func (t Transition) Weight() int {
	if t.Occurrences <= 0 {
		return 1
	}
	return t.Occurrences
}

// Signature builds the "from->to" key used for deduplication and priors.
func Signature(from, to string) string {
	if from == "" {
		from = WildcardLabel
	}
	return strings.TrimSpace(from) + "->" + strings.TrimSpace(to)
}

// Extract is the normalized input bundle consumed by the tree builder.
// Transitions are ordered oldest first.
type Extract struct {
	MapID       string            `json:"map_id,omitempty" yaml:"map_id,omitempty"`
	Transitions []Transition      `json:"transitions" yaml:"transitions" validate:"dive"`
	SeedContext map[string]string `json:"seed_context,omitempty" yaml:"seed_context,omitempty"`
}

// IsEmpty reports whether the extract carries no transitions.
func (e *Extract) IsEmpty() bool {
	return e == nil || len(e.Transitions) == 0
}

// InitialState returns the root label from the seed context.
func (e *Extract) InitialState() string {
	if e != nil {
		if s := strings.TrimSpace(e.SeedContext["initial_state"]); s != "" {
			return s
		}
	}
	return DefaultInitialState
}
