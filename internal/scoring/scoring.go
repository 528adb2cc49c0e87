// Package scoring computes risk and opportunity scores for tree nodes.
package scoring

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/raphaelgruber/branchcast/internal/models"
	"gopkg.in/yaml.v3"
)

// MaxScore is the upper bound of both scores.
const MaxScore = 100.0

// DefaultWeight applies to factor categories without a configured weight.
const DefaultWeight = 1.0

// Weights holds per-category factor weights.
type Weights struct {
	Default    float64            `yaml:"default"`
	Decay      *float64           `yaml:"decay"`
	Categories map[string]float64 `yaml:"categories"`
}

// LoadWeights reads a YAML weights file.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("read weights: %w", err)
	}
	var w Weights
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("parse weights: %w", err)
	}
	for cat, v := range w.Categories {
		if v < 0 {
			return Weights{}, fmt.Errorf("%w: weight for %q is negative", models.ErrInvalidConfiguration, cat)
		}
	}
	if w.Decay != nil && (*w.Decay < 0 || *w.Decay > 1) {
		return Weights{}, fmt.Errorf("%w: decay %v outside [0,1]", models.ErrInvalidConfiguration, *w.Decay)
	}
	return w, nil
}

// Scores is a node's risk/opportunity pair.
type Scores struct {
	Risk        float64
	Opportunity float64
}

// Scorer applies weights and depth decay. It is immutable and safe for
// concurrent use.
type Scorer struct {
	weights     map[string]float64
	def         float64
	decay       float64
	risk        bool
	opportunity bool
}

// NewScorer merges file weights with request overrides. Request values win;
// decay falls back to the file and then to models.DefaultScoreDecay.
func NewScorer(req models.GenerateRequest, base Weights) Scorer {
	req = req.WithDefaults()

	s := Scorer{
		weights:     make(map[string]float64, len(base.Categories)+len(req.FactorWeights)),
		def:         DefaultWeight,
		decay:       models.DefaultScoreDecay,
		risk:        req.IncludeRiskAnalysis,
		opportunity: req.IncludeOpportunityAnalysis,
	}
	if base.Default > 0 {
		s.def = base.Default
	}
	switch {
	case req.ScoreDecay != nil:
		s.decay = *req.ScoreDecay
	case base.Decay != nil:
		s.decay = *base.Decay
	}
	for cat, w := range base.Categories {
		s.weights[normalizeCategory(cat)] = w
	}
	for cat, w := range req.FactorWeights {
		s.weights[normalizeCategory(cat)] = w
	}
	return s
}

// Weight returns the weight used for a category.
func (s Scorer) Weight(category string) float64 {
	if w, ok := s.weights[normalizeCategory(category)]; ok {
		return w
	}
	return s.def
}

// Score blends the parent's scores, decayed, with the weighted severities of
// the node's own factors, clipped to [0,100]. It also returns the per-factor
// contributions that went into the new part of the score.
func (s Scorer) Score(parent Scores, factors []models.Factor) (Scores, []models.FactorContribution) {
	var rawRisk, rawOpp float64
	contribs := make([]models.FactorContribution, 0, len(factors))

	for _, f := range factors {
		switch f.Direction {
		case models.DirectionNegative:
			if !s.risk {
				continue
			}
		case models.DirectionPositive:
			if !s.opportunity {
				continue
			}
		default:
			continue
		}

		c := s.Weight(f.Category) * f.Severity
		if f.Direction == models.DirectionNegative {
			rawRisk += c
		} else {
			rawOpp += c
		}
		contribs = append(contribs, models.FactorContribution{
			Category:     f.Category,
			Direction:    f.Direction,
			Severity:     f.Severity,
			Contribution: c,
		})
	}

	out := Scores{}
	if s.risk {
		out.Risk = clip(s.decay*parent.Risk + rawRisk)
	}
	if s.opportunity {
		out.Opportunity = clip(s.decay*parent.Opportunity + rawOpp)
	}
	return out, contribs
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

func clip(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, MaxScore)
}
