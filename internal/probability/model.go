// Package probability converts historical evidence into edge probabilities.
//
// The three strategies form a closed set selected by models.ProbabilityModel.
// Every strategy is a pure function of its EstimateContext; the Monte Carlo
// variant draws only from the generator carried in that context.
package probability

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/raphaelgruber/branchcast/internal/models"
)

// MinEstimate is the floor applied so every estimate stays in (0,1].
const MinEstimate = 1e-6

// Observation is one historical transition matching a candidate.
type Observation struct {
	Frequency   float64
	Occurrences int
	Age         int // 0 = most recent extract entry
}

// EstimateContext bundles the evidence for one candidate transition.
type EstimateContext struct {
	Signature       string
	Observations    []Observation
	BranchingFactor int

	// Prior is an explicit configured probability; when set it is returned as is.
	Prior *float64

	// Rand is the seeded generator for the Monte Carlo strategy.
	Rand *rand.Rand
}

// Model is the configured estimation strategy.
type Model struct {
	kind   models.ProbabilityModel
	decay  float64
	alpha  float64
	beta   float64
	trials int
}

// NewModel builds the strategy named by the request.
func NewModel(req models.GenerateRequest) (Model, error) {
	req = req.WithDefaults()
	m := Model{
		kind:   req.ProbabilityModel,
		decay:  *req.RecencyDecay,
		alpha:  req.BayesAlpha,
		beta:   req.BayesBeta,
		trials: req.MonteCarloTrials,
	}
	switch m.kind {
	case models.ModelWeightedAverage, models.ModelBayesian, models.ModelMonteCarlo:
		return m, nil
	default:
		return Model{}, fmt.Errorf("%w: unknown probability model %q", models.ErrInvalidConfiguration, req.ProbabilityModel)
	}
}

// Kind returns the strategy tag.
func (m Model) Kind() models.ProbabilityModel {
	return m.kind
}

// NeedsRand reports whether Estimate reads EstimateContext.Rand.
func (m Model) NeedsRand() bool {
	return m.kind == models.ModelMonteCarlo
}

// Estimate returns the probability of the candidate transition, in (0,1].
func (m Model) Estimate(c EstimateContext) float64 {
	if c.Prior != nil {
		return clamp(*c.Prior)
	}
	switch m.kind {
	case models.ModelBayesian:
		return clamp(m.bayesian(c))
	case models.ModelMonteCarlo:
		return m.monteCarlo(c)
	default:
		return clamp(m.weightedAverage(c))
	}
}

// weightedAverage is Σ wᵢ·fᵢ / Σ wᵢ with weights decaying by recency.
func (m Model) weightedAverage(c EstimateContext) float64 {
	var num, den float64
	for _, o := range c.Observations {
		w := float64(weight(o)) * math.Pow(m.decay, float64(o.Age))
		num += w * o.Frequency
		den += w
	}
	if den == 0 {
		return uniform(c.BranchingFactor)
	}
	return num / den
}

// bayesian returns the Beta posterior mean after adding each observation's
// favorable and unfavorable mass.
func (m Model) bayesian(c EstimateContext) float64 {
	alpha, beta := m.alpha, m.beta
	for _, o := range c.Observations {
		n := float64(weight(o))
		alpha += o.Frequency * n
		beta += (1 - o.Frequency) * n
	}
	if alpha+beta == 0 {
		return uniform(c.BranchingFactor)
	}
	return alpha / (alpha + beta)
}

// monteCarlo samples observations in proportion to their occurrences and
// counts how often the sampled transition fires.
func (m Model) monteCarlo(c EstimateContext) float64 {
	floor := 1 / float64(2*m.trials)
	if len(c.Observations) == 0 || c.Rand == nil {
		return clamp(uniform(c.BranchingFactor))
	}

	total := 0
	for _, o := range c.Observations {
		total += weight(o)
	}

	hits := 0
	for range m.trials {
		pick := c.Rand.IntN(total)
		var obs Observation
		for _, o := range c.Observations {
			if pick < weight(o) {
				obs = o
				break
			}
			pick -= weight(o)
		}
		if c.Rand.Float64() < obs.Frequency {
			hits++
		}
	}

	p := float64(hits) / float64(m.trials)
	if p < floor {
		p = floor
	}
	return clamp(p)
}

func weight(o Observation) int {
	if o.Occurrences <= 0 {
		return 1
	}
	return o.Occurrences
}

func uniform(branching int) float64 {
	if branching <= 0 {
		branching = 1
	}
	return 1 / float64(branching)
}

func clamp(p float64) float64 {
	if math.IsNaN(p) || p < MinEstimate {
		return MinEstimate
	}
	if p > 1 {
		return 1
	}
	return p
}
