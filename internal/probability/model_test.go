package probability

import (
	"errors"
	"testing"

	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T, kind models.ProbabilityModel, mutate ...func(*models.GenerateRequest)) Model {
	t.Helper()
	req := models.DefaultGenerateRequest()
	req.ProbabilityModel = kind
	for _, fn := range mutate {
		fn(&req)
	}
	m, err := NewModel(req)
	require.NoError(t, err)
	return m
}

func ptr[T any](v T) *T { return &v }

func TestNewModelRejectsUnknownKind(t *testing.T) {
	req := models.DefaultGenerateRequest()
	req.ProbabilityModel = "oracle"
	_, err := NewModel(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}

func TestWeightedAverage(t *testing.T) {
	t.Run("single observation returns its frequency", func(t *testing.T) {
		m := newModel(t, models.ModelWeightedAverage)
		p := m.Estimate(EstimateContext{Observations: []Observation{{Frequency: 0.4}}})
		assert.InDelta(t, 0.4, p, 1e-12)
	})

	t.Run("recent observations weigh more", func(t *testing.T) {
		m := newModel(t, models.ModelWeightedAverage, func(r *models.GenerateRequest) { r.RecencyDecay = ptr(0.5) })
		p := m.Estimate(EstimateContext{Observations: []Observation{
			{Frequency: 0.2, Age: 1},
			{Frequency: 0.8, Age: 0},
		}})
		// weights 0.5 and 1.0
		assert.InDelta(t, (0.5*0.2+0.8)/1.5, p, 1e-12)
	})

	t.Run("zero decay keeps only the newest observation", func(t *testing.T) {
		m := newModel(t, models.ModelWeightedAverage, func(r *models.GenerateRequest) { r.RecencyDecay = ptr(0.0) })
		p := m.Estimate(EstimateContext{Observations: []Observation{
			{Frequency: 0.2, Age: 1},
			{Frequency: 0.8, Age: 0},
		}})
		assert.InDelta(t, 0.8, p, 1e-12)
	})

	t.Run("occurrences scale weight", func(t *testing.T) {
		m := newModel(t, models.ModelWeightedAverage, func(r *models.GenerateRequest) { r.RecencyDecay = ptr(1.0) })
		p := m.Estimate(EstimateContext{Observations: []Observation{
			{Frequency: 0.2, Occurrences: 3},
			{Frequency: 0.6, Occurrences: 1},
		}})
		assert.InDelta(t, (3*0.2+0.6)/4, p, 1e-12)
	})

	t.Run("no evidence falls back to uniform prior", func(t *testing.T) {
		m := newModel(t, models.ModelWeightedAverage)
		p := m.Estimate(EstimateContext{BranchingFactor: 4})
		assert.InDelta(t, 0.25, p, 1e-12)
	})

	t.Run("zero frequency is floored", func(t *testing.T) {
		m := newModel(t, models.ModelWeightedAverage)
		p := m.Estimate(EstimateContext{Observations: []Observation{{Frequency: 0}}})
		assert.Equal(t, MinEstimate, p)
	})
}

func TestBayesian(t *testing.T) {
	t.Run("uniform prior posterior mean", func(t *testing.T) {
		m := newModel(t, models.ModelBayesian)
		p := m.Estimate(EstimateContext{Observations: []Observation{
			{Frequency: 1, Occurrences: 3},
			{Frequency: 0, Occurrences: 1},
		}})
		// alpha = 1 + 3, beta = 1 + 1
		assert.InDelta(t, 4.0/6.0, p, 1e-12)
	})

	t.Run("expert prior shifts estimate", func(t *testing.T) {
		m := newModel(t, models.ModelBayesian, func(r *models.GenerateRequest) {
			r.BayesAlpha = 8
			r.BayesBeta = 2
		})
		p := m.Estimate(EstimateContext{})
		assert.InDelta(t, 0.8, p, 1e-12)
	})

	t.Run("fractional frequency splits mass", func(t *testing.T) {
		m := newModel(t, models.ModelBayesian)
		p := m.Estimate(EstimateContext{Observations: []Observation{{Frequency: 0.5, Occurrences: 10}}})
		assert.InDelta(t, 0.5, p, 1e-12)
	})
}

func TestMonteCarlo(t *testing.T) {
	obs := []Observation{
		{Frequency: 0.3, Occurrences: 2},
		{Frequency: 0.9, Occurrences: 1},
	}

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		m := newModel(t, models.ModelMonteCarlo)
		seed := SubSeed(42, "node-a", "start->growth")
		p1 := m.Estimate(EstimateContext{Observations: obs, Rand: NewRand(seed)})
		p2 := m.Estimate(EstimateContext{Observations: obs, Rand: NewRand(seed)})
		assert.Equal(t, p1, p2)
	})

	t.Run("different sub-seeds draw differently", func(t *testing.T) {
		assert.NotEqual(t, SubSeed(42, "node-a", "x->y"), SubSeed(42, "node-b", "x->y"))
		assert.NotEqual(t, SubSeed(42, "node-a", "x->y"), SubSeed(43, "node-a", "x->y"))
	})

	t.Run("converges near the empirical mean", func(t *testing.T) {
		m := newModel(t, models.ModelMonteCarlo, func(r *models.GenerateRequest) { r.MonteCarloTrials = 20000 })
		p := m.Estimate(EstimateContext{Observations: obs, Rand: NewRand(7)})
		assert.InDelta(t, (2*0.3+0.9)/3, p, 0.03)
	})

	t.Run("never returns zero", func(t *testing.T) {
		m := newModel(t, models.ModelMonteCarlo, func(r *models.GenerateRequest) { r.MonteCarloTrials = 100 })
		p := m.Estimate(EstimateContext{Observations: []Observation{{Frequency: 0}}, Rand: NewRand(1)})
		assert.InDelta(t, 1.0/200, p, 1e-12)
	})
}

func TestPriorIsPinned(t *testing.T) {
	prior := 0.72
	for _, kind := range []models.ProbabilityModel{models.ModelWeightedAverage, models.ModelBayesian, models.ModelMonteCarlo} {
		m := newModel(t, kind)
		p := m.Estimate(EstimateContext{
			Observations: []Observation{{Frequency: 0.1}},
			Prior:        &prior,
			Rand:         NewRand(3),
		})
		assert.Equal(t, prior, p, "model %s", kind)
	}
}

func TestFingerprintStable(t *testing.T) {
	e := &models.Extract{
		Transitions: []models.Transition{{FromLabel: "a", ToLabel: "b", ObservedFrequency: 0.5}},
		SeedContext: map[string]string{"x": "1", "y": "2"},
	}
	assert.Equal(t, Fingerprint(e), Fingerprint(e))

	other := &models.Extract{
		Transitions: []models.Transition{{FromLabel: "a", ToLabel: "b", ObservedFrequency: 0.6}},
		SeedContext: e.SeedContext,
	}
	assert.NotEqual(t, Fingerprint(e), Fingerprint(other))
}
