package validation

import (
	"errors"
	"testing"

	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 { return &v }

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *models.GenerateRequest)
		wantErr bool
	}{
		{"defaults are valid", func(r *models.GenerateRequest) {}, false},
		{"depth zero", func(r *models.GenerateRequest) { r.MaxDepth = 0 }, true},
		{"depth eleven", func(r *models.GenerateRequest) { r.MaxDepth = 11 }, true},
		{"branching ten", func(r *models.GenerateRequest) { r.BranchingFactor = 10 }, false},
		{"branching zero", func(r *models.GenerateRequest) { r.BranchingFactor = 0 }, true},
		{"min probability half", func(r *models.GenerateRequest) { r.MinProbability = 0.5 }, false},
		{"min probability too high", func(r *models.GenerateRequest) { r.MinProbability = 0.51 }, true},
		{"negative min probability", func(r *models.GenerateRequest) { r.MinProbability = -0.1 }, true},
		{"unknown model", func(r *models.GenerateRequest) { r.ProbabilityModel = "oracle" }, true},
		{"bayesian", func(r *models.GenerateRequest) { r.ProbabilityModel = models.ModelBayesian }, false},
		{"prior out of range", func(r *models.GenerateRequest) { r.Priors = map[string]float64{"a->b": 1.5} }, true},
		{"prior bad key", func(r *models.GenerateRequest) { r.Priors = map[string]float64{"ab": 0.5} }, true},
		{"prior ok", func(r *models.GenerateRequest) { r.Priors = map[string]float64{"a->b": 0.5} }, false},
		{"recency decay zero", func(r *models.GenerateRequest) { r.RecencyDecay = float64Ptr(0) }, false},
		{"recency decay above one", func(r *models.GenerateRequest) { r.RecencyDecay = float64Ptr(1.1) }, true},
		{"score decay zero", func(r *models.GenerateRequest) { r.ScoreDecay = float64Ptr(0) }, false},
		{"score decay negative", func(r *models.GenerateRequest) { r.ScoreDecay = float64Ptr(-0.1) }, true},
		{"bayes alpha unset", func(r *models.GenerateRequest) { r.BayesAlpha = 0 }, false},
		{"bayes alpha negative", func(r *models.GenerateRequest) { r.BayesAlpha = -1 }, true},
		{"bayes beta set", func(r *models.GenerateRequest) { r.BayesBeta = 0.5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := models.DefaultGenerateRequest()
			tt.mutate(&req)
			err := ValidateRequest(req)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, models.ErrInvalidConfiguration), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateExtract(t *testing.T) {
	t.Run("empty extract is no source data", func(t *testing.T) {
		err := ValidateExtract(&models.Extract{})
		assert.ErrorIs(t, err, models.ErrNoSourceData)

		err = ValidateExtract(nil)
		assert.ErrorIs(t, err, models.ErrNoSourceData)
	})

	t.Run("frequency out of range", func(t *testing.T) {
		err := ValidateExtract(&models.Extract{Transitions: []models.Transition{
			{FromLabel: "start", ToLabel: "boom", ObservedFrequency: 1.4},
		}})
		assert.ErrorIs(t, err, models.ErrInvalidConfiguration)
	})

	t.Run("bad factor direction", func(t *testing.T) {
		err := ValidateExtract(&models.Extract{Transitions: []models.Transition{
			{FromLabel: "start", ToLabel: "boom", ObservedFrequency: 0.4, Factors: []models.Factor{
				{Category: "demand", Direction: "sideways", Severity: 10},
			}},
		}})
		assert.ErrorIs(t, err, models.ErrInvalidConfiguration)
	})

	t.Run("valid extract", func(t *testing.T) {
		err := ValidateExtract(&models.Extract{Transitions: []models.Transition{
			{FromLabel: "start", ToLabel: "boom", ObservedFrequency: 0.4, Factors: []models.Factor{
				{Category: "demand", Direction: models.DirectionPositive, Severity: 30},
			}},
		}})
		assert.NoError(t, err)
	})
}
