package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefaults(t *testing.T) {
	t.Run("fills unset fields", func(t *testing.T) {
		r := GenerateRequest{}.WithDefaults()
		assert.Equal(t, ModelWeightedAverage, r.ProbabilityModel)
		assert.Equal(t, DefaultMonteCarloTrials, r.MonteCarloTrials)
		require.NotNil(t, r.RecencyDecay)
		assert.Equal(t, DefaultRecencyDecay, *r.RecencyDecay)
		assert.Equal(t, 1.0, r.BayesAlpha)
		assert.Equal(t, 1.0, r.BayesBeta)
		assert.Nil(t, r.ScoreDecay)
	})

	t.Run("keeps explicit zero decays", func(t *testing.T) {
		zero := 0.0
		r := GenerateRequest{RecencyDecay: &zero, ScoreDecay: &zero}.WithDefaults()
		assert.Equal(t, 0.0, *r.RecencyDecay)
		assert.Equal(t, 0.0, *r.ScoreDecay)
	})
}
