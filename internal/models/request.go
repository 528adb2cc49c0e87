package models

// ProbabilityModel selects the edge probability strategy.
type ProbabilityModel string

const (
	ModelWeightedAverage ProbabilityModel = "weighted_average"
	ModelBayesian        ProbabilityModel = "bayesian"
	ModelMonteCarlo      ProbabilityModel = "monte_carlo"
)

// Request defaults.
const (
	DefaultMaxDepth         = 5
	DefaultBranchingFactor  = 3
	DefaultMinProbability   = 0.05
	DefaultMonteCarloTrials = 1000
	DefaultRecencyDecay     = 0.9
	DefaultScoreDecay       = 0.6
)

// GenerateRequest configures one generation run.
type GenerateRequest struct {
	MaxDepth                   int              `json:"max_depth" yaml:"max_depth" validate:"min=1,max=10"`
	BranchingFactor            int              `json:"branching_factor" yaml:"branching_factor" validate:"min=1,max=10"`
	MinProbability             float64          `json:"min_probability" yaml:"min_probability" validate:"gte=0,lte=0.5"`
	IncludeRiskAnalysis        bool             `json:"include_risk_analysis" yaml:"include_risk_analysis"`
	IncludeOpportunityAnalysis bool             `json:"include_opportunity_analysis" yaml:"include_opportunity_analysis"`
	ProbabilityModel           ProbabilityModel `json:"probability_model" yaml:"probability_model" validate:"oneof=weighted_average bayesian monte_carlo"`
	Seed                       *int64           `json:"seed,omitempty" yaml:"seed,omitempty"`

	MonteCarloTrials int                `json:"monte_carlo_trials,omitempty" yaml:"monte_carlo_trials,omitempty" validate:"gte=0,lte=100000"`
	RecencyDecay     *float64           `json:"recency_decay,omitempty" yaml:"recency_decay,omitempty" validate:"omitempty,gte=0,lte=1"`
	BayesAlpha       float64            `json:"bayes_alpha,omitempty" yaml:"bayes_alpha,omitempty" validate:"omitempty,gt=0"`
	BayesBeta        float64            `json:"bayes_beta,omitempty" yaml:"bayes_beta,omitempty" validate:"omitempty,gt=0"`
	Priors           map[string]float64 `json:"priors,omitempty" yaml:"priors,omitempty" validate:"dive,gt=0,lte=1"`
	ScoreDecay       *float64           `json:"score_decay,omitempty" yaml:"score_decay,omitempty" validate:"omitempty,gte=0,lte=1"`
	FactorWeights    map[string]float64 `json:"factor_weights,omitempty" yaml:"factor_weights,omitempty" validate:"dive,gte=0"`
}

// DefaultGenerateRequest returns a request with every documented default.
func DefaultGenerateRequest() GenerateRequest {
	return GenerateRequest{
		MaxDepth:                   DefaultMaxDepth,
		BranchingFactor:            DefaultBranchingFactor,
		MinProbability:             DefaultMinProbability,
		IncludeRiskAnalysis:        true,
		IncludeOpportunityAnalysis: true,
		ProbabilityModel:           ModelWeightedAverage,
	}
}

// WithDefaults fills unset optional tuning fields. Range-checked fields are
// left alone so validation still sees them. BayesAlpha and BayesBeta treat 0
// as unset. ScoreDecay stays nil so a weights file can still supply it.
func (r GenerateRequest) WithDefaults() GenerateRequest {
	if r.ProbabilityModel == "" {
		r.ProbabilityModel = ModelWeightedAverage
	}
	if r.MonteCarloTrials == 0 {
		r.MonteCarloTrials = DefaultMonteCarloTrials
	}
	if r.RecencyDecay == nil {
		d := DefaultRecencyDecay
		r.RecencyDecay = &d
	}
	if r.BayesAlpha == 0 {
		r.BayesAlpha = 1
	}
	if r.BayesBeta == 0 {
		r.BayesBeta = 1
	}
	return r
}
