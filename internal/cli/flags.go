package cli

import (
	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/spf13/cobra"
)

// requestFlags are the generation parameters shared by generate and request.
type requestFlags struct {
	depth          int
	branching      int
	minProbability float64
	model          string
	seed           int64
	trials         int
	noRisk         bool
	noOpportunity  bool
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	def := models.DefaultGenerateRequest()
	cmd.Flags().IntVarP(&f.depth, "depth", "d", def.MaxDepth, "maximum tree depth (1-10)")
	cmd.Flags().IntVarP(&f.branching, "branching", "b", def.BranchingFactor, "children kept per node (1-10)")
	cmd.Flags().Float64Var(&f.minProbability, "min-probability", def.MinProbability, "prune branches below this cumulative probability (0-0.5)")
	cmd.Flags().StringVar(&f.model, "model", string(def.ProbabilityModel), "probability model: weighted_average, bayesian, monte_carlo")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "random seed for monte_carlo")
	cmd.Flags().IntVar(&f.trials, "trials", 0, "monte_carlo trials per node (0 = default)")
	cmd.Flags().BoolVar(&f.noRisk, "no-risk", false, "skip risk scoring")
	cmd.Flags().BoolVar(&f.noOpportunity, "no-opportunity", false, "skip opportunity scoring")
}

// request builds the generate request. The seed is only set when the flag
// was given.
func (f *requestFlags) request(cmd *cobra.Command) models.GenerateRequest {
	req := models.DefaultGenerateRequest()
	req.MaxDepth = f.depth
	req.BranchingFactor = f.branching
	req.MinProbability = f.minProbability
	req.ProbabilityModel = models.ProbabilityModel(f.model)
	req.IncludeRiskAnalysis = !f.noRisk
	req.IncludeOpportunityAnalysis = !f.noOpportunity
	if f.trials > 0 {
		req.MonteCarloTrials = f.trials
	}
	if cmd.Flags().Changed("seed") {
		seed := f.seed
		req.Seed = &seed
	}
	return req
}
