// Package analysis reduces a tree and its paths to an AnalysisReport.
//
// Analyze is a pure function: the same tree and paths always produce the
// same report, and neither input is modified.
package analysis

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/raphaelgruber/branchcast/internal/models"
)

// Defaults for Options.
const (
	DefaultTolerance  = 0.01
	DefaultTopDrivers = 10
)

// Options tunes the analysis.
type Options struct {
	// Tolerance is how far sibling probabilities may exceed 1 before a
	// contradiction is recorded.
	Tolerance float64
	// TopDrivers limits the driver ranking.
	TopDrivers int
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.TopDrivers <= 0 {
		o.TopDrivers = DefaultTopDrivers
	}
	return o
}

// Analyze builds the report for a tree and its classified paths.
func Analyze(t *models.Tree, paths []models.Path, opts Options) *models.AnalysisReport {
	opts = opts.withDefaults()

	r := &models.AnalysisReport{
		TotalPaths:          len(paths),
		OutcomeDistribution: distribution(paths),
		TopDrivers:          []models.Driver{},
		Contradictions:      []models.Contradiction{},
		Correlations:        []models.Correlation{},
	}
	risks := make([]float64, len(paths))
	opps := make([]float64, len(paths))
	for i, p := range paths {
		risks[i] = p.RiskScore
		opps[i] = p.OpportunityScore
	}
	r.Risk = summarize(risks)
	r.Opportunity = summarize(opps)

	if t != nil {
		r.TopDrivers = drivers(t, paths, opts.TopDrivers)
		r.Contradictions = contradictions(t, opts.Tolerance)
	}
	if c, ok := correlate(risks, opps); ok {
		r.Correlations = append(r.Correlations, c)
	}

	var best *models.Path
	var mass float64
	for i := range paths {
		p := &paths[i]
		if best == nil || p.CumulativeProbability > best.CumulativeProbability {
			best = p
		}
		mass += p.CumulativeProbability
		r.ExpectedRisk += p.CumulativeProbability * p.RiskScore
		r.ExpectedOpportunity += p.CumulativeProbability * p.OpportunityScore
	}
	if best != nil {
		r.MostLikelyPathID = best.ID
	}
	if mass > 0 {
		r.ExpectedRisk /= mass
		r.ExpectedOpportunity /= mass
	} else {
		r.ExpectedRisk, r.ExpectedOpportunity = 0, 0
	}
	return r
}

func distribution(paths []models.Path) []models.OutcomeBucket {
	counts := make(map[models.OutcomeType]int, len(models.OutcomeTypes))
	for _, p := range paths {
		counts[p.OutcomeType]++
	}
	out := make([]models.OutcomeBucket, 0, len(models.OutcomeTypes))
	for _, ot := range models.OutcomeTypes {
		b := models.OutcomeBucket{OutcomeType: ot, Count: counts[ot]}
		if len(paths) > 0 {
			b.Fraction = float64(b.Count) / float64(len(paths))
		}
		out = append(out, b)
	}
	return out
}

func summarize(vals []float64) models.ScoreSummary {
	if len(vals) == 0 {
		return models.ScoreSummary{}
	}
	s := models.ScoreSummary{Min: vals[0], Max: vals[0]}
	var sum float64
	for _, v := range vals {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Average = sum / float64(len(vals))
	return s
}

type driverAcc struct {
	positive, negative float64
	occurrences        int
}

// drivers sums factor contributions over every node of every path. A node
// shared by several paths counts once per path.
func drivers(t *models.Tree, paths []models.Path, limit int) []models.Driver {
	nodes := t.NodeMap()
	accs := make(map[string]*driverAcc)
	for _, p := range paths {
		for _, id := range p.NodeIDs {
			n, ok := nodes[id]
			if !ok {
				continue
			}
			for _, f := range n.Factors {
				a, ok := accs[f.Category]
				if !ok {
					a = &driverAcc{}
					accs[f.Category] = a
				}
				a.occurrences++
				if f.Direction == models.DirectionPositive {
					a.positive += f.Contribution
				} else {
					a.negative += f.Contribution
				}
			}
		}
	}
	if len(accs) == 0 {
		return []models.Driver{}
	}

	out := make([]models.Driver, 0, len(accs))
	for cat, a := range accs {
		d := models.Driver{
			Category:     cat,
			Contribution: a.positive + a.negative,
			Direction:    models.DirectionNegative,
			Occurrences:  a.occurrences,
		}
		if a.positive > a.negative {
			d.Direction = models.DirectionPositive
		}
		out = append(out, d)
	}

	mags := make([]float64, len(out))
	for i, d := range out {
		mags[i] = d.Contribution
	}
	slices.Sort(mags)
	low, high := quantile(mags, 1.0/3), quantile(mags, 2.0/3)
	for i := range out {
		switch c := out[i].Contribution; {
		case c >= high:
			out[i].Impact = models.ImpactHigh
		case c >= low:
			out[i].Impact = models.ImpactMedium
		default:
			out[i].Impact = models.ImpactLow
		}
	}

	slices.SortFunc(out, func(a, b models.Driver) int {
		if c := cmp.Compare(b.Contribution, a.Contribution); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// quantile uses the nearest-rank method on sorted values.
func quantile(sorted []float64, q float64) float64 {
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

func contradictions(t *models.Tree, tolerance float64) []models.Contradiction {
	edges := t.ChildEdges()
	out := []models.Contradiction{}
	for _, n := range t.Nodes {
		children := edges[n.ID]
		if len(children) == 0 {
			continue
		}
		var total float64
		for _, e := range children {
			total += e.Probability
		}
		if total <= 1+tolerance {
			continue
		}
		excess := total - 1
		out = append(out, models.Contradiction{
			Type:     models.ContradictionProbabilityConflict,
			NodeID:   n.ID,
			Total:    total,
			Excess:   excess,
			Severity: severity(excess),
			Description: fmt.Sprintf("children of %q sum to %.3f, exceeding 1 by %.3f",
				n.Label, total, excess),
		})
	}
	return out
}

func severity(excess float64) models.Severity {
	switch {
	case excess < 0.05:
		return models.SeverityLow
	case excess < 0.15:
		return models.SeverityMedium
	default:
		return models.SeverityHigh
	}
}

// correlate computes the Pearson coefficient between risk and opportunity.
// It reports false for fewer than two samples or zero variance.
func correlate(xs, ys []float64) (models.Correlation, bool) {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return models.Correlation{}, false
	}

	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return models.Correlation{}, false
	}

	r := math.Round(sxy/math.Sqrt(sxx*syy)*1e9) / 1e9
	r = max(-1, min(1, r))
	s := strength(r)
	return models.Correlation{
		Variables:   [2]string{"risk_score", "opportunity_score"},
		Coefficient: r,
		Strength:    s,
		SampleSize:  n,
		Description: fmt.Sprintf("%s %s correlation between risk and opportunity across %d outcomes", s, sign(r), n),
	}, true
}

func strength(r float64) models.Strength {
	switch a := math.Abs(r); {
	case a < 0.3:
		return models.StrengthWeak
	case a < 0.7:
		return models.StrengthModerate
	default:
		return models.StrengthStrong
	}
}

func sign(r float64) string {
	if r < 0 {
		return "negative"
	}
	return "positive"
}
