package tree

import (
	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/raphaelgruber/branchcast/internal/probability"
)

// candidate is one deduplicated transition type with all of its evidence.
type candidate struct {
	order        int
	from, to     string
	signature    string
	trigger      string
	observations []probability.Observation
	factors      []models.Factor
}

// candidateIndex maps a state label to the candidates that can leave it,
// in extract order. It is built once per run and only read afterwards.
type candidateIndex map[string][]*candidate

type factorKey struct {
	category  string
	direction models.Direction
}

type factorAcc struct {
	factor models.Factor
	weight float64
	sum    float64
}

func buildIndex(e *models.Extract, initial string) candidateIndex {
	bySig := make(map[string]*candidate)
	var ordered []*candidate
	accs := make(map[string]map[factorKey]*factorAcc)
	accOrder := make(map[string][]factorKey)

	n := len(e.Transitions)
	for i, t := range e.Transitions {
		sig := t.Signature()
		c, ok := bySig[sig]
		if !ok {
			c = &candidate{
				order:     len(ordered),
				from:      t.FromLabel,
				to:        t.ToLabel,
				signature: sig,
			}
			bySig[sig] = c
			ordered = append(ordered, c)
			accs[sig] = make(map[factorKey]*factorAcc)
		}
		if c.trigger == "" {
			c.trigger = t.Trigger
		}
		c.observations = append(c.observations, probability.Observation{
			Frequency:   t.ObservedFrequency,
			Occurrences: t.Weight(),
			Age:         n - 1 - i,
		})

		// Severity per factor is the occurrence-weighted mean across observations.
		w := float64(t.Weight())
		for _, f := range t.Factors {
			k := factorKey{category: f.Category, direction: f.Direction}
			a, ok := accs[sig][k]
			if !ok {
				a = &factorAcc{factor: f}
				accs[sig][k] = a
				accOrder[sig] = append(accOrder[sig], k)
			}
			a.weight += w
			a.sum += w * f.Severity
		}
	}

	for _, c := range ordered {
		for _, k := range accOrder[c.signature] {
			a := accs[c.signature][k]
			f := a.factor
			f.Severity = a.sum / a.weight
			c.factors = append(c.factors, f)
		}
	}

	labels := []string{initial}
	seen := map[string]bool{initial: true}
	for _, t := range e.Transitions {
		if !seen[t.ToLabel] {
			seen[t.ToLabel] = true
			labels = append(labels, t.ToLabel)
		}
	}

	idx := make(candidateIndex, len(labels))
	for _, label := range labels {
		for _, c := range ordered {
			if (models.Transition{FromLabel: c.from}).Matches(label) {
				idx[label] = append(idx[label], c)
			}
		}
	}
	return idx
}
