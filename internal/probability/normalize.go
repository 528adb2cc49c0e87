package probability

// Estimate is one candidate's probability before it becomes an edge.
type Estimate struct {
	P      float64
	Pinned bool
}

// Normalize scales the free estimates of one node's candidate set so that
// free plus pinned mass does not exceed 1. Pinned estimates are never
// changed, so an overflow caused by pinned priors survives and is reported
// by contradiction detection.
func Normalize(estimates []Estimate) []Estimate {
	var free, pinned float64
	for _, e := range estimates {
		if e.Pinned {
			pinned += e.P
		} else {
			free += e.P
		}
	}

	out := make([]Estimate, len(estimates))
	copy(out, estimates)

	budget := 1 - pinned
	if free <= budget || free == 0 {
		return out
	}

	scale := 0.0
	if budget > 0 {
		scale = budget / free
	}
	for i := range out {
		if out[i].Pinned {
			continue
		}
		out[i].P = clamp(out[i].P * scale)
	}
	return out
}
