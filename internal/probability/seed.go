package probability

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/raphaelgruber/branchcast/internal/models"
)

// SubSeed derives a per-candidate seed from the run seed and the candidate's
// position in the tree, so parallel expansion draws the same numbers as a
// sequential run.
func SubSeed(seed int64, nodeID, signature string) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))

	h := xxhash.New()
	_, _ = h.Write(buf[:])
	_, _ = h.WriteString(nodeID)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(signature)
	return h.Sum64()
}

// NewRand returns a PCG generator for the derived seed.
func NewRand(subSeed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(subSeed, subSeed^0x9e3779b97f4a7c15))
}

// Fingerprint hashes an extract's content. It seeds Monte Carlo runs that
// were requested without an explicit seed.
func Fingerprint(e *models.Extract) int64 {
	h := xxhash.New()
	if e == nil {
		return int64(h.Sum64())
	}
	for _, t := range e.Transitions {
		_, _ = h.WriteString(t.Signature())
		_, _ = h.WriteString(strconv.FormatUint(math.Float64bits(t.ObservedFrequency), 16))
		_, _ = h.WriteString(strconv.Itoa(t.Weight()))
		for _, f := range t.Factors {
			_, _ = h.WriteString(f.Category + string(f.Direction))
			_, _ = h.WriteString(strconv.FormatUint(math.Float64bits(f.Severity), 16))
		}
		_, _ = h.WriteString(";")
	}
	keys := make([]string, 0, len(e.SeedContext))
	for k := range e.SeedContext {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		_, _ = h.WriteString(k + "=" + e.SeedContext[k] + ";")
	}
	return int64(h.Sum64())
}
