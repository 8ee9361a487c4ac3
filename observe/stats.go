package observe

import (
	"math"
	"slices"

	"github.com/montanaflynn/stats"
)

// percentile returns the p-th percentile (0..100) of a slice (copy-safe),
// interpolating linearly between order statistics. This is the convention the
// control-room analysis tooling uses, so boundary sample counts reduce to the
// same numbers here as there.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	cp := slices.Clone(values)
	slices.Sort(cp)
	if p <= 0 {
		return cp[0]
	}
	if p >= 100 {
		return cp[len(cp)-1]
	}
	pos := p / 100 * float64(len(cp)-1)
	l := int(math.Floor(pos))
	r := int(math.Ceil(pos))
	if l == r {
		return cp[l]
	}
	frac := pos - float64(l)
	return cp[l]*(1-frac) + cp[r]*frac
}

// reduce collapses the masked series to the statistics record. Both slices
// come out of validPair, so they are either both empty or equally sized.
func reduce(gas, loss []float64) (PulseStats, error) {
	if len(gas) == 0 || len(loss) == 0 {
		return PulseStats{}, ErrNoValidSamples
	}
	gasMean, err := stats.Mean(gas)
	if err != nil {
		return PulseStats{}, err
	}
	gasMedian, err := stats.Median(gas)
	if err != nil {
		return PulseStats{}, err
	}
	gasStd, err := stats.StandardDeviation(gas)
	if err != nil {
		return PulseStats{}, err
	}
	return PulseStats{
		GasP80:    percentile(gas, 80),
		GasMean:   gasMean,
		GasMedian: gasMedian,
		GasStd:    gasStd,
		LossP80:   percentile(loss, 80),
	}, nil
}

// validPair keeps only the indexes where neither series reads NaN. The inputs
// must be equally sized; callers check that before masking.
func validPair(gas, loss []float64) (g, l []float64) {
	for i := range gas {
		if math.IsNaN(gas[i]) || math.IsNaN(loss[i]) {
			continue
		}
		g = append(g, gas[i])
		l = append(l, loss[i])
	}
	return g, l
}

// validOnly drops NaN entries from a single series.
func validOnly(vals []float64) []float64 {
	var out []float64
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// lastN returns the trailing n entries of s. A non-positive n selects
// nothing; an oversized n selects everything.
func lastN(s []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
