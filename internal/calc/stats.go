// Basic calculation functions
package calc

import "slices"

// Mean of values after dropping trimPercent of the samples from each end of
// the sorted set. At least one sample always remains.
func TrimmedMeanUint64(values []uint64, trimPercent float64) (mean uint64) {
	if trimPercent < 0 {
		trimPercent = 0
	}

	n := len(values)
	if n == 0 {
		return
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	trimCount := int(float64(n) * trimPercent)
	if trimCount*2 >= n {
		trimCount = (n - 1) / 2
	}

	kept := sorted[trimCount : n-trimCount]

	var sum uint64
	for _, value := range kept {
		sum += value
	}

	mean = sum / uint64(len(kept))
	return
}
