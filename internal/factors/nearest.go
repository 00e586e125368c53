package factors

// YearValue pairs a table year with the value recorded for that year.
type YearValue struct {
	Year  int
	Value float64
}

// NearestYear picks the record to use when no record exists for the target
// year. Candidates are scanned in the order given; tables hand them over
// sorted by ascending year.
//
// The first candidate is always taken. A later candidate replaces the current
// best only when it is strictly closer to target and is not after target.
// With ascending input this yields the latest year at or before target when
// one exists, and otherwise the earliest year after it.
//
// Returns false when candidates is empty.
func NearestYear(candidates []YearValue, target int) (YearValue, bool) {
	if len(candidates) == 0 {
		return YearValue{}, false
	}

	best := candidates[0]
	bestDiff := absInt(best.Year - target)
	for _, c := range candidates[1:] {
		diff := absInt(c.Year - target)
		if diff < bestDiff && c.Year <= target {
			best = c
			bestDiff = diff
		}
	}
	return best, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
