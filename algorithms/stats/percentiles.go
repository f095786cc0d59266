package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// PercentileMethod represents different methods for calculating percentiles
type PercentileMethod int

const (
	// Linear interpolation between closest ranks (R-7, numpy default)
	Linear PercentileMethod = iota

	// Lower value of the two closest ranks
	Lower

	// Higher value of the two closest ranks
	Higher

	// Midpoint of the two closest ranks
	Midpoint

	// Nearest rank, ties to even
	Nearest
)

var (
	ErrEmptyData         = errors.New("empty data")
	ErrPercentileRange   = errors.New("percentile must be in [0, 100]")
	ErrUnknownPercentile = errors.New("unknown percentile method")
)

// Percentile returns the p-th percentile (0-100) of data, which need not be sorted.
func Percentile(data []float64, p float64, method PercentileMethod) (float64, error) {
	if len(data) == 0 {
		return 0, ErrEmptyData
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	return PercentileSorted(sorted, p, method)
}

// PercentileSorted is Percentile for data already sorted ascending.
func PercentileSorted(sorted []float64, p float64, method PercentileMethod) (float64, error) {
	n := len(sorted)
	if n == 0 {
		return 0, ErrEmptyData
	}
	if p < 0 || p > 100 || math.IsNaN(p) {
		return 0, fmt.Errorf("%w: %v", ErrPercentileRange, p)
	}
	if n == 1 {
		return sorted[0], nil
	}

	// 0-based fractional rank
	h := float64(n-1) * p / 100.0
	lower := int(math.Floor(h))
	upper := min(int(math.Ceil(h)), n-1)
	fraction := h - float64(lower)

	switch method {
	case Linear:
		return sorted[lower] + fraction*(sorted[upper]-sorted[lower]), nil
	case Lower:
		return sorted[lower], nil
	case Higher:
		return sorted[upper], nil
	case Midpoint:
		return 0.5 * (sorted[lower] + sorted[upper]), nil
	case Nearest:
		return sorted[int(math.RoundToEven(h))], nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownPercentile, method)
	}
}
