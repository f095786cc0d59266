package stats

import (
	"fmt"
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-pitch/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Parameter is one named, flattened weight tensor of a model
type Parameter struct {
	Name      string    `json:"name"`
	Values    []float64 `json:"-"`
	Trainable bool      `json:"trainable"`
}

// Histogram is a density histogram: Density[i] covers [Edges[i], Edges[i+1])
// and the bars integrate to one.
type Histogram struct {
	Edges   []float64 `json:"edges"`
	Density []float64 `json:"density"`
}

// ParameterStats summarizes the distribution of one parameter's values
type ParameterStats struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std"` // population
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Skewness float64 `json:"skewness"` // biased, m3/m2^1.5
	Kurtosis float64 `json:"kurtosis"` // biased excess, m4/m2^2 - 3
	Q1       float64 `json:"q1"`
	Q3       float64 `json:"q3"`
	P90      float64 `json:"90th_percentile"`
	P99      float64 `json:"99th_percentile"`

	NumValues int       `json:"num_values"`
	Histogram Histogram `json:"histogram"`
}

// ParameterAnalyzer computes ParameterStats for the trainable parameters of a model
type ParameterAnalyzer struct {
	bins   int
	logger logging.Logger
}

// DefaultHistogramBins matches the usual weight-distribution plot
const DefaultHistogramBins = 50

// NewParameterAnalyzer creates an analyzer. bins <= 0 selects DefaultHistogramBins;
// a nil logger uses the global logger.
func NewParameterAnalyzer(bins int, logger logging.Logger) *ParameterAnalyzer {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	return &ParameterAnalyzer{
		bins:   bins,
		logger: logging.OrGlobal(logger),
	}
}

// Analyze returns statistics keyed by parameter name, skipping frozen parameters,
// and logs one line per parameter.
func (pa *ParameterAnalyzer) Analyze(params []Parameter) (map[string]ParameterStats, error) {
	out := make(map[string]ParameterStats, len(params))
	for _, p := range params {
		if !p.Trainable {
			continue
		}

		s, err := pa.Summarize(p.Values)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		out[p.Name] = s

		pa.logger.Info("parameter statistics", logging.Fields{
			"parameter":       p.Name,
			"count":           s.NumValues,
			"mean":            fmt.Sprintf("%.4f", s.Mean),
			"std":             fmt.Sprintf("%.4f", s.StdDev),
			"min":             fmt.Sprintf("%.4f", s.Min),
			"max":             fmt.Sprintf("%.4f", s.Max),
			"median":          fmt.Sprintf("%.4f", s.Median),
			"skewness":        fmt.Sprintf("%.4f", s.Skewness),
			"kurtosis":        fmt.Sprintf("%.4f", s.Kurtosis),
			"q1":              fmt.Sprintf("%.4f", s.Q1),
			"q3":              fmt.Sprintf("%.4f", s.Q3),
			"90th_percentile": fmt.Sprintf("%.4f", s.P90),
			"99th_percentile": fmt.Sprintf("%.4f", s.P99),
		})
	}
	return out, nil
}

// Summarize computes ParameterStats for a flat slice of values
func (pa *ParameterAnalyzer) Summarize(values []float64) (ParameterStats, error) {
	if len(values) == 0 {
		return ParameterStats{}, ErrEmptyData
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean := stat.Mean(sorted, nil)
	m2 := stat.Moment(2, sorted, nil)

	s := ParameterStats{
		Mean:      mean,
		StdDev:    math.Sqrt(m2),
		Min:       sorted[0],
		Max:       sorted[len(sorted)-1],
		NumValues: len(sorted),
	}

	// constant data has no shape
	if m2 > 0 {
		s.Skewness = stat.Moment(3, sorted, nil) / math.Pow(m2, 1.5)
		s.Kurtosis = stat.Moment(4, sorted, nil)/(m2*m2) - 3
	}

	for _, q := range []struct {
		p   float64
		dst *float64
	}{
		{50, &s.Median},
		{25, &s.Q1},
		{75, &s.Q3},
		{90, &s.P90},
		{99, &s.P99},
	} {
		v, err := PercentileSorted(sorted, q.p, Linear)
		if err != nil {
			return ParameterStats{}, err
		}
		*q.dst = v
	}

	s.Histogram = densityHistogram(sorted, pa.bins)

	return s, nil
}

// densityHistogram bins sorted data into equal-width bins spanning [min, max]
func densityHistogram(sorted []float64, bins int) Histogram {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)

	// stat.Histogram wants every value strictly below the last divider
	dividers := slices.Clone(edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	width := (hi - lo) / float64(bins)
	density := make([]float64, bins)
	floats.ScaleTo(density, 1/(float64(len(sorted))*width), counts)

	return Histogram{Edges: edges, Density: density}
}
