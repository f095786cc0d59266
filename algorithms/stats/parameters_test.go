package stats

import (
	"bytes"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-pitch/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneToHundred() []float64 {
	x := make([]float64, 100)
	for i := range x {
		x[i] = float64(100 - i) // unsorted on purpose
	}
	return x
}

func TestPercentile_Methods(t *testing.T) {
	data := []float64{4, 1, 3, 2}

	tests := []struct {
		method PercentileMethod
		p      float64
		want   float64
	}{
		{Linear, 50, 2.5},
		{Linear, 0, 1},
		{Linear, 100, 4},
		{Linear, 25, 1.75},
		{Lower, 50, 2},
		{Higher, 50, 3},
		{Midpoint, 25, 1.5},
		{Nearest, 25, 2},
	}

	for _, tt := range tests {
		got, err := Percentile(data, tt.p, tt.method)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "method %d p %v", tt.method, tt.p)
	}
}

func TestPercentile_Errors(t *testing.T) {
	_, err := Percentile(nil, 50, Linear)
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = Percentile([]float64{1, 2}, 101, Linear)
	assert.ErrorIs(t, err, ErrPercentileRange)

	_, err = Percentile([]float64{1, 2}, 50, PercentileMethod(42))
	assert.ErrorIs(t, err, ErrUnknownPercentile)
}

func TestSummarize_OneToHundred(t *testing.T) {
	pa := NewParameterAnalyzer(10, &logging.NoOpLogger{})

	s, err := pa.Summarize(oneToHundred())
	require.NoError(t, err)

	assert.InDelta(t, 50.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt((100*100-1)/12.0), s.StdDev, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 100.0, s.Max)
	assert.InDelta(t, 50.5, s.Median, 1e-12)
	assert.InDelta(t, 25.75, s.Q1, 1e-12)
	assert.InDelta(t, 75.25, s.Q3, 1e-12)
	assert.InDelta(t, 90.1, s.P90, 1e-9)
	assert.InDelta(t, 99.01, s.P99, 1e-9)

	// a discrete uniform is symmetric and platykurtic
	assert.InDelta(t, 0.0, s.Skewness, 1e-9)
	assert.InDelta(t, -1.2002400240024003, s.Kurtosis, 1e-9)

	require.Len(t, s.Histogram.Edges, 11)
	require.Len(t, s.Histogram.Density, 10)
	area := 0.0
	for i, d := range s.Histogram.Density {
		area += d * (s.Histogram.Edges[i+1] - s.Histogram.Edges[i])
	}
	assert.InDelta(t, 1.0, area, 1e-9)
}

func TestSummarize_SkewedData(t *testing.T) {
	pa := NewParameterAnalyzer(0, &logging.NoOpLogger{})

	s, err := pa.Summarize([]float64{0, 0, 0, 0, 10})
	require.NoError(t, err)

	// m2 = 16, m3 = 96, m4 = 832
	assert.InDelta(t, 1.5, s.Skewness, 1e-12)
	assert.InDelta(t, 0.25, s.Kurtosis, 1e-12)
	assert.Len(t, s.Histogram.Density, DefaultHistogramBins)
}

func TestSummarize_ConstantData(t *testing.T) {
	pa := NewParameterAnalyzer(5, &logging.NoOpLogger{})

	s, err := pa.Summarize([]float64{3, 3, 3})
	require.NoError(t, err)

	assert.Zero(t, s.StdDev)
	assert.Zero(t, s.Skewness)
	assert.Zero(t, s.Kurtosis)
	assert.InDelta(t, 2.5, s.Histogram.Edges[0], 1e-12)
	assert.InDelta(t, 3.5, s.Histogram.Edges[5], 1e-12)

	_, err = pa.Summarize(nil)
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestAnalyze_SkipsFrozenAndLogs(t *testing.T) {
	var buf bytes.Buffer
	pa := NewParameterAnalyzer(10, logging.NewWriterLogger(&buf, logging.InfoLevel))

	got, err := pa.Analyze([]Parameter{
		{Name: "encoder.weight", Values: oneToHundred(), Trainable: true},
		{Name: "encoder.frozen", Values: []float64{1, 2}, Trainable: false},
	})
	require.NoError(t, err)

	require.Contains(t, got, "encoder.weight")
	assert.NotContains(t, got, "encoder.frozen")
	assert.Contains(t, buf.String(), "parameter=encoder.weight")
	assert.Contains(t, buf.String(), "median=50.5000")
	assert.NotContains(t, buf.String(), "encoder.frozen")

	_, err = pa.Analyze([]Parameter{{Name: "empty", Trainable: true}})
	assert.ErrorIs(t, err, ErrEmptyData)
}
