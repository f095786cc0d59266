package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsampleChannel(t *testing.T) {
	tests := []struct {
		name   string
		in     []float64
		factor int
		want   []float64
	}{
		{"two samples by two", []float64{0, 1}, 2, []float64{0, 0.5, 1, 1}},
		{"factor one is identity", []float64{3, 1, 4}, 1, []float64{3, 1, 4}},
		{"by four", []float64{0, 4}, 4, []float64{0, 1, 2, 3, 4, 4, 4, 4}},
		{"single sample repeats", []float64{7}, 3, []float64{7, 7, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UpsampleChannel(tt.in, tt.factor)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestUpsample_Batch(t *testing.T) {
	in := [][][]float64{
		{{0, 2}, {2, 0}},
		{{1, 1}, {0, 0}},
	}

	out, err := Upsample(in, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.InDeltaSlice(t, []float64{0, 1, 2, 2}, out[0][0], 1e-12)
	assert.InDeltaSlice(t, []float64{2, 1, 0, 0}, out[0][1], 1e-12)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1}, out[1][0], 1e-12)
}

func TestUpsample_Errors(t *testing.T) {
	_, err := Upsample([][][]float64{{{1, 2}}}, 0)
	assert.ErrorIs(t, err, ErrInvalidFactor)

	_, err = Upsample([][][]float64{{{1, 2}, {1}}}, 2)
	assert.ErrorIs(t, err, ErrRaggedBatch)

	_, err = Upsample([][][]float64{{{}}}, 2)
	assert.ErrorIs(t, err, ErrEmptyChannel)

	_, err = UpsampleChannel(nil, 2)
	assert.ErrorIs(t, err, ErrEmptyChannel)
}
