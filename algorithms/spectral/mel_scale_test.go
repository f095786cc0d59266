package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMelScale_Invertible(t *testing.T) {
	freqs := []float64{0, 1, 50, 100, 300, 999, 1_000, 4_000, 8_000, 22_050}
	for _, scale := range []MelScaleType{HTK, Slaney} {
		for _, freq := range freqs {
			back := MelToHz(HzToMel(freq, scale), scale)
			assert.InDelta(t, freq, back, 1e-9*math.Max(1, freq), "%s %v", scale, freq)
		}
	}
}

func TestMelScale_KnownPoints(t *testing.T) {
	assert.InDelta(t, 1000.0, HzToMel(1000, HTK), 0.1)
	assert.InDelta(t, 15.0, HzToMel(1000, Slaney), 1e-12)
	assert.InDelta(t, 7.5, HzToMel(500, Slaney), 1e-12)

	// the log segment of the Slaney scale grows by 27 mels per factor 6.4
	assert.InDelta(t, 42.0, HzToMel(6400, Slaney), 1e-9)
}

func TestParseMelScale(t *testing.T) {
	s, err := ParseMelScale("HTK")
	require.NoError(t, err)
	assert.Equal(t, HTK, s)

	s, err = ParseMelScale("slaney")
	require.NoError(t, err)
	assert.Equal(t, Slaney, s)

	_, err = ParseMelScale("bark")
	assert.ErrorIs(t, err, ErrUnknownMelScale)
}

func TestMelFilterBank_Shape(t *testing.T) {
	fb, err := MelFilterBank(MelFilterBankParams{
		SampleRate: 44100,
		FFTSize:    2048,
		NumMels:    128,
		FMin:       20,
		FMax:       22050,
		Scale:      Slaney,
	})
	require.NoError(t, err)

	rows, cols := fb.Dims()
	assert.Equal(t, 128, rows)
	assert.Equal(t, 1025, cols)
	assert.GreaterOrEqual(t, mat.Min(fb), 0.0)
}

func TestMelFilterBank_RowProperties(t *testing.T) {
	for _, scale := range []MelScaleType{HTK, Slaney} {
		t.Run(scale.String(), func(t *testing.T) {
			fb, err := MelFilterBank(MelFilterBankParams{
				SampleRate: 44100,
				FFTSize:    2048,
				NumMels:    128,
				FMin:       20,
				FMax:       22050,
				Scale:      scale,
			})
			require.NoError(t, err)

			rows, cols := fb.Dims()
			prevPeak := -1
			for i := 0; i < rows; i++ {
				row := fb.RawRowView(i)

				first, last, peak := -1, -1, 0
				for k, w := range row {
					require.GreaterOrEqual(t, w, 0.0)
					require.False(t, math.IsNaN(w))
					if w > 0 {
						if first < 0 {
							first = k
						}
						last = k
					}
					if w > row[peak] {
						peak = k
					}
				}
				require.GreaterOrEqual(t, first, 0, "row %d is empty", i)

				for k := first; k <= last; k++ {
					assert.Greater(t, row[k], 0.0, "row %d support has a hole at %d", i, k)
				}
				assert.Less(t, last, cols)
				assert.GreaterOrEqual(t, peak, prevPeak, "row %d peak out of order", i)
				prevPeak = peak
			}
		})
	}
}

func TestMelFilterBank_SlaneyNormalization_ApproxUnitArea(t *testing.T) {
	const (
		sampleRate = 16_000
		nfft       = 512
	)

	fb, err := MelFilterBank(MelFilterBankParams{
		SampleRate: sampleRate,
		FFTSize:    nfft,
		NumMels:    40,
		FMin:       20,
		FMax:       8000,
		Scale:      Slaney,
	})
	require.NoError(t, err)

	df := float64(sampleRate) / float64(nfft)
	rows, _ := fb.Dims()
	for i := 0; i < rows; i++ {
		sum := 0.0
		for _, w := range fb.RawRowView(i) {
			sum += w
		}
		assert.InDeltaf(t, 1.0, sum*df, 0.15, "filter %d area=%f", i, sum*df)
	}
}

func TestMelFilterBank_ScalesDiffer(t *testing.T) {
	p := MelFilterBankParams{
		SampleRate: 22050,
		FFTSize:    1024,
		NumMels:    40,
		FMin:       100,
		FMax:       8000,
	}

	p.Scale = HTK
	htk, err := MelFilterBank(p)
	require.NoError(t, err)

	p.Scale = Slaney
	slaney, err := MelFilterBank(p)
	require.NoError(t, err)

	assert.False(t, mat.EqualApprox(htk, slaney, 1e-6))
}

func TestMelFilterBank_InvalidParams(t *testing.T) {
	valid := MelFilterBankParams{SampleRate: 16000, FFTSize: 512, NumMels: 40, FMin: 20, FMax: 8000}

	tests := []struct {
		name   string
		mutate func(p *MelFilterBankParams)
		want   error
	}{
		{"zero sample rate", func(p *MelFilterBankParams) { p.SampleRate = 0 }, ErrInvalidSampleRate},
		{"zero fft size", func(p *MelFilterBankParams) { p.FFTSize = 0 }, ErrInvalidFFTSize},
		{"odd fft size", func(p *MelFilterBankParams) { p.FFTSize = 511 }, ErrInvalidFFTSize},
		{"zero mels", func(p *MelFilterBankParams) { p.NumMels = 0 }, ErrInvalidMelCount},
		{"negative mels", func(p *MelFilterBankParams) { p.NumMels = -3 }, ErrInvalidMelCount},
		{"fmin equals fmax", func(p *MelFilterBankParams) { p.FMin = 8000 }, ErrInvalidFreqRange},
		{"fmin above fmax", func(p *MelFilterBankParams) { p.FMin = 9000 }, ErrInvalidFreqRange},
		{"zero fmin", func(p *MelFilterBankParams) { p.FMin = 0 }, ErrInvalidFreqRange},
		{"bad scale", func(p *MelFilterBankParams) { p.Scale = 7 }, ErrUnknownMelScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := MelFilterBank(p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestApplyFilterBank(t *testing.T) {
	fb, err := MelFilterBank(MelFilterBankParams{SampleRate: 16000, FFTSize: 512, NumMels: 40, FMin: 20, FMax: 8000})
	require.NoError(t, err)

	flat := make([]float64, 257)
	for i := range flat {
		flat[i] = 1
	}

	mel, err := ApplyFilterBank(fb, flat)
	require.NoError(t, err)
	require.Len(t, mel, 40)
	for i, e := range mel {
		assert.Greater(t, e, 0.0, "band %d", i)
	}

	_, err = ApplyFilterBank(fb, flat[:100])
	assert.ErrorIs(t, err, ErrSpectrumSize)

	frames, err := ApplyFilterBankFrames(fb, [][]float64{flat, flat})
	require.NoError(t, err)
	assert.Len(t, frames, 2)
	assert.InDeltaSlice(t, mel, frames[1], 1e-12)
}
