package spectral

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/RyanBlaney/sonido-pitch/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MelScaleType selects the Hz <-> mel conversion formula
type MelScaleType int

const (
	// Slaney is the Auditory Toolbox formula: linear below 1 kHz, logarithmic above
	Slaney MelScaleType = iota

	// HTK is 2595 * log10(1 + f/700)
	HTK
)

func (s MelScaleType) String() string {
	switch s {
	case HTK:
		return "htk"
	case Slaney:
		return "slaney"
	default:
		return "unknown"
	}
}

// ParseMelScale maps "htk" or "slaney" (case-insensitive) to a MelScaleType.
func ParseMelScale(name string) (MelScaleType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "htk":
		return HTK, nil
	case "slaney", "":
		return Slaney, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMelScale, name)
	}
}

var (
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidFFTSize    = errors.New("fft size must be a positive even integer")
	ErrInvalidMelCount   = errors.New("number of mel bands must be positive")
	ErrInvalidFreqRange  = errors.New("frequency range must satisfy 0 < fmin < fmax")
	ErrUnknownMelScale   = errors.New("unknown mel scale")
	ErrSpectrumSize      = errors.New("spectrum length does not match filter bank")
)

// Slaney breakpoint constants
const (
	slaneyFSp       = 200.0 / 3
	slaneyMinLogHz  = 1000.0
	slaneyMinLogMel = slaneyMinLogHz / slaneyFSp // 15
)

var slaneyLogStep = math.Log(6.4) / 27.0

// HzToMel converts frequency in Hz to the given mel scale
func HzToMel(hz float64, scale MelScaleType) float64 {
	if scale == HTK {
		return 2595.0 * math.Log10(1.0+hz/700.0)
	}
	if hz >= slaneyMinLogHz {
		return slaneyMinLogMel + math.Log(hz/slaneyMinLogHz)/slaneyLogStep
	}
	return hz / slaneyFSp
}

// MelToHz converts a mel value on the given scale back to Hz
func MelToHz(mel float64, scale MelScaleType) float64 {
	if scale == HTK {
		return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
	}
	if mel >= slaneyMinLogMel {
		return slaneyMinLogHz * math.Exp(slaneyLogStep*(mel-slaneyMinLogMel))
	}
	return slaneyFSp * mel
}

// MelFilterBankParams describes a mel filter bank
type MelFilterBankParams struct {
	SampleRate float64      `json:"sample_rate"`
	FFTSize    int          `json:"fft_size"`
	NumMels    int          `json:"num_mels"`
	FMin       float64      `json:"fmin"`
	FMax       float64      `json:"fmax"`
	Scale      MelScaleType `json:"scale"`
}

// Validate reports whether the parameters describe a buildable filter bank
func (p MelFilterBankParams) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, p.SampleRate)
	}
	if p.FFTSize <= 0 || p.FFTSize%2 != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFFTSize, p.FFTSize)
	}
	if p.NumMels <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMelCount, p.NumMels)
	}
	if p.FMin <= 0 || p.FMax <= 0 || p.FMin >= p.FMax {
		return fmt.Errorf("%w: [%v, %v]", ErrInvalidFreqRange, p.FMin, p.FMax)
	}
	if p.Scale != HTK && p.Scale != Slaney {
		return fmt.Errorf("%w: %d", ErrUnknownMelScale, p.Scale)
	}
	return nil
}

// MelFrequencies returns the NumMels+2 filter edge frequencies in Hz,
// equally spaced on the mel scale between FMin and FMax.
func MelFrequencies(numMels int, fmin, fmax float64, scale MelScaleType) []float64 {
	mels := make([]float64, numMels+2)
	floats.Span(mels, HzToMel(fmin, scale), HzToMel(fmax, scale))
	for i, m := range mels {
		mels[i] = MelToHz(m, scale)
	}
	return mels
}

// FFTFrequencies returns the centre frequency of each of the fftSize/2+1 bins
func FFTFrequencies(sampleRate float64, fftSize int) []float64 {
	freqs := make([]float64, fftSize/2+1)
	step := sampleRate / float64(fftSize)
	for k := range freqs {
		freqs[k] = step * float64(k)
	}
	return freqs
}

// MelFilterBank builds a (NumMels x FFTSize/2+1) matrix of triangular filters.
// Each row is area normalized by 2/(f[i+2]-f[i]) regardless of Scale.
func MelFilterBank(p MelFilterBankParams) (*mat.Dense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	melF := MelFrequencies(p.NumMels, p.FMin, p.FMax, p.Scale)
	fftFreqs := FFTFrequencies(p.SampleRate, p.FFTSize)

	weights := mat.NewDense(p.NumMels, len(fftFreqs), nil)
	for i := 0; i < p.NumMels; i++ {
		lo, center, hi := melF[i], melF[i+1], melF[i+2]
		lowerWidth := center - lo
		upperWidth := hi - center
		enorm := 2.0 / (hi - lo)

		for k, f := range fftFreqs {
			lower := (f - lo) / lowerWidth
			upper := (hi - f) / upperWidth
			w := math.Max(0, math.Min(lower, upper))
			// zero-width edges (fmin == fmax after rounding) give NaN
			if math.IsNaN(w) {
				w = 0
			}
			weights.Set(i, k, w*enorm)
		}
	}

	logging.Debug("built mel filter bank", logging.Fields{
		"num_mels": p.NumMels,
		"fft_size": p.FFTSize,
		"fmin":     p.FMin,
		"fmax":     p.FMax,
		"scale":    p.Scale.String(),
	})

	return weights, nil
}

// ApplyFilterBank maps one power spectrum column (FFTSize/2+1 bins) to mel band energies
func ApplyFilterBank(filterBank *mat.Dense, powerSpectrum []float64) ([]float64, error) {
	rows, cols := filterBank.Dims()
	if len(powerSpectrum) != cols {
		return nil, fmt.Errorf("%w: got %d bins, want %d", ErrSpectrumSize, len(powerSpectrum), cols)
	}

	out := mat.NewVecDense(rows, nil)
	out.MulVec(filterBank, mat.NewVecDense(cols, powerSpectrum))

	return out.RawVector().Data, nil
}

// ApplyFilterBankFrames maps each frame of a power spectrogram (time x bins) to mel energies (time x mels)
func ApplyFilterBankFrames(filterBank *mat.Dense, spectrogram [][]float64) ([][]float64, error) {
	melSpectrogram := make([][]float64, len(spectrogram))
	for t, frame := range spectrogram {
		mel, err := ApplyFilterBank(filterBank, frame)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", t, err)
		}
		melSpectrogram[t] = mel
	}
	return melSpectrogram, nil
}
