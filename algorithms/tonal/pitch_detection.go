package tonal

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pitch/logging"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

var (
	ErrInvalidTrackerParams = errors.New("invalid pitch tracker parameters")
	ErrEmptySignal          = errors.New("empty signal")
)

// PitchTrackerParams contains parameters for autocorrelation pitch tracking
type PitchTrackerParams struct {
	SampleRate float64 `json:"sample_rate"`
	TimeStep   int     `json:"time_step"` // hop between frames, in samples

	// Frequency range constraints
	PitchFloor   float64 `json:"pitch_floor"`   // Hz, also sets the window length
	PitchCeiling float64 `json:"pitch_ceiling"` // Hz

	// Voicing decision
	VoicingThreshold float64 `json:"voicing_threshold"` // minimum normalized autocorrelation peak
	SilenceThreshold float64 `json:"silence_threshold"` // frame peak relative to global peak

	PeriodsPerWindow float64 `json:"periods_per_window"`
	OctaveCost       float64 `json:"octave_cost"` // per octave bonus for shorter lags
}

// DefaultPitchTrackerParams returns the usual speech settings for the given rate and hop
func DefaultPitchTrackerParams(sampleRate float64, timeStep int) PitchTrackerParams {
	return PitchTrackerParams{
		SampleRate:       sampleRate,
		TimeStep:         timeStep,
		PitchFloor:       75.0,
		PitchCeiling:     600.0,
		VoicingThreshold: 0.45,
		SilenceThreshold: 0.03,
		PeriodsPerWindow: 3.0,
		OctaveCost:       0.01,
	}
}

// Validate checks ranges
func (p PitchTrackerParams) Validate() error {
	switch {
	case p.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %v", ErrInvalidTrackerParams, p.SampleRate)
	case p.TimeStep <= 0:
		return fmt.Errorf("%w: time step %d", ErrInvalidTrackerParams, p.TimeStep)
	case p.PitchFloor <= 0 || p.PitchCeiling <= p.PitchFloor:
		return fmt.Errorf("%w: pitch range [%v, %v]", ErrInvalidTrackerParams, p.PitchFloor, p.PitchCeiling)
	case p.PitchCeiling >= p.SampleRate/2:
		return fmt.Errorf("%w: pitch ceiling %v above Nyquist", ErrInvalidTrackerParams, p.PitchCeiling)
	case p.VoicingThreshold < 0 || p.VoicingThreshold > 1:
		return fmt.Errorf("%w: voicing threshold %v", ErrInvalidTrackerParams, p.VoicingThreshold)
	case p.SilenceThreshold < 0 || p.SilenceThreshold > 1:
		return fmt.Errorf("%w: silence threshold %v", ErrInvalidTrackerParams, p.SilenceThreshold)
	case p.PeriodsPerWindow < 1:
		return fmt.Errorf("%w: periods per window %v", ErrInvalidTrackerParams, p.PeriodsPerWindow)
	}
	return nil
}

// PitchTracker estimates one f0 value per frame from the Hann-windowed
// autocorrelation, normalized by the window's own autocorrelation
// (Boersma 1993). Unvoiced frames report 0.
//
// References:
// - Boersma, P. (1993). "Accurate short-term analysis of the fundamental frequency
//   and the harmonics-to-noise ratio of a sampled sound"
// - Rabiner, L.R. (1977). "On the use of autocorrelation analysis for pitch detection"
type PitchTracker struct {
	params PitchTrackerParams
	logger logging.Logger

	windowSize int
	fftSize    int
	minLag     int
	maxLag     int

	window    []float64
	windowACF []float64
}

// NewPitchTracker creates a tracker. A nil logger uses the global logger.
func NewPitchTracker(params PitchTrackerParams, logger logging.Logger) (*PitchTracker, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	windowSize := int(math.Ceil(params.PeriodsPerWindow / params.PitchFloor * params.SampleRate))
	pt := &PitchTracker{
		params:     params,
		logger:     logging.OrGlobal(logger).WithFields(logging.Fields{"component": "pitch_tracker"}),
		windowSize: windowSize,
		fftSize:    nextPowerOfTwo(2 * windowSize),
		minLag:     max(2, int(math.Ceil(params.SampleRate/params.PitchCeiling))),
		maxLag:     min(int(math.Floor(params.SampleRate/params.PitchFloor)), windowSize-2),
		window:     window.Hann(windowSize),
	}
	if pt.maxLag <= pt.minLag {
		return nil, fmt.Errorf("%w: empty lag range [%d, %d]", ErrInvalidTrackerParams, pt.minLag, pt.maxLag)
	}

	pt.windowACF = pt.autocorrelation(pt.window)

	return pt, nil
}

// WindowSize returns the analysis frame length in samples
func (pt *PitchTracker) WindowSize() int {
	return pt.windowSize
}

// NumFrames returns how many frames Track produces for a signal of n samples
func (pt *PitchTracker) NumFrames(n int) int {
	if n < pt.windowSize {
		return 0
	}
	return (n-pt.windowSize)/pt.params.TimeStep + 1
}

// Track returns one f0 estimate per frame; frame i starts at i*TimeStep.
func (pt *PitchTracker) Track(signal []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}

	globalPeak := 0.0
	for _, v := range signal {
		globalPeak = math.Max(globalPeak, math.Abs(v))
	}

	numFrames := pt.NumFrames(len(signal))
	f0 := make([]float64, numFrames)
	frame := make([]float64, pt.windowSize)
	voiced := 0

	for i := 0; i < numFrames; i++ {
		start := i * pt.params.TimeStep
		copy(frame, signal[start:start+pt.windowSize])
		f0[i] = pt.frameF0(frame, globalPeak)
		if f0[i] > 0 {
			voiced++
		}
	}

	pt.logger.Debug("tracked pitch", logging.Fields{
		"frames": numFrames,
		"voiced": voiced,
	})

	return f0, nil
}

// frameF0 analyses one frame in place
func (pt *PitchTracker) frameF0(frame []float64, globalPeak float64) float64 {
	if globalPeak == 0 {
		return 0
	}

	mean := 0.0
	for _, v := range frame {
		mean += v
	}
	mean /= float64(len(frame))

	localPeak := 0.0
	for i, v := range frame {
		v -= mean
		localPeak = math.Max(localPeak, math.Abs(v))
		frame[i] = v * pt.window[i]
	}
	if localPeak < pt.params.SilenceThreshold*globalPeak {
		return 0
	}

	acf := pt.autocorrelation(frame)
	if acf[0] <= 0 {
		return 0
	}

	// r[tau] is the window-corrected, energy-normalized autocorrelation
	r := make([]float64, pt.maxLag+2)
	for tau := range r {
		if pt.windowACF[tau] <= 0 {
			continue
		}
		r[tau] = (acf[tau] / acf[0]) / (pt.windowACF[tau] / pt.windowACF[0])
	}

	bestLag := -1
	bestStrength := math.Inf(-1)
	bestR := 0.0
	for tau := pt.minLag; tau <= pt.maxLag; tau++ {
		if r[tau] < r[tau-1] || r[tau] <= r[tau+1] {
			continue
		}
		lag, peak := parabolicPeak(r, tau)
		strength := peak - pt.params.OctaveCost*math.Log2(pt.params.PitchFloor*lag/pt.params.SampleRate)
		if strength > bestStrength {
			bestLag, bestStrength, bestR = tau, strength, peak
		}
	}

	if bestLag < 0 || bestR < pt.params.VoicingThreshold {
		return 0
	}

	lag, _ := parabolicPeak(r, bestLag)
	f0 := pt.params.SampleRate / lag
	if f0 < pt.params.PitchFloor || f0 > pt.params.PitchCeiling {
		return 0
	}
	return f0
}

// autocorrelation returns the linear (non-circular) autocorrelation of x via the FFT
func (pt *PitchTracker) autocorrelation(x []float64) []float64 {
	padded := make([]float64, pt.fftSize)
	copy(padded, x)

	spectrum := fft.FFTReal(padded)
	for i, v := range spectrum {
		spectrum[i] = complex(real(v)*real(v)+imag(v)*imag(v), 0)
	}

	inverse := fft.IFFT(spectrum)
	acf := make([]float64, len(x))
	for i := range acf {
		acf[i] = real(inverse[i])
	}
	return acf
}

// parabolicPeak refines a local maximum at idx to a fractional position and height
func parabolicPeak(data []float64, idx int) (float64, float64) {
	y0, y1, y2 := data[idx-1], data[idx], data[idx+1]
	denom := y0 - 2*y1 + y2
	if denom == 0 {
		return float64(idx), y1
	}
	offset := 0.5 * (y0 - y2) / denom
	return float64(idx) + offset, y1 - 0.25*(y0-y2)*offset
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// F0ExtractParams configures ExtractF0. Zero F0Max and VoicingThreshold take
// DefaultF0Ceiling and DefaultF0VoicingThreshold.
type F0ExtractParams struct {
	SampleRate       float64 `json:"sample_rate"`
	BlockSize        int     `json:"block_size"` // hop between frames, in samples
	F0Min            float64 `json:"f0_min"`
	F0Max            float64 `json:"f0_max"`
	VoicingThreshold float64 `json:"voicing_threshold"`
}

const (
	// DefaultF0Ceiling is the pitch ceiling used by ExtractF0 when F0Max is unset.
	DefaultF0Ceiling = 1100.0

	// DefaultF0VoicingThreshold is used by ExtractF0 when VoicingThreshold is unset.
	DefaultF0VoicingThreshold = 0.6
)

// ExtractF0 tracks the f0 of x with one frame per block and returns exactly
// nFrames values (zero padded or truncated). The signal is padded by half an
// analysis window on the left so frame i is centred on sample i*BlockSize.
func ExtractF0(p F0ExtractParams, x []float64, nFrames int, logger logging.Logger) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmptySignal
	}
	if nFrames < 0 {
		return nil, fmt.Errorf("%w: negative frame count %d", ErrInvalidTrackerParams, nFrames)
	}
	if p.F0Min <= 0 || p.BlockSize <= 0 || p.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: f0_min %v, block_size %d, sample_rate %v",
			ErrInvalidTrackerParams, p.F0Min, p.BlockSize, p.SampleRate)
	}

	ceiling := p.F0Max
	if ceiling <= 0 {
		ceiling = DefaultF0Ceiling
	}

	threshold := p.VoicingThreshold
	if threshold <= 0 {
		threshold = DefaultF0VoicingThreshold
	}

	params := DefaultPitchTrackerParams(p.SampleRate, p.BlockSize)
	params.PitchFloor = p.F0Min
	params.PitchCeiling = ceiling
	params.VoicingThreshold = threshold

	tracker, err := NewPitchTracker(params, logger)
	if err != nil {
		return nil, err
	}

	lPad := int(math.Ceil(1.5 / p.F0Min * p.SampleRate))
	rPad := p.BlockSize*((len(x)-1)/p.BlockSize+1) - len(x) + lPad + 1

	padded := make([]float64, lPad+len(x)+rPad)
	copy(padded[lPad:], x)

	f0, err := tracker.Track(padded)
	if err != nil {
		return nil, err
	}

	out := make([]float64, nFrames)
	copy(out, f0)
	return out, nil
}
