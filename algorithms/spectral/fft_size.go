package spectral

import (
	"errors"
	"fmt"
	"math"
)

// Frames at or below this are treated as tracker glitches, not pitch.
const minUsableF0 = 20.0

// Lowest-pitch cap: anything above this still sizes the window as if f0 were 1 kHz.
const maxWindowF0 = 1000.0

var ErrNoUsableF0 = errors.New("no f0 frame above 20 Hz")

// AdaptiveFFTSize picks the smallest power-of-two FFT size that holds
// relativeWinsize periods of the lowest pitch in f0. It also returns that pitch.
func AdaptiveFFTSize(f0 []float64, sampleRate, relativeWinsize float64) (int, float64, error) {
	if sampleRate <= 0 {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if relativeWinsize <= 0 {
		return 0, 0, fmt.Errorf("relative window size must be positive: %v", relativeWinsize)
	}

	f0Min := math.Inf(1)
	for _, f := range f0 {
		if f > minUsableF0 && f < f0Min {
			f0Min = f
		}
	}
	if math.IsInf(f0Min, 1) {
		return 0, 0, ErrNoUsableF0
	}
	f0Min = math.Min(f0Min, maxWindowF0)

	maxWinsize := math.RoundToEven(sampleRate/f0Min*relativeWinsize/2) * 2
	nfft := math.Exp2(math.Ceil(math.Log2(maxWinsize)))

	return int(nfft), f0Min, nil
}
