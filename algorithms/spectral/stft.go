package spectral

import (
	"errors"
	"fmt"

	"github.com/mjibson/go-dsp/fft"
	"github.com/r9y9/gossp/stft"
	"github.com/r9y9/gossp/window"
)

var (
	ErrSignalTooShort   = errors.New("signal shorter than one analysis frame")
	ErrInvalidWinLength = errors.New("window length must be in [1, fft size]")
)

// MelSpectrogramParams configures MelSpectrogram. A zero WinLength means FFTSize.
type MelSpectrogramParams struct {
	MelFilterBankParams
	WinLength int `json:"win_length"`
	HopSize   int `json:"hop_size"`
}

// PowerSpectrogram returns |X|^2 for the non-negative frequency bins of each
// frame (time x fftSize/2+1). Frames are winLength samples long, Hann windowed
// and zero padded on both sides to fftSize. A zero winLength means fftSize.
func PowerSpectrogram(signal []float64, fftSize, winLength, hopSize int) ([][]float64, error) {
	if fftSize <= 0 || fftSize%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFFTSize, fftSize)
	}
	if winLength == 0 {
		winLength = fftSize
	}
	if winLength < 0 || winLength > fftSize {
		return nil, fmt.Errorf("%w: %d with fft size %d", ErrInvalidWinLength, winLength, fftSize)
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive: %d", hopSize)
	}
	if len(signal) < winLength {
		return nil, fmt.Errorf("%w: %d < %d", ErrSignalTooShort, len(signal), winLength)
	}

	analyzer := stft.New(hopSize, winLength)

	var spectrum [][]complex128
	if winLength == fftSize {
		spectrum = analyzer.STFT(signal)
	} else {
		offset := (fftSize - winLength) / 2
		spectrum = make([][]complex128, analyzer.NumFrames(signal))
		for t := range spectrum {
			padded := make([]float64, fftSize)
			copy(padded[offset:], window.Windowing(analyzer.FrameAt(signal, t), analyzer.Window))
			spectrum[t] = fft.FFTReal(padded)
		}
	}

	bins := fftSize/2 + 1
	power := make([][]float64, len(spectrum))
	for t, frame := range spectrum {
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			v := frame[k]
			row[k] = real(v)*real(v) + imag(v)*imag(v)
		}
		power[t] = row
	}

	return power, nil
}

// MelSpectrogram computes mel band energies (time x mels) of a signal
func MelSpectrogram(signal []float64, p MelSpectrogramParams) ([][]float64, error) {
	filterBank, err := MelFilterBank(p.MelFilterBankParams)
	if err != nil {
		return nil, err
	}

	power, err := PowerSpectrogram(signal, p.FFTSize, p.WinLength, p.HopSize)
	if err != nil {
		return nil, err
	}

	return ApplyFilterBankFrames(filterBank, power)
}
