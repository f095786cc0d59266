package common

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFactor = errors.New("upsampling factor must be at least 1")
	ErrEmptyChannel  = errors.New("empty channel")
	ErrRaggedBatch   = errors.New("channels differ in length")
)

// linearInterpolate performs linear interpolation at a fractional index,
// holding the end values outside [0, len-1].
func linearInterpolate(data []float64, index float64) float64 {
	if index <= 0 {
		return data[0]
	}
	if index >= float64(len(data)-1) {
		return data[len(data)-1]
	}

	i := int(index)
	frac := index - float64(i)

	return data[i] + frac*(data[i+1]-data[i])
}

// UpsampleChannel stretches one channel by factor with linear interpolation.
// The last sample is repeated before interpolating with aligned corners, so
// output sample j sits at input position j/factor and the tail holds the final value.
func UpsampleChannel(signal []float64, factor int) ([]float64, error) {
	if factor < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, factor)
	}
	if len(signal) == 0 {
		return nil, ErrEmptyChannel
	}

	extended := make([]float64, len(signal)+1)
	copy(extended, signal)
	extended[len(signal)] = signal[len(signal)-1]

	out := make([]float64, len(signal)*factor)
	for j := range out {
		out[j] = linearInterpolate(extended, float64(j)/float64(factor))
	}
	return out, nil
}

// Upsample applies UpsampleChannel to every channel of a batch x channels x time signal
func Upsample(signal [][][]float64, factor int) ([][][]float64, error) {
	if factor < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, factor)
	}

	length := -1
	out := make([][][]float64, len(signal))
	for b, channels := range signal {
		out[b] = make([][]float64, len(channels))
		for c, channel := range channels {
			if length < 0 {
				length = len(channel)
			}
			if len(channel) != length {
				return nil, fmt.Errorf("%w: batch %d channel %d has %d samples, want %d",
					ErrRaggedBatch, b, c, len(channel), length)
			}

			up, err := UpsampleChannel(channel, factor)
			if err != nil {
				return nil, fmt.Errorf("batch %d channel %d: %w", b, c, err)
			}
			out[b][c] = up
		}
	}
	return out, nil
}
