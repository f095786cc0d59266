// Package audio loads mono sample vectors from WAV and FLAC files.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep/wav"
	"github.com/mewkiz/flac"
)

var (
	ErrFileNotLoaded     = errors.New("audio file not loaded")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Clip is a mono signal in [-1, 1] with its sample rate
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Load picks the decoder from the file extension (.wav or .flac)
func Load(path string) (*Clip, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return LoadWav(path)
	case ".flac":
		return LoadFlac(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadWav decodes a WAV file, averaging channels to mono
func LoadWav(path string) (*Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotLoaded, err)
	}
	defer file.Close()

	return DecodeWav(file)
}

// DecodeWav decodes WAV data from r, averaging channels to mono
func DecodeWav(r io.Reader) (*Clip, error) {
	stream, format, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotLoaded, err)
	}
	defer stream.Close()

	channels := max(format.NumChannels, 1)
	var out []float64
	buf := make([][2]float64, 4096)
	for {
		n, ok := stream.Stream(buf)
		for _, s := range buf[:n] {
			if channels == 1 {
				out = append(out, s[0])
			} else {
				out = append(out, 0.5*(s[0]+s[1]))
			}
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotLoaded, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrFileNotLoaded)
	}

	return &Clip{Samples: out, SampleRate: int(format.SampleRate)}, nil
}

// LoadFlac decodes a FLAC file, averaging channels to mono
func LoadFlac(path string) (*Clip, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotLoaded, err)
	}
	defer stream.Close()

	bps := stream.Info.BitsPerSample
	if bps == 0 {
		return nil, fmt.Errorf("%w: zero bits per sample", ErrFileNotLoaded)
	}
	scale := 1.0 / float64(int64(1)<<(bps-1))

	var out []float64
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFileNotLoaded, err)
		}
		if len(frame.Subframes) == 0 {
			continue
		}

		channels := float64(len(frame.Subframes))
		for i := range frame.Subframes[0].Samples {
			sum := 0.0
			for _, sub := range frame.Subframes {
				sum += float64(sub.Samples[i])
			}
			out = append(out, sum/channels*scale)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrFileNotLoaded)
	}

	return &Clip{Samples: out, SampleRate: int(stream.Info.SampleRate)}, nil
}
