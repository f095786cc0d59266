package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWav(t *testing.T, samples []float64, sampleRate int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	pos := 0
	streamer := beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}
		n := min(len(buf), len(samples)-pos)
		for i := 0; i < n; i++ {
			buf[i] = [2]float64{samples[pos+i], samples[pos+i]}
		}
		pos += n
		return n, true
	})

	format := beep.Format{SampleRate: beep.SampleRate(sampleRate), NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, streamer, format))
	return path
}

func TestLoadWav_RoundTrip(t *testing.T) {
	samples := make([]float64, 1600)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/16000)
	}
	path := writeWav(t, samples, 16000)

	clip, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 16000, clip.SampleRate)
	require.Len(t, clip.Samples, len(samples))
	assert.InDeltaSlice(t, samples, clip.Samples, 1e-3)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("clip.mp3")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, ErrFileNotLoaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.flac"))
	assert.ErrorIs(t, err, ErrFileNotLoaded)

	bogus := filepath.Join(t.TempDir(), "bogus.wav")
	require.NoError(t, os.WriteFile(bogus, []byte("not a wav file"), 0o644))
	_, err = Load(bogus)
	assert.ErrorIs(t, err, ErrFileNotLoaded)
}
