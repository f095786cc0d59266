package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-pitch/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pitch/algorithms/tonal"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the audio front-end settings shared by f0 extraction and
// mel analysis.
type Config struct {
	// Signal
	SamplingRate int `json:"sampling_rate"`
	BlockSize    int `json:"block_size"` // hop size in samples, one f0 frame per block

	// Pitch tracking
	F0Min            float64 `json:"f0_min"`
	F0Max            float64 `json:"f0_max"`
	VoicingThreshold float64 `json:"voicing_threshold"`

	// Mel analysis
	NFFT      int     `json:"n_fft"`
	WinLength int     `json:"win_length"`
	NMels     int     `json:"n_mels"`
	MelFmin   float64 `json:"mel_fmin"`
	MelFmax   float64 `json:"mel_fmax"`
	MelScale  string  `json:"mel_scale"` // "htk" or "slaney"

	// Adaptive FFT sizing, in periods of the lowest pitch
	RelativeWinsize float64 `json:"relative_winsize"`

	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns 44.1 kHz speech settings
func DefaultConfig() Config {
	return Config{
		SamplingRate:     44100,
		BlockSize:        512,
		F0Min:            65,
		F0Max:            tonal.DefaultF0Ceiling,
		VoicingThreshold: 0.6,
		NFFT:             2048,
		WinLength:        2048,
		NMels:            128,
		MelFmin:          40,
		MelFmax:          16000,
		MelScale:         "slaney",
		RelativeWinsize:  4,
		LogLevel:         "info",
	}
}

// Parse decodes JSON over DefaultConfig, so omitted keys keep their defaults,
// and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a JSON config file
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Validate checks every section
func (c Config) Validate() error {
	if c.SamplingRate <= 0 {
		return fmt.Errorf("%w: sampling_rate %d", ErrInvalidConfig, c.SamplingRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block_size %d", ErrInvalidConfig, c.BlockSize)
	}
	if c.F0Min <= 0 || c.F0Max <= c.F0Min {
		return fmt.Errorf("%w: f0 range [%v, %v]", ErrInvalidConfig, c.F0Min, c.F0Max)
	}
	if c.VoicingThreshold < 0 || c.VoicingThreshold > 1 {
		return fmt.Errorf("%w: voicing_threshold %v", ErrInvalidConfig, c.VoicingThreshold)
	}
	if c.WinLength <= 0 || c.WinLength > c.NFFT {
		return fmt.Errorf("%w: win_length %d with n_fft %d", ErrInvalidConfig, c.WinLength, c.NFFT)
	}
	if c.RelativeWinsize <= 0 {
		return fmt.Errorf("%w: relative_winsize %v", ErrInvalidConfig, c.RelativeWinsize)
	}

	mel, err := c.MelParams()
	if err != nil {
		return err
	}
	if err := mel.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// MelParams derives the filter bank parameters
func (c Config) MelParams() (spectral.MelFilterBankParams, error) {
	scale, err := spectral.ParseMelScale(c.MelScale)
	if err != nil {
		return spectral.MelFilterBankParams{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return spectral.MelFilterBankParams{
		SampleRate: float64(c.SamplingRate),
		FFTSize:    c.NFFT,
		NumMels:    c.NMels,
		FMin:       c.MelFmin,
		FMax:       c.MelFmax,
		Scale:      scale,
	}, nil
}

// MelSpectrogramParams derives mel spectrogram parameters with one frame per block
func (c Config) MelSpectrogramParams() (spectral.MelSpectrogramParams, error) {
	mel, err := c.MelParams()
	if err != nil {
		return spectral.MelSpectrogramParams{}, err
	}
	return spectral.MelSpectrogramParams{
		MelFilterBankParams: mel,
		WinLength:           c.WinLength,
		HopSize:             c.BlockSize,
	}, nil
}

// F0Params derives the f0 extraction parameters
func (c Config) F0Params() tonal.F0ExtractParams {
	return tonal.F0ExtractParams{
		SampleRate:       float64(c.SamplingRate),
		BlockSize:        c.BlockSize,
		F0Min:            c.F0Min,
		F0Max:            c.F0Max,
		VoicingThreshold: c.VoicingThreshold,
	}
}
