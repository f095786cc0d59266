package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-pitch/algorithms/tonal"
	"github.com/RyanBlaney/sonido-pitch/audio"
	"github.com/RyanBlaney/sonido-pitch/config"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

func main() {
	// https://no-color.org
	if os.Getenv("NO_COLOR") != "" {
		logging.DisableColors()
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: f0extract <audio_file> [config.json]")
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if len(os.Args) > 2 {
		var err error
		cfg, err = config.Load(os.Args[2])
		if err != nil {
			logging.Fatal(err, "failed to load config", logging.Fields{"path": os.Args[2]})
		}
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	log := logging.WithFields(logging.Fields{"input": os.Args[1]})

	clip, err := audio.Load(os.Args[1])
	if err != nil {
		log.Fatal(err, "failed to load audio")
	}
	cfg.SamplingRate = clip.SampleRate
	if err := cfg.Validate(); err != nil {
		log.Fatal(err, "config does not fit the audio sample rate")
	}

	nFrames := (len(clip.Samples)-1)/cfg.BlockSize + 1
	f0, err := tonal.ExtractF0(cfg.F0Params(), clip.Samples, nFrames, log)
	if err != nil {
		log.Fatal(err, "f0 extraction failed")
	}

	filled, uv, err := tonal.InterpolateF0Spline(f0, nil)
	if err != nil {
		log.Fatal(err, "f0 interpolation failed")
	}

	voiced := 0
	for i := range filled {
		if !uv[i] {
			voiced++
		}
		fmt.Printf("%d\t%.3f\t%t\n", i, filled[i], uv[i])
	}

	log.Info("extracted f0", logging.Fields{
		"frames":      nFrames,
		"voiced":      voiced,
		"sample_rate": clip.SampleRate,
	})
}
