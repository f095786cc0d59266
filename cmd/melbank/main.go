package main

import (
	"os"

	"github.com/RyanBlaney/sonido-pitch/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pitch/config"
	"github.com/RyanBlaney/sonido-pitch/logging"
	"gonum.org/v1/gonum/floats"
)

func main() {
	// https://no-color.org
	if os.Getenv("NO_COLOR") != "" {
		logging.DisableColors()
	}

	cfg := config.DefaultConfig()
	if len(os.Args) > 1 {
		var err error
		cfg, err = config.Load(os.Args[1])
		if err != nil {
			logging.Fatal(err, "failed to load config", logging.Fields{"path": os.Args[1]})
		}
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	params, err := cfg.MelParams()
	if err != nil {
		logging.Fatal(err, "invalid mel parameters")
	}

	fb, err := spectral.MelFilterBank(params)
	if err != nil {
		logging.Fatal(err, "failed to build filter bank")
	}

	rows, cols := fb.Dims()
	logging.Info("built mel filter bank", logging.Fields{
		"rows":  rows,
		"bins":  cols,
		"scale": params.Scale.String(),
	})

	binWidth := params.SampleRate / float64(params.FFTSize)
	for i := 0; i < rows; i++ {
		row := fb.RawRowView(i)
		logging.Debug("band", logging.Fields{
			"band":     i,
			"peak_bin": floats.MaxIdx(row),
			"area":     floats.Sum(row) * binWidth,
		})
	}
}
