package tonal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

var (
	ErrEmptyContour   = errors.New("empty f0 contour")
	ErrMaskLength     = errors.New("mask length does not match f0 contour")
	ErrNegativeF0     = errors.New("f0 contour contains negative values")
	ErrNonFiniteInput = errors.New("f0 contour contains non-finite values")
	ErrVoicedZeroF0   = errors.New("voiced frame has zero f0")
)

// UnvoicedMask marks the frames where f0 == 0
func UnvoicedMask(f0 []float64) []bool {
	uv := make([]bool, len(f0))
	for i, f := range f0 {
		uv[i] = f == 0
	}
	return uv
}

func checkMask(n int, mask []bool) error {
	if mask != nil && len(mask) != n {
		return fmt.Errorf("%w: %d != %d", ErrMaskLength, len(mask), n)
	}
	return nil
}

// checkVoiced rejects frames the mask calls voiced whose f0 is 0, since their
// log2 is -Inf and cannot be a knot.
func checkVoiced(f0 []float64, uv []bool) error {
	for i, f := range f0 {
		if !uv[i] && f == 0 {
			return fmt.Errorf("%w: frame %d", ErrVoicedZeroF0, i)
		}
	}
	return nil
}

func checkContour(f0 []float64) error {
	if len(f0) == 0 {
		return ErrEmptyContour
	}
	for i, f := range f0 {
		if f < 0 {
			return fmt.Errorf("%w: frame %d is %v", ErrNegativeF0, i, f)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: frame %d is %v", ErrNonFiniteInput, i, f)
		}
	}
	return nil
}

// NormalizeF0 maps f0 to log2 space. Unvoiced frames (uv, or f0 == 0 when uv
// is nil) become -Inf; one is added to them before the log so log2(0) is never taken.
func NormalizeF0(f0 []float64, uv []bool) ([]float64, error) {
	if err := checkContour(f0); err != nil {
		return nil, err
	}
	if err := checkMask(len(f0), uv); err != nil {
		return nil, err
	}
	if uv == nil {
		uv = UnvoicedMask(f0)
	}

	out := make([]float64, len(f0))
	for i, f := range f0 {
		if uv[i] {
			f++
		}
		out[i] = math.Log2(f)
		if uv[i] {
			out[i] = math.Inf(-1)
		}
	}
	return out, nil
}

// DenormalizeF0 maps log2 f0 back to Hz, zeroing frames flagged in uv and then
// those flagged in padding. Either mask may be nil.
func DenormalizeF0(f0 []float64, uv, padding []bool) ([]float64, error) {
	if len(f0) == 0 {
		return nil, ErrEmptyContour
	}
	if err := checkMask(len(f0), uv); err != nil {
		return nil, err
	}
	if err := checkMask(len(f0), padding); err != nil {
		return nil, fmt.Errorf("padding: %w", err)
	}

	out := make([]float64, len(f0))
	for i, v := range f0 {
		out[i] = math.Exp2(v)
		if uv != nil && uv[i] {
			out[i] = 0
		}
		if padding != nil && padding[i] {
			out[i] = 0
		}
	}
	return out, nil
}

// InterpolateF0Linear fills unvoiced frames by linear interpolation in log2
// space between voiced neighbours. Leading and trailing gaps take the nearest
// voiced value. The returned mask is a copy of the one used.
func InterpolateF0Linear(f0 []float64, uv []bool) ([]float64, []bool, error) {
	return interpolateF0(f0, uv, false)
}

// InterpolateF0Spline is InterpolateF0Linear with a natural cubic spline
// through the voiced frames. The result is clipped to [0, max(f0)].
func InterpolateF0Spline(f0 []float64, uv []bool) ([]float64, []bool, error) {
	out, mask, err := interpolateF0(f0, uv, true)
	if err != nil {
		return nil, nil, err
	}

	f0Max := floats.Max(f0)
	for i, v := range out {
		out[i] = math.Min(math.Max(v, 0), f0Max)
	}
	return out, mask, nil
}

func interpolateF0(f0 []float64, uv []bool, spline bool) ([]float64, []bool, error) {
	if err := checkContour(f0); err != nil {
		return nil, nil, err
	}
	if err := checkMask(len(f0), uv); err != nil {
		return nil, nil, err
	}

	var mask []bool
	if uv == nil {
		mask = UnvoicedMask(f0)
	} else {
		if err := checkVoiced(f0, uv); err != nil {
			return nil, nil, err
		}
		mask = append([]bool(nil), uv...)
	}

	logF0, err := NormalizeF0(f0, mask)
	if err != nil {
		return nil, nil, err
	}

	var xs, ys, gaps []float64
	for i, unvoiced := range mask {
		if unvoiced {
			gaps = append(gaps, float64(i))
		} else {
			xs = append(xs, float64(i))
			ys = append(ys, logF0[i])
		}
	}

	// all voiced needs no fill; all unvoiced has nothing to fit
	if len(gaps) > 0 && len(xs) > 0 {
		predictor, err := fitVoiced(xs, ys, spline)
		if err != nil {
			return nil, nil, err
		}
		lo, hi := xs[0], xs[len(xs)-1]
		for _, x := range gaps {
			logF0[int(x)] = predictor.Predict(math.Min(math.Max(x, lo), hi))
		}
	}

	out, err := DenormalizeF0(logF0, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	return out, mask, nil
}

type constantPredictor float64

func (c constantPredictor) Predict(float64) float64 { return float64(c) }

func fitVoiced(xs, ys []float64, spline bool) (interp.Predictor, error) {
	switch {
	case len(xs) == 1:
		return constantPredictor(ys[0]), nil
	case spline && len(xs) >= 3:
		var nc interp.NaturalCubic
		if err := nc.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("fit spline: %w", err)
		}
		return &nc, nil
	default:
		// a natural cubic through two knots is this same line
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("fit linear: %w", err)
		}
		return &pl, nil
	}
}

// ExpandUV grows voiced regions by one frame on each side: a frame stays
// unvoiced only when it and both neighbours are unvoiced. The first and last
// frames copy the result of their inner neighbour. Masks shorter than three
// frames are returned unchanged.
func ExpandUV(uv []bool) []bool {
	out := make([]bool, len(uv))
	n := len(uv)
	if n < 3 {
		copy(out, uv)
		return out
	}

	for i := 1; i < n-1; i++ {
		out[i] = uv[i-1] && uv[i] && uv[i+1]
	}
	out[0] = out[1]
	out[n-1] = out[n-2]
	return out
}
