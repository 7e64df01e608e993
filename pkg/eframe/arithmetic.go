package eframe

import(
	"fmt"
	"math"

	"github.com/abworrall/fits-stacker/pkg/emath"
)

// The calibration arithmetic. Each op mutates the receiver's pixels in
// place and borrows the operand read-only. Sizes are checked before
// anything is touched, so on error the receiver is unchanged.

func (f *Frame)Add(other *Frame) error {
	return f.applyBinary("add", other, func(a, b float64) float64 { return a + b })
}

func (f *Frame)Subtract(other *Frame) error {
	return f.applyBinary("subtract", other, func(a, b float64) float64 { return a - b })
}

func (f *Frame)Multiply(other *Frame) error {
	return f.applyBinary("multiply", other, func(a, b float64) float64 { return a * b })
}

// Divide divides by the operand, except where the operand is within
// emath.NearZero of zero; those pixels are set to 0.0.
func (f *Frame)Divide(other *Frame) error {
	return f.applyBinary("divide", other, emath.SafeDivide)
}

func (f *Frame)Scale(factor float64) {
	f.Pixels.Scale(factor)
}

// NormalizeToMean scales the frame so that its mean becomes 1.0; this
// is how a master flat is prepared. Fails (leaving the frame alone) if
// the mean is zero-ish or not finite.
func (f *Frame)NormalizeToMean() error {
	mean := f.Statistics().Mean
	if math.IsNaN(mean) || math.IsInf(mean, 0) || math.Abs(mean) < emath.NearZero {
		return fmt.Errorf("normalize %s: mean %v can't be normalized to 1.0", f.Filename(), mean)
	}
	f.Scale(1.0 / mean)
	return nil
}

func (f *Frame)applyBinary(name string, other *Frame, op emath.BinaryOp) error {
	if !f.SameDimensions(other) || !f.Pixels.SameSize(&other.Pixels) {
		return fmt.Errorf("%s: %w: %dx%d vs %dx%d", name, ErrDimensionMismatch,
			f.Width, f.Height, other.Width, other.Height)
	}
	f.Pixels.ApplyBinary(&other.Pixels, op)
	return nil
}
