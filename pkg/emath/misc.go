package emath

import "math"

// Some functions that only operate on basic types, that are useful

// NearZero is the magnitude below which a divisor is treated as zero.
const NearZero = 1e-10

// SafeDivide returns a/b, or 0.0 if |b| < NearZero. Flat fields can
// have dead pixels, and we'd rather have a black pixel than an Inf.
func SafeDivide(a, b float64) float64 {
	if math.Abs(b) < NearZero {
		return 0.0
	}
	return a / b
}

func Clamp(f, lo, hi float64) float64 {
	if f < lo { return lo }
	if f > hi { return hi }
	return f
}

// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "linear RGB to sRGB"
// `f` is assumed to be in the range [0,1]
func GammaExpand_F64(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055 * math.Pow(f, 1.0/2.4) - 0.055
}
