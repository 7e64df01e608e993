package eframe

import "errors"

var(
	// ErrEmptyInput means a combiner was handed no frames at all.
	ErrEmptyInput = errors.New("no frames supplied")

	// ErrDimensionMismatch means two frames (or a frame and an operand) differ in width or height.
	ErrDimensionMismatch = errors.New("frame dimensions differ")

	// ErrUnsupportedEncoding is only produced by loaders, for sample formats we can't represent.
	ErrUnsupportedEncoding = errors.New("unsupported pixel encoding")
)
