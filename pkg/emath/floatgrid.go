package emath

import(
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// A FloatGrid is a row-major grid of float64 samples; (x,y) lives at
// values[y*width + x]. Its size is fixed when it is created.
type FloatGrid struct {
	width  int
	height int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	if w < 0 { w = 0 }
	if h < 0 { h = 0 }
	return FloatGrid{
		width:  w,
		height: h,
		values: make([]float64, w*h),
	}
}

// NewFloatGridFromValues wraps `vals` (no copy); it must hold exactly w*h samples.
func NewFloatGridFromValues(w, h int, vals []float64) (FloatGrid, error) {
	if w < 0 || h < 0 || len(vals) != w*h {
		return FloatGrid{}, fmt.Errorf("grid %dx%d needs %d values, got %d", w, h, w*h, len(vals))
	}
	return FloatGrid{width: w, height: h, values: vals}, nil
}

func (fg *FloatGrid)NewFromThis() FloatGrid  { return NewFloatGrid(fg.width, fg.height) }
func (fg *FloatGrid)Set(x, y int, v float64) { fg.values[fg.width*y + x] = v }
func (fg *FloatGrid)Get(x, y int) float64    { return fg.values[fg.width*y + x] }
func (fg *FloatGrid)Dx() int                 { return fg.width }
func (fg *FloatGrid)Dy() int                 { return fg.height }
func (fg *FloatGrid)Len() int                { return len(fg.values) }

// Values exposes the backing slice; writes through it mutate the grid.
func (fg *FloatGrid)Values() []float64       { return fg.values }

// Row returns the samples of row y, sharing the backing array.
func (fg *FloatGrid)Row(y int) []float64 {
	return fg.values[y*fg.width : (y+1)*fg.width]
}

func (fg *FloatGrid)SameSize(other *FloatGrid) bool {
	return fg.width == other.width && fg.height == other.height
}

func (fg *FloatGrid)Copy() FloatGrid {
	g2 := FloatGrid{width: fg.width, height: fg.height, values: make([]float64, len(fg.values))}
	copy(g2.values, fg.values)
	return g2
}

// A BinaryOp combines a receiver sample with the operand sample at the same coordinate.
type BinaryOp func(a, b float64) float64

// ApplyBinary does values[i] = op(values[i], other.values[i]) over the whole grid. The
// caller is responsible for checking SameSize first.
func (fg *FloatGrid)ApplyBinary(other *FloatGrid, op BinaryOp) {
	for i, b := range other.values {
		fg.values[i] = op(fg.values[i], b)
	}
}

func (fg *FloatGrid)Scale(factor float64) {
	floats.Scale(factor, fg.values)
}

func (fg *FloatGrid)Statistics() Statistics {
	return ComputeStatistics(fg.values)
}

func (fg FloatGrid)String() string {
	s := fg.Statistics()
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}]", fg.width, fg.height, s.Min, s.Max)
}
