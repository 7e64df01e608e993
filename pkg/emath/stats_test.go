package emath

import(
	"math"
	"testing"

	"github.com/codahale/hdrhistogram"
)

func TestComputeStatistics(t *testing.T) {
	s := ComputeStatistics([]float64{1, 2, 3, 4})

	if s.Min != 1 || s.Max != 4 {
		t.Errorf("min/max: got %v/%v, want 1/4", s.Min, s.Max)
	}
	if s.Mean != 2.5 {
		t.Errorf("mean: got %v, want 2.5", s.Mean)
	}
	if s.Median != 2.5 {
		t.Errorf("median: got %v, want 2.5", s.Median)
	}
	if math.Abs(s.StdDev - 1.118033988749895) > 1e-9 {
		t.Errorf("stddev: got %v, want ~1.11803", s.StdDev)
	}
}

func TestComputeStatistics_Empty(t *testing.T) {
	if s := ComputeStatistics(nil); s != (Statistics{}) {
		t.Errorf("empty: got %+v, want all zero", s)
	}
}

func TestComputeStatistics_DoesNotReorderInput(t *testing.T) {
	vals := []float64{3, 1, 2}
	ComputeStatistics(vals)
	if vals[0] != 3 || vals[1] != 1 || vals[2] != 2 {
		t.Errorf("input was mutated: %v", vals)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"single", []float64{7}, 7},
		{"pair", []float64{4, 2}, 3},
		{"odd", []float64{9, 1, 5}, 5},
		{"even", []float64{10, 40, 20, 30}, 25},
		{"ties", []float64{2, 2, 2, 9}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.in); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMedian_NaNSortsFirst(t *testing.T) {
	vals := []float64{5, math.NaN(), 1}
	if got := Median(vals); got != 1 {
		t.Errorf("got %v, want 1 (NaN ordered before 1 and 5)", got)
	}
}

func TestMean_IdenticalValuesExact(t *testing.T) {
	vals := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	if got := Mean(vals); got != 0.1 {
		t.Errorf("got %.20f, want exactly 0.1", got)
	}
	if got := Mean(nil); got != 0 {
		t.Errorf("empty: got %v, want 0", got)
	}
}

func TestApproxPercentiles(t *testing.T) {
	vals := make([]float64, 1000)
	for i := range vals {
		vals[i] = float64(i)
	}

	lo, hi := ApproxPercentiles(vals, 1, 99)
	if math.Abs(lo - 10) > 2 || math.Abs(hi - 989) > 2 {
		t.Errorf("got [%v,%v], want about [10,989]", lo, hi)
	}

	lo, hi = ApproxPercentiles([]float64{4, 4, 4}, 1, 99)
	if lo != 4 || hi != 4 {
		t.Errorf("flat: got [%v,%v], want [4,4]", lo, hi)
	}
}

func TestRecordQuantized(t *testing.T) {
	h := hdrhistogram.New(1, percentileSteps, 3)
	dropped := recordQuantized(h, []float64{0, 0.5, 1, math.NaN(), math.Inf(1), 1e12}, 0, float64(percentileSteps))
	if dropped != 1 {
		t.Errorf("dropped: got %d, want 1 (the 1e12 sample)", dropped)
	}
	if h.TotalCount() != 3 {
		t.Errorf("recorded: got %d, want 3", h.TotalCount())
	}
}

func TestSafeDivide(t *testing.T) {
	if got := SafeDivide(5, 0); got != 0 {
		t.Errorf("divide by zero: got %v, want 0", got)
	}
	if got := SafeDivide(5, 1e-12); got != 0 {
		t.Errorf("divide by tiny: got %v, want 0", got)
	}
	if got := SafeDivide(6, 2); got != 3 {
		t.Errorf("got %v, want 3", got)
	}
}

func TestFloatGrid(t *testing.T) {
	g := NewFloatGrid(3, 2)
	g.Set(2, 1, 5)
	if g.Values()[5] != 5 {
		t.Errorf("row-major layout broken: %v", g.Values())
	}
	if row := g.Row(1); len(row) != 3 || row[2] != 5 {
		t.Errorf("Row(1) = %v", row)
	}

	c := g.Copy()
	c.Set(0, 0, 9)
	if g.Get(0, 0) != 0 {
		t.Errorf("copy aliases original")
	}

	g.Scale(2)
	if g.Get(2, 1) != 10 {
		t.Errorf("scale: got %v, want 10", g.Get(2, 1))
	}

	if _, err := NewFloatGridFromValues(2, 2, []float64{1, 2, 3}); err == nil {
		t.Errorf("expected error for short value slice")
	}

	empty := NewFloatGrid(0, 5)
	if empty.Dx() != 0 || empty.Dy() != 5 || empty.Len() != 0 {
		t.Errorf("zero-width grid: %dx%d len %d", empty.Dx(), empty.Dy(), empty.Len())
	}
}
