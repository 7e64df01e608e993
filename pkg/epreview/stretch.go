package epreview

import(
	"fmt"
	"math"

	"github.com/abworrall/fits-stacker/pkg/emath"
)

// A Stretch maps raw sample values onto [0,1] for display.
type Stretch int

const(
	StretchLinear Stretch = iota // min..max
	StretchLog                   // ln(v-min+eps) / ln(max-min+eps); brings up faint detail
	StretchAuto                  // [mean-2sd, mean+4sd], clipped to min..max
	StretchPercentile            // 0.5th to 99.5th percentile
)

var stretchNames = map[string]Stretch{
	"linear":     StretchLinear,
	"log":        StretchLog,
	"auto":       StretchAuto,
	"percentile": StretchPercentile,
}

func ParseStretch(s string) (Stretch, error) {
	if st, exists := stretchNames[s]; exists {
		return st, nil
	}
	return StretchLinear, fmt.Errorf("no stretch named '%s', want linear, log, auto or percentile", s)
}

func (s Stretch)String() string {
	for name, st := range stretchNames {
		if st == s {
			return name
		}
	}
	return fmt.Sprintf("stretch(%d)", int(s))
}

const logEpsilon = 0.001

// Apply returns a new grid with every sample mapped into [0,1]. A
// grid with no spread (max == min) comes back all zero.
func (s Stretch)Apply(g *emath.FloatGrid) emath.FloatGrid {
	out := g.NewFromThis()
	stats := g.Statistics()
	min, max := stats.Min, stats.Max
	if g.Len() == 0 || !(max > min) {
		return out
	}

	lo, hi := min, max
	switch s {
	case StretchAuto:
		lo = math.Max(stats.Mean - 2.0*stats.StdDev, min)
		hi = math.Min(stats.Mean + 4.0*stats.StdDev, max)
	case StretchPercentile:
		lo, hi = emath.ApproxPercentiles(g.Values(), 0.5, 99.5)
	}
	if !(hi > lo) {
		return out
	}

	logDenom := math.Log(max - min + logEpsilon)

	dst := out.Values()
	for i, v := range g.Values() {
		t := 0.0
		if s == StretchLog {
			if v > min {
				t = math.Log(v - min + logEpsilon) / logDenom
			}
		} else {
			t = (v - lo) / (hi - lo)
		}
		if math.IsNaN(t) {
			t = 0.0
		}
		dst[i] = emath.Clamp(t, 0.0, 1.0)
	}

	return out
}
