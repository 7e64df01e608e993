package emath

import(
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/codahale/hdrhistogram"
	"github.com/skypies/util/histogram"
)

// Statistics is a snapshot of a set of samples. It is not kept in
// sync with the buffer it came from.
type Statistics struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64 // population std dev (divide by N, not N-1)
}

func (s Statistics)String() string {
	return fmt.Sprintf("min=%.4f max=%.4f mean=%.4f median=%.4f stddev=%.4f",
		s.Min, s.Max, s.Mean, s.Median, s.StdDev)
}

// ComputeStatistics makes one pass for min/max/sum, a second pass for
// the squared deviations from the mean, and then sorts a copy to find
// the median. An empty slice gives all-zero Statistics.
//
// NaN samples are skipped by min/max (the comparisons are false), but
// poison the sum, so mean and stddev come out as NaN. In the median
// sort they are ordered before every other value.
func ComputeStatistics(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}

	min, max, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, v := range values {
		sum += v
		if v < min { min = v }
		if v > max { max = v }
	}

	n := float64(len(values))
	mean := sum / n

	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d*d
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)

	return Statistics{
		Min:    min,
		Max:    max,
		Mean:   mean,
		Median: Median(sorted),
		StdDev: math.Sqrt(sumSq / n),
	}
}

// Median sorts `values` in place and returns the middle value, or the
// average of the two middle values if there is an even count. Returns
// 0.0 for an empty slice. sort.Float64s puts NaNs first.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0.0
	}
	sort.Float64s(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2.0
}

// Mean is a running mean; N copies of the same value come back as
// exactly that value, which a sum-then-divide can't promise. Returns
// 0.0 for an empty slice.
func Mean(values []float64) float64 {
	m := 0.0
	for i, v := range values {
		m += (v - m) / float64(i+1)
	}
	return m
}

const percentileSteps = 100000

// ApproxPercentiles returns the values at the lo and hi percentiles
// (both in [0,100]). Samples are quantized into percentileSteps steps
// over [min,max] and fed into an HDR histogram, so the answer is only
// as good as that quantization. Non-finite samples are ignored.
func ApproxPercentiles(values []float64, lo, hi float64) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) { continue }
		if v < min { min = v }
		if v > max { max = v }
	}
	if min > max {
		return 0.0, 0.0
	} else if min == max {
		return min, max
	}

	scale := float64(percentileSteps) / (max - min)
	h := hdrhistogram.New(1, percentileSteps, 3)
	if dropped := recordQuantized(h, values, min, scale); dropped > 0 {
		log.Printf("ApproxPercentiles: %d of %d samples could not be recorded\n", dropped, len(values))
	}

	vLo := min + float64(h.ValueAtQuantile(lo)) / scale
	vHi := min + float64(h.ValueAtQuantile(hi)) / scale
	if vHi > max { vHi = max }

	return vLo, vHi
}

// recordQuantized records (v-min)*scale for every finite sample, and
// returns how many the histogram refused.
func recordQuantized(h *hdrhistogram.Histogram, values []float64, min, scale float64) int {
	dropped := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) { continue }
		if err := h.RecordValue(int64((v - min) * scale)); err != nil {
			dropped++
		}
	}
	return dropped
}

// ValueHistogram buckets the samples by where they sit between the
// Statistics' min and max, for logging.
func ValueHistogram(values []float64, s Statistics) histogram.Histogram {
	h := histogram.Histogram{NumBuckets:32, ValMin:0, ValMax:1024}

	span := s.Max - s.Min
	for _, v := range values {
		if math.IsNaN(v) { continue }
		bucket := 0
		if span > 0 {
			bucket = int((v - s.Min) / span * 1023.0)
		}
		h.Add(histogram.ScalarVal(bucket))
	}

	return h
}
