package estack

import(
	"fmt"
	"log"
	"math"
	"runtime"

	"gonum.org/v1/gonum/stat"

	"github.com/abworrall/fits-stacker/pkg/eframe"
	"github.com/abworrall/fits-stacker/pkg/emath"
)

// A PixelReducer turns the samples gathered from every frame at one
// coordinate into a single output sample. `samples` is scratch space
// owned by the calling worker; the reducer may reorder or truncate it.
// It also returns how many samples it discarded (only sigma clipping
// discards any).
type PixelReducer func(samples []float64) (float64, int)

// ReduceByAverage is the arithmetic mean of the samples.
func ReduceByAverage(samples []float64) (float64, int) {
	return emath.Mean(samples), 0
}

// ReduceByMedian sorts the samples; odd counts take the middle one,
// even counts average the middle two. NaNs sort first.
func ReduceByMedian(samples []float64) (float64, int) {
	return emath.Median(samples), 0
}

// ReduceBySigmaClip repeatedly discards samples further than
// sigma*stddev from the mean (the running mean ReduceByAverage uses,
// and the population stddev about it), for up to `iterations` rounds,
// stopping early once 2 or fewer samples remain or a round discards
// nothing. The result is the mean of what's left,
// or 0.0 if everything was discarded. With iterations == 0 this is
// exactly ReduceByAverage.
//
// A NaN sample turns the mean into NaN, and then every sample falls
// outside the bounds, so such a pixel comes out as 0.0.
func ReduceBySigmaClip(sigma float64, iterations int) PixelReducer {
	return func(samples []float64) (float64, int) {
		n := len(samples)
		vals := samples

		for i:=0; i<iterations; i++ {
			if len(vals) <= 2 {
				break
			}

			// Plain second pass about the running mean: identical samples
			// give exactly mean == v and stdDev == 0, so none are dropped.
			mean := emath.Mean(vals)
			stdDev := math.Sqrt(stat.MomentAbout(2, vals, mean, nil))
			lo := mean - sigma*stdDev
			hi := mean + sigma*stdDev

			kept := vals[:0]
			for _, v := range vals {
				if v >= lo && v <= hi {
					kept = append(kept, v)
				}
			}

			converged := len(kept) == len(vals)
			vals = kept
			if converged {
				break
			}
		}

		if len(vals) == 0 {
			return 0.0, n
		}
		return emath.Mean(vals), n - len(vals)
	}
}

// A Combiner reduces a stack of same-sized frames into one. The rows
// of the output are farmed out to a pool of workers; each worker only
// reads the input frames and only writes its own output rows.
type Combiner struct {
	Workers   int // <= 0 means one per CPU
	Verbosity int
}

func NewCombiner(workers int) Combiner {
	return Combiner{Workers: workers}
}

func (c Combiner)Average(frames []*eframe.Frame) (*eframe.Frame, error) {
	out, _, err := c.Combine(frames, ReduceByAverage, false)
	return out, err
}

func (c Combiner)Median(frames []*eframe.Frame) (*eframe.Frame, error) {
	out, _, err := c.Combine(frames, ReduceByMedian, false)
	return out, err
}

func (c Combiner)SigmaClip(frames []*eframe.Frame, sigma float64, iterations int) (*eframe.Frame, error) {
	out, _, err := c.Combine(frames, ReduceBySigmaClip(sigma, iterations), false)
	return out, err
}

// SigmaClipWithRejections is SigmaClip, but also returns a grid
// holding how many samples were discarded at each coordinate.
func (c Combiner)SigmaClipWithRejections(frames []*eframe.Frame, sigma float64, iterations int) (*eframe.Frame, emath.FloatGrid, error) {
	out, rej, err := c.Combine(frames, ReduceBySigmaClip(sigma, iterations), true)
	if err != nil {
		return nil, emath.FloatGrid{}, err
	}
	return out, *rej, nil
}

// Combine runs `reduce` over every coordinate of the stack. Nothing is
// allocated until the stack has been validated. The output copies the
// metadata and role of the first frame, and owns a fresh pixel buffer.
// If wantRejections is set, the second return value holds the
// per-coordinate discard counts.
func (c Combiner)Combine(frames []*eframe.Frame, reduce PixelReducer, wantRejections bool) (*eframe.Frame, *emath.FloatGrid, error) {
	if err := ValidateStack(frames); err != nil {
		return nil, nil, err
	}

	first := frames[0]
	out := &eframe.Frame{
		Metadata: first.Metadata.Clone(),
		Pixels:   emath.NewFloatGrid(first.Width, first.Height),
		Role:     first.Role,
	}

	var rejections *emath.FloatGrid
	if wantRejections {
		g := emath.NewFloatGrid(first.Width, first.Height)
		rejections = &g
	}

	if c.Verbosity > 0 {
		log.Printf("Combining %d %s frames (%dx%d) with %d workers\n",
			len(frames), first.Role, first.Width, first.Height, c.numWorkers(first.Height))
	}

	c.forEachRow(first.Height, len(frames), func(y int, samples []float64, rows [][]float64) {
		for i, f := range frames {
			rows[i] = f.Pixels.Row(y)
		}
		outRow := out.Pixels.Row(y)
		var rejRow []float64
		if rejections != nil {
			rejRow = rejections.Row(y)
		}

		for x:=0; x<first.Width; x++ {
			samples = samples[:len(frames)]
			for i := range rows {
				samples[i] = rows[i][x]
			}
			v, nRejected := reduce(samples)
			outRow[x] = v
			if rejRow != nil {
				rejRow[x] = float64(nRejected)
			}
		}
	})

	return out, rejections, nil
}

// ValidateStack checks the shared preconditions: at least one frame,
// and every frame the same size as the first.
func ValidateStack(frames []*eframe.Frame) error {
	if len(frames) == 0 {
		return eframe.ErrEmptyInput
	}
	for i, f := range frames {
		if f == nil {
			return fmt.Errorf("frame %d is nil: %w", i, eframe.ErrEmptyInput)
		}
		if err := f.Validate(); err != nil {
			return fmt.Errorf("frame %d (%s): %w", i, f.Filename(), err)
		}
		if !f.SameDimensions(frames[0]) {
			return fmt.Errorf("frame %d (%s) is %dx%d, frame 0 is %dx%d: %w", i, f.Filename(),
				f.Width, f.Height, frames[0].Width, frames[0].Height, eframe.ErrDimensionMismatch)
		}
	}
	return nil
}

func (c Combiner)numWorkers(nRows int) int {
	n := c.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > nRows {
		n = nRows
	}
	if n < 1 {
		n = 1
	}
	return n
}
