package efits

import(
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"os"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/fits-stacker/pkg/eframe"
)

// hdrFrame presents a frame as a grey hdr.Image. Samples are divided by
// `norm`; negative and NaN samples become black.
type hdrFrame struct {
	f    *eframe.Frame
	norm float64
}

// Implement image.Image
func (hf hdrFrame)ColorModel() color.Model       { return hdrcolor.RGBModel }
func (hf hdrFrame)Bounds() image.Rectangle       { return image.Rect(0, 0, hf.f.Width, hf.f.Height) }
func (hf hdrFrame)At(x, y int) color.Color       { return hf.HDRAt(x,y) }

// Implement hdr.Image
func (hf hdrFrame)Size() int                     { return hf.f.Width * hf.f.Height }
func (hf hdrFrame)HDRAt(x, y int) hdrcolor.Color {
	v := hf.f.Pixels.Get(x, y) / hf.norm
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	return hdrcolor.RGB{R: v, G: v, B: v}
}

// WriteHDR outputs the frame as a Radiance RGBE file, scaled so the
// brightest sample is 1.0. You can load this into photoshop or other HDR tools.
func WriteHDR(f *eframe.Frame, filename string) error {
	if f.Width == 0 || f.Height == 0 {
		return fmt.Errorf("WriteHDR '%s': frame is empty", filename)
	}

	norm := f.Statistics().Max
	if norm <= 0 || math.IsInf(norm, 0) || math.IsNaN(norm) {
		norm = 1.0
	}

	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("WriteHDR, open+w '%s': %v", filename, err)
	}
	defer writer.Close()

	if err := rgbe.Encode(writer, hdrFrame{f: f, norm: norm}); err != nil {
		log.Printf("WriteHDR, encoding RGBE file: %v\n", err)
		return err
	}
	return nil
}
