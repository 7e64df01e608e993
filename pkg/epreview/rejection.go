package epreview

import(
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/abworrall/fits-stacker/pkg/emath"
)

var(
	coldColor = colorful.Color{R: 0.0, G: 0.0, B: 0.25} // nothing rejected
	hotColor  = colorful.Color{R: 1.0, G: 0.9, B: 0.1}  // everything rejected
)

// RejectionImage colours each pixel by the fraction of the `nFrames`
// samples that sigma clipping threw away there. Satellite trails and
// hot pixels show up as bright streaks and dots.
func RejectionImage(rej *emath.FloatGrid, nFrames int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, rej.Dx(), rej.Dy()))
	for y:=0; y<rej.Dy(); y++ {
		for x:=0; x<rej.Dx(); x++ {
			t := 0.0
			if nFrames > 0 {
				t = emath.Clamp(rej.Get(x, y) / float64(nFrames), 0.0, 1.0)
			}
			img.Set(x, y, coldColor.BlendLab(hotColor, t).Clamped())
		}
	}
	return img
}

func WriteRejectionMap(rej *emath.FloatGrid, nFrames, maxWidth int, filename string) error {
	if rej.Len() == 0 {
		return fmt.Errorf("rejection map: grid is empty")
	}
	total := 0.0
	for _, v := range rej.Values() {
		total += v
	}
	title := fmt.Sprintf("rejected %.0f of %d samples", total, rej.Len() * nFrames)
	return WritePNG(Downscale(RejectionImage(rej, nFrames), maxWidth), title, filename)
}
