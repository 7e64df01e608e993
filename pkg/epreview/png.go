package epreview

// Non-interactive previews: stretched greyscale PNGs with a caption
// burned in, so a directory of outputs can be eyeballed quickly.

import(
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/abworrall/fits-stacker/pkg/eframe"
	"github.com/abworrall/fits-stacker/pkg/emath"
)

// ToGray16 turns a grid of [0,1] values into a 16 bit greyscale image,
// optionally applying the sRGB gamma curve.
func ToGray16(g *emath.FloatGrid, gamma bool) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, g.Dx(), g.Dy()))
	for y:=0; y<g.Dy(); y++ {
		for x:=0; x<g.Dx(); x++ {
			v := emath.Clamp(g.Get(x, y), 0.0, 1.0)
			if gamma {
				v = emath.GammaExpand_F64(v)
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v * 65535.0)})
		}
	}
	return img
}

// Downscale shrinks the image to maxWidth pixels wide, keeping the aspect
// ratio. Images already narrow enough (or maxWidth <= 0) come back as-is.
func Downscale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 { h = 1 }

	dst := image.NewRGBA64(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// WritePNG saves the image, with `title` drawn in the top left.
func WritePNG(img image.Image, title, filename string) error {
	dc := gg.NewContextForImage(img)
	if title != "" {
		dc.SetRGB(1, 1, 1)
		dc.DrawString(title, 10, 20)
	}
	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("png write '%s': %v", filename, err)
	}
	return nil
}

// WriteFramePreview stretches the frame and writes it as a PNG, captioned
// with the frame's role and statistics.
func WriteFramePreview(f *eframe.Frame, st Stretch, maxWidth int, filename string) error {
	if f.Width == 0 || f.Height == 0 {
		return fmt.Errorf("preview %s: frame is empty (%dx%d)", f.Filename(), f.Width, f.Height)
	}
	stretched := st.Apply(&f.Pixels)
	img := Downscale(ToGray16(&stretched, st == StretchLinear), maxWidth)
	title := fmt.Sprintf("%s [%s] %s", f.Role, st, f.Statistics())
	return WritePNG(img, title, filename)
}
