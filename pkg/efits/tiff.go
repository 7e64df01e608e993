package efits

import(
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/abworrall/fits-stacker/pkg/eframe"
)

// loadTIFF reads a (camera-exported) TIFF as a single greyscale plane.
// EXIF is optional; whatever exposure data is present ends up in the
// metadata.
func loadTIFF(filename string, role eframe.FrameRole) (*eframe.Frame, error) {
	md := eframe.Metadata{SourcePath: filename, Extra: map[string]string{}}

	// First, try to load the EXIF metadata.
	if reader, err := os.Open(filename); err != nil {
		return nil, fmt.Errorf("open+r exif '%s': %v", filename, err)
	} else {
		defer reader.Close()
		if ex, err := exif.Decode(reader); err == nil {
			readExif(ex, &md)
		}
	}

	// Re-open the file, now for the image data
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	img, err := tiff.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("tiff loading '%s': %v", filename, err)
	}

	b := img.Bounds()
	f := eframe.NewFrame(b.Dx(), b.Dy())
	enc := tiffEncoding(img)
	for y:=0; y<b.Dy(); y++ {
		for x:=0; x<b.Dx(); x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			v := float64(g.Y)
			if enc == eframe.EncodingU8 {
				v = float64(g.Y >> 8)
			}
			f.Pixels.Set(x, y, v)
		}
	}

	md.Width, md.Height, md.Encoding = b.Dx(), b.Dy(), enc
	if len(md.Extra) == 0 {
		md.Extra = nil
	}
	f.Metadata = md
	f.Role = role

	return f, nil
}

func tiffEncoding(img image.Image) eframe.PixelEncoding {
	switch img.(type) {
	case *image.Gray, *image.RGBA, *image.NRGBA, *image.Paletted, *image.CMYK:
		return eframe.EncodingU8
	}
	return eframe.EncodingU16
}

func readExif(ex *exif.Exif, md *eframe.Metadata) {
	if tag,err := ex.Get(exif.ExposureTime); err == nil {
		if num,denom,err := tag.Rat2(0); err == nil && denom != 0 {
			v := float64(num) / float64(denom)
			md.ExposureTime = &v
		}
	}

	if tag,err := ex.Get(exif.ISOSpeedRatings); err == nil {
		if val,err := tag.Int64(0); err == nil {
			iso := int(val)
			md.Gain = &iso
		}
	}

	if tag,err := ex.Get(exif.Model); err == nil {
		if val,err := tag.StringVal(); err == nil {
			md.Extra["INSTRUME"] = strings.TrimSpace(strings.Trim(val, "\x00"))
		}
	}

	if tm,err := ex.DateTime(); err == nil {
		md.Extra["DATE-OBS"] = tm.Format("2006-01-02T15:04:05")
	}
}
