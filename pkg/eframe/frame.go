package eframe

import(
	"fmt"
	"log"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/fits-stacker/pkg/emath"
)

// Metadata describes one exposure. The optional fields are nil (or
// "") when the source file didn't say.
type Metadata struct {
	Width         int
	Height        int
	Encoding      PixelEncoding

	ExposureTime  *float64          `yaml:",omitempty"` // seconds
	Temperature   *float64          `yaml:",omitempty"` // sensor temp, degrees C
	Gain          *int              `yaml:",omitempty"` // gain or ISO
	Filter        string            `yaml:",omitempty"`
	SourcePath    string            `yaml:",omitempty"`

	Extra         map[string]string `yaml:",omitempty"` // header keys we don't otherwise understand
}

// Clone returns a copy that shares nothing with `m`.
func (m Metadata)Clone() Metadata {
	c := m
	if m.ExposureTime != nil { v := *m.ExposureTime; c.ExposureTime = &v }
	if m.Temperature != nil  { v := *m.Temperature;  c.Temperature = &v }
	if m.Gain != nil         { v := *m.Gain;         c.Gain = &v }
	if m.Extra != nil {
		c.Extra = make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

func (m Metadata)AsYaml() string {
	b, err := yaml.Marshal(m)
	if err != nil {
		log.Printf("Can't marshal metadata yaml: %v\n", err)
		return ""
	}
	return string(b)
}

// A Frame is one exposure held in memory: metadata, the pixels (as
// float64, whatever the on-disk encoding), and its calibration role.
// A Frame owns its Pixels; nothing else should hold on to them.
type Frame struct {
	Metadata
	Pixels emath.FloatGrid
	Role   FrameRole
}

// NewFrame returns a zero-filled w x h Light frame.
func NewFrame(w, h int) *Frame {
	if w < 0 { w = 0 }
	if h < 0 { h = 0 }
	return &Frame{
		Metadata: Metadata{Width: w, Height: h},
		Pixels:   emath.NewFloatGrid(w, h),
		Role:     Light,
	}
}

// NewFrameFromValues builds a frame around `vals` (row-major, no copy).
func NewFrameFromValues(w, h int, vals []float64, role FrameRole) (*Frame, error) {
	grid, err := emath.NewFloatGridFromValues(w, h, vals)
	if err != nil {
		return nil, err
	}
	return &Frame{
		Metadata: Metadata{Width: w, Height: h},
		Pixels:   grid,
		Role:     role,
	}, nil
}

func (f *Frame)Dimensions() (int, int) { return f.Width, f.Height }

func (f *Frame)SameDimensions(other *Frame) bool {
	return f.Width == other.Width && f.Height == other.Height
}

// Validate checks that the metadata's width x height matches the pixel buffer.
func (f *Frame)Validate() error {
	if f.Width < 0 || f.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrDimensionMismatch, f.Width, f.Height)
	}
	if f.Pixels.Dx() != f.Width || f.Pixels.Dy() != f.Height || f.Pixels.Len() != f.Width*f.Height {
		return fmt.Errorf("%w: metadata says %dx%d, pixel buffer is %dx%d (%d samples)",
			ErrDimensionMismatch, f.Width, f.Height, f.Pixels.Dx(), f.Pixels.Dy(), f.Pixels.Len())
	}
	return nil
}

func (f *Frame)Statistics() emath.Statistics { return f.Pixels.Statistics() }

func (f *Frame)Filename() string {
	if f.SourcePath == "" {
		return "(memory)"
	}
	return filepath.Base(f.SourcePath)
}

func (f Frame)String() string {
	str := fmt.Sprintf("%s: %s %dx%d %s", f.Filename(), f.Role, f.Width, f.Height, f.Encoding)
	if f.ExposureTime != nil {
		str += fmt.Sprintf(", %.3fs", *f.ExposureTime)
	}
	if f.Temperature != nil {
		str += fmt.Sprintf(", %.1fC", *f.Temperature)
	}
	if f.Gain != nil {
		str += fmt.Sprintf(", gain %d", *f.Gain)
	}
	if f.Filter != "" {
		str += fmt.Sprintf(", filter %s", f.Filter)
	}
	return str
}
