package eframe

import(
	"fmt"
	"math"
	"strings"
)

// A PixelEncoding records how the samples were stored on disk, so we
// can write them back out the same way. All arithmetic happens on
// float64 regardless.
type PixelEncoding int

const(
	EncodingU16 PixelEncoding = iota // Most common for astro cameras, so it's the zero value
	EncodingU8
	EncodingU32
	EncodingI16
	EncodingI32
	EncodingF32
	EncodingF64
)

var encodingNames = map[PixelEncoding]string{
	EncodingU8:  "u8",
	EncodingU16: "u16",
	EncodingU32: "u32",
	EncodingI16: "i16",
	EncodingI32: "i32",
	EncodingF32: "f32",
	EncodingF64: "f64",
}

func (e PixelEncoding)String() string {
	if s, exists := encodingNames[e]; exists {
		return s
	}
	return fmt.Sprintf("encoding(%d)", int(e))
}

func ParsePixelEncoding(s string) (PixelEncoding, error) {
	for e, name := range encodingNames {
		if strings.EqualFold(s, name) {
			return e, nil
		}
	}
	return EncodingU16, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, s)
}

func (e PixelEncoding)MarshalYAML() (interface{}, error) { return e.String(), nil }

func (e *PixelEncoding)UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParsePixelEncoding(s)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

func (e PixelEncoding)BytesPerSample() int {
	switch e {
	case EncodingU8:                            return 1
	case EncodingU16, EncodingI16:              return 2
	case EncodingU32, EncodingI32, EncodingF32: return 4
	case EncodingF64:                           return 8
	}
	return 0
}

func (e PixelEncoding)IsFloat() bool { return e == EncodingF32 || e == EncodingF64 }

// Range returns the smallest and largest value the encoding can hold.
func (e PixelEncoding)Range() (float64, float64) {
	switch e {
	case EncodingU8:  return 0, math.MaxUint8
	case EncodingU16: return 0, math.MaxUint16
	case EncodingU32: return 0, math.MaxUint32
	case EncodingI16: return math.MinInt16, math.MaxInt16
	case EncodingI32: return math.MinInt32, math.MaxInt32
	case EncodingF32: return -math.MaxFloat32, math.MaxFloat32
	}
	return -math.MaxFloat64, math.MaxFloat64
}

// Quantize maps a working sample onto a value the encoding can store:
// integer encodings round to nearest and clamp (NaN becomes 0), float
// encodings pass through untouched.
func (e PixelEncoding)Quantize(v float64) float64 {
	if e.IsFloat() {
		return v
	}
	if math.IsNaN(v) {
		return 0
	}
	lo, hi := e.Range()
	v = math.Round(v)
	if v < lo { return lo }
	if v > hi { return hi }
	return v
}
