package eframe

import(
	"errors"
	"math"
	"strings"
	"testing"
)

func frameOf(t *testing.T, w, h int, vals ...float64) *Frame {
	t.Helper()
	f, err := NewFrameFromValues(w, h, vals, Light)
	if err != nil {
		t.Fatalf("NewFrameFromValues: %v", err)
	}
	return f
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b *Frame) error
		want []float64
	}{
		{"add",      (*Frame).Add,      []float64{11, 22, 33, 44}},
		{"subtract", (*Frame).Subtract, []float64{9, 18, 27, 36}},
		{"multiply", (*Frame).Multiply, []float64{10, 40, 90, 160}},
		{"divide",   (*Frame).Divide,   []float64{10, 10, 10, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := frameOf(t, 2, 2, 10, 20, 30, 40)
			b := frameOf(t, 2, 2, 1, 2, 3, 4)
			if err := tt.op(a, b); err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			for i, v := range a.Pixels.Values() {
				if v != tt.want[i] {
					t.Errorf("[%d]: got %v, want %v", i, v, tt.want[i])
				}
			}
			if b.Pixels.Values()[0] != 1 {
				t.Errorf("operand was mutated")
			}
		})
	}
}

func TestDivide_ZeroGuard(t *testing.T) {
	a := frameOf(t, 2, 1, 10, 10)
	b := frameOf(t, 2, 1, 0.0, 1e-11)
	if err := a.Divide(b); err != nil {
		t.Fatalf("Divide: %v", err)
	}
	for i, v := range a.Pixels.Values() {
		if v != 0.0 || math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("[%d]: got %v, want exactly 0.0", i, v)
		}
	}
}

func TestArithmetic_DimensionMismatchLeavesReceiver(t *testing.T) {
	a := frameOf(t, 2, 2, 1, 2, 3, 4)
	b := frameOf(t, 3, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1)

	for name, op := range map[string]func(*Frame) error{
		"add": a.Add, "subtract": a.Subtract, "multiply": a.Multiply, "divide": a.Divide,
	} {
		err := op(b)
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("%s: got %v, want ErrDimensionMismatch", name, err)
		}
	}
	for i, v := range a.Pixels.Values() {
		if v != float64(i+1) {
			t.Errorf("receiver changed at %d: %v", i, v)
		}
	}
}

func TestScale(t *testing.T) {
	a := frameOf(t, 2, 2, 1.5, -2, 3, 4)
	a.Scale(1.0)
	if got := a.Pixels.Values(); got[0] != 1.5 || got[1] != -2 || got[3] != 4 {
		t.Errorf("scale(1.0) changed values: %v", got)
	}
	a.Scale(0.0)
	for i, v := range a.Pixels.Values() {
		if v != 0 {
			t.Errorf("scale(0.0) [%d] = %v", i, v)
		}
	}
}

func TestNormalizeToMean(t *testing.T) {
	a := frameOf(t, 2, 2, 2, 4, 6, 8)
	if err := a.NormalizeToMean(); err != nil {
		t.Fatalf("NormalizeToMean: %v", err)
	}
	if m := a.Statistics().Mean; math.Abs(m - 1.0) > 1e-12 {
		t.Errorf("mean after normalize: %v", m)
	}

	z := frameOf(t, 2, 1, 0, 0)
	if err := z.NormalizeToMean(); err == nil {
		t.Errorf("expected error normalizing a zero-mean frame")
	}
}

func TestValidate(t *testing.T) {
	f := NewFrame(4, 3)
	if err := f.Validate(); err != nil {
		t.Errorf("fresh frame: %v", err)
	}
	f.Width = 5
	if err := f.Validate(); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestMetadataClone(t *testing.T) {
	exp := 30.0
	m := Metadata{Width: 1, Height: 1, ExposureTime: &exp, Extra: map[string]string{"OBJECT": "M42"}}
	c := m.Clone()
	c.Extra["OBJECT"] = "M31"
	*c.ExposureTime = 60
	if m.Extra["OBJECT"] != "M42" || *m.ExposureTime != 30 {
		t.Errorf("clone aliases original: %+v", m)
	}
	if !strings.Contains(m.AsYaml(), "M42") {
		t.Errorf("yaml dump missing extra key:\n%s", m.AsYaml())
	}
}

func TestParseFrameRole(t *testing.T) {
	tests := map[string]FrameRole{
		"LIGHT":       Light,
		"Light Frame": Light,
		"dark":        Dark,
		"Flat Field":  Flat,
		"Bias Frame":  Bias,
		"DARKFLAT":    DarkFlat,
		"Dark Flat":   DarkFlat,
	}
	for in, want := range tests {
		got, err := ParseFrameRole(in)
		if err != nil || got != want {
			t.Errorf("ParseFrameRole(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFrameRole("teapot"); err == nil {
		t.Errorf("expected error for unknown role")
	}
	for _, r := range AllRoles {
		if got, err := ParseFrameRole(r.HeaderValue()); err != nil || got != r {
			t.Errorf("round trip %v: got %v, %v", r, got, err)
		}
	}
}

func TestPixelEncodingQuantize(t *testing.T) {
	tests := []struct {
		enc  PixelEncoding
		in   float64
		want float64
	}{
		{EncodingU16, 70000, 65535},
		{EncodingU16, -5, 0},
		{EncodingU16, 12.6, 13},
		{EncodingI16, -40000, -32768},
		{EncodingU8, 300, 255},
		{EncodingU8, math.NaN(), 0},
		{EncodingF32, 1.25, 1.25},
	}
	for _, tt := range tests {
		if got := tt.enc.Quantize(tt.in); got != tt.want {
			t.Errorf("%s.Quantize(%v) = %v, want %v", tt.enc, tt.in, got, tt.want)
		}
	}

	if e, err := ParsePixelEncoding("F64"); err != nil || e != EncodingF64 {
		t.Errorf("ParsePixelEncoding(F64) = %v, %v", e, err)
	}
	if _, err := ParsePixelEncoding("u12"); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("got %v, want ErrUnsupportedEncoding", err)
	}
}
