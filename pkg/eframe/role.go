package eframe

import(
	"fmt"
	"strings"
)

// A FrameRole is what part an exposure plays in calibration.
type FrameRole int

const(
	Light FrameRole = iota
	Dark
	Flat
	Bias
	DarkFlat
)

var AllRoles = []FrameRole{Light, Dark, Flat, Bias, DarkFlat}

func (r FrameRole)String() string {
	switch r {
	case Light:    return "light"
	case Dark:     return "dark"
	case Flat:     return "flat"
	case Bias:     return "bias"
	case DarkFlat: return "darkflat"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// HeaderValue is how the role is written into a FITS FRAME card.
func (r FrameRole)HeaderValue() string { return strings.ToUpper(r.String()) }

// ParseFrameRole accepts our own names (any case), plus the usual
// IMAGETYP values written by capture software, e.g. "Light Frame",
// "Flat Field", "Bias Frame", "Dark Flat".
func ParseFrameRole(s string) (FrameRole, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.TrimSuffix(norm, " frame")
	norm = strings.TrimSuffix(norm, " field")
	norm = strings.ReplaceAll(norm, " ", "")
	norm = strings.ReplaceAll(norm, "_", "")
	norm = strings.ReplaceAll(norm, "-", "")

	switch norm {
	case "light", "object", "science": return Light, nil
	case "dark":                       return Dark, nil
	case "flat":                       return Flat, nil
	case "bias", "offset", "zero":     return Bias, nil
	case "darkflat", "flatdark":       return DarkFlat, nil
	}
	return Light, fmt.Errorf("no frame role named '%s'", s)
}

func (r FrameRole)MarshalYAML() (interface{}, error) { return r.String(), nil }

func (r *FrameRole)UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseFrameRole(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}
