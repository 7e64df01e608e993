package estack

import(
	"fmt"
	"log"

	"github.com/abworrall/fits-stacker/pkg/eframe"
)

// Masters holds the combined calibration frames. Any of them may be nil.
type Masters struct {
	Bias     *eframe.Frame
	Dark     *eframe.Frame
	Flat     *eframe.Frame // normalized, mean == 1.0
	DarkFlat *eframe.Frame
}

func (m Masters)String() string {
	str := "Masters[\n"
	for _, f := range m.all() {
		str += fmt.Sprintf("  %s\n", f)
	}
	return str + "]\n"
}

func (m Masters)all() []*eframe.Frame {
	frames := []*eframe.Frame{}
	for _, f := range []*eframe.Frame{m.Bias, m.Dark, m.Flat, m.DarkFlat} {
		if f != nil {
			frames = append(frames, f)
		}
	}
	return frames
}

// CreateMaster combines the frames and stamps the result with `role`.
func (c Combiner)CreateMaster(role eframe.FrameRole, frames []*eframe.Frame, reduce PixelReducer) (*eframe.Frame, error) {
	master, _, err := c.Combine(frames, reduce, false)
	if err != nil {
		return nil, fmt.Errorf("master %s: %w", role, err)
	}
	master.Role = role
	master.SourcePath = ""
	return master, nil
}

// CreateMasterFlat combines the flats, takes off `flatDark` (a master
// darkflat, or failing that a master bias; nil skips this step), and
// then scales the result so its mean is 1.0.
func (c Combiner)CreateMasterFlat(frames []*eframe.Frame, reduce PixelReducer, flatDark *eframe.Frame) (*eframe.Frame, error) {
	master, err := c.CreateMaster(eframe.Flat, frames, reduce)
	if err != nil {
		return nil, err
	}

	if flatDark != nil {
		if err := master.Subtract(flatDark); err != nil {
			return nil, fmt.Errorf("master flat, removing %s: %w", flatDark.Role, err)
		}
	}

	if err := master.NormalizeToMean(); err != nil {
		return nil, fmt.Errorf("master flat: %w", err)
	}
	master.Encoding = eframe.EncodingF32 // normalized samples sit around 1.0, so save as float

	return master, nil
}

// Calibrate corrects a light frame in place: subtract the master dark
// (which already contains the bias; if there's no dark, subtract the
// bias instead), then divide by the normalized master flat. All the
// masters are size-checked first, so on error the light is untouched.
func Calibrate(light *eframe.Frame, m Masters) error {
	for _, master := range m.all() {
		if !light.SameDimensions(master) {
			return fmt.Errorf("calibrate %s with master %s: %w: %dx%d vs %dx%d", light.Filename(),
				master.Role, eframe.ErrDimensionMismatch, light.Width, light.Height, master.Width, master.Height)
		}
	}

	if m.Dark != nil {
		if err := light.Subtract(m.Dark); err != nil {
			return err
		}
	} else if m.Bias != nil {
		if err := light.Subtract(m.Bias); err != nil {
			return err
		}
	}

	if m.Flat != nil {
		if err := light.Divide(m.Flat); err != nil {
			return err
		}
	}

	return nil
}

// CalibrateAll calibrates each light. Every light is checked before any
// is changed.
func CalibrateAll(lights []*eframe.Frame, m Masters, verbosity int) error {
	for _, light := range lights {
		for _, master := range m.all() {
			if !light.SameDimensions(master) {
				return fmt.Errorf("calibrate %s with master %s: %w", light.Filename(), master.Role,
					eframe.ErrDimensionMismatch)
			}
		}
	}

	for _, light := range lights {
		if err := Calibrate(light, m); err != nil {
			return err
		}
		if verbosity > 0 {
			log.Printf("Calibrated %s\n", light)
		}
	}
	return nil
}
