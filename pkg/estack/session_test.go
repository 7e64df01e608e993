package estack

import(
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/abworrall/fits-stacker/pkg/eframe"
	"github.com/abworrall/fits-stacker/pkg/efits"
)

// fakeLoader hands out canned frames, keyed by directory name.
type fakeLoader map[string][]*eframe.Frame

func (fl fakeLoader)LoadDir(dir string, role eframe.FrameRole) ([]*eframe.Frame, error) {
	frames, exists := fl[dir]
	if !exists {
		return nil, fmt.Errorf("no such dir %s", dir)
	}
	for _, f := range frames {
		f.Role = role
	}
	return frames, nil
}

func newTestSession(t *testing.T, l Loader) *Session {
	t.Helper()
	c := NewConfig()
	c.Lights, c.Darks, c.Flats, c.Bias = "lights", "darks", "flats", "bias"
	c.Output = t.TempDir()
	return NewSession(c, l)
}

func TestSession_Run(t *testing.T) {
	l := fakeLoader{
		"lights": {constFrame(t, 4, 3, 110), constFrame(t, 4, 3, 120), constFrame(t, 4, 3, 130)},
		"darks":  {constFrame(t, 4, 3, 20), constFrame(t, 4, 3, 20)},
		"flats":  {constFrame(t, 4, 3, 3), constFrame(t, 4, 3, 3)},
		"bias":   {constFrame(t, 4, 3, 1), constFrame(t, 4, 3, 1), constFrame(t, 4, 3, 1)},
	}
	s := newTestSession(t, l)
	s.Method = "sigmaclip"
	s.RejectionMap = true
	s.Preview = true
	s.WriteHDR = true

	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if s.Masters.Bias == nil || s.Masters.Dark == nil || s.Masters.Flat == nil || s.Masters.DarkFlat != nil {
		t.Fatalf("masters: %s", s.Masters)
	}
	assertAll(t, s.Masters.Flat, 1)  // (3 - bias 1), normalized
	assertAll(t, s.Result, 100)      // mean(110,120,130) - dark 20, / flat 1
	if s.Result.Role != eframe.Light {
		t.Errorf("result role: got %s", s.Result.Role)
	}
	if s.Rejections == nil {
		t.Fatalf("no rejection grid")
	}

	for _, name := range []string{
		"stacked_image.fits", "stacked_image.hdr", "stacked_image.png", RejectionFilename,
		"master_dark.fits", "master_flat.fits", "master_bias.fits",
	} {
		if _, err := os.Stat(filepath.Join(s.Output, name)); err != nil {
			t.Errorf("output %s: %v", name, err)
		}
	}

	stacked, err := efits.LoadFile(filepath.Join(s.Output, "stacked_image.fits"), eframe.Dark)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stacked.Role != eframe.Light || stacked.Pixels.Get(3, 2) != 100 {
		t.Errorf("reloaded stack: %s, pixel %v", stacked, stacked.Pixels.Get(3, 2))
	}
}

func TestSession_LightsOnly(t *testing.T) {
	l := fakeLoader{"lights": {constFrame(t, 2, 2, 1), constFrame(t, 2, 2, 4), constFrame(t, 2, 2, 100)}}
	s := newTestSession(t, l)
	s.Darks, s.Flats, s.Bias = "", "", ""
	s.Method = "median"

	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertAll(t, s.Result, 4)
	if s.Rejections != nil {
		t.Errorf("rejection grid built for a median stack")
	}
}

func TestSession_Errors(t *testing.T) {
	noLights := fakeLoader{"lights": {}, "darks": {}, "flats": {}, "bias": {}}
	if err := newTestSession(t, noLights).Run(); !errors.Is(err, eframe.ErrEmptyInput) {
		t.Errorf("no lights: got %v, want ErrEmptyInput", err)
	}

	mismatched := fakeLoader{
		"lights": {constFrame(t, 2, 2, 1)},
		"darks":  {constFrame(t, 3, 3, 1)},
		"flats":  {},
		"bias":   {},
	}
	if err := newTestSession(t, mismatched).Run(); !errors.Is(err, eframe.ErrDimensionMismatch) {
		t.Errorf("mismatched dark: got %v, want ErrDimensionMismatch", err)
	}

	if err := newTestSession(t, fakeLoader{}).Run(); err == nil {
		t.Errorf("expected an error from the loader")
	}
}
