package estack

import(
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/abworrall/fits-stacker/pkg/eframe"
	"github.com/abworrall/fits-stacker/pkg/efits"
	"github.com/abworrall/fits-stacker/pkg/emath"
	"github.com/abworrall/fits-stacker/pkg/epreview"
)

const(
	StackedFilename   = "stacked_image"
	RejectionFilename = "rejections.png"
)

// A Loader turns a directory into frames of the given role.
type Loader interface {
	LoadDir(dir string, role eframe.FrameRole) ([]*eframe.Frame, error)
}

// A Session is one run of the whole pipeline: load the frames for every
// role, build the masters, calibrate the lights, stack them, and write
// out the results.
type Session struct {
	Config
	Loader     Loader
	Combiner   Combiner

	Frames     map[eframe.FrameRole][]*eframe.Frame
	Masters    Masters
	Result     *eframe.Frame
	Rejections *emath.FloatGrid // only set for sigmaclip with RejectionMap
}

func NewSession(c Config, l Loader) *Session {
	return &Session{
		Config:   c,
		Loader:   l,
		Combiner: Combiner{Workers: c.Workers, Verbosity: c.Verbosity},
		Frames:   map[eframe.FrameRole][]*eframe.Frame{},
	}
}

func (s *Session)Run() error {
	tStart := time.Now()

	steps := []struct{
		name string
		fn   func() error
	}{
		{"load", s.Load},
		{"masters", s.BuildMasters},
		{"calibrate", s.CalibrateLights},
		{"stack", s.Stack},
		{"write", s.Write},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	s.Report()
	log.Printf("Session complete (%s)\n", time.Since(tStart).Round(time.Millisecond))
	return nil
}

// Load reads every configured directory. Lights are required; the
// calibration roles are all optional.
func (s *Session)Load() error {
	for _, role := range eframe.AllRoles {
		dir := s.Dir(role)
		if dir == "" {
			continue
		}
		frames, err := s.Loader.LoadDir(dir, role)
		if err != nil {
			return err
		}
		s.Frames[role] = frames
	}

	if len(s.Frames[eframe.Light]) == 0 {
		return fmt.Errorf("no light frames in '%s': %w", s.Lights, eframe.ErrEmptyInput)
	}
	return nil
}

// BuildMasters combines each calibration role that has frames. The
// flat is built last, as it needs the darkflat (or bias) taken off
// before it is normalized.
func (s *Session)BuildMasters() error {
	for _, role := range []eframe.FrameRole{eframe.Bias, eframe.DarkFlat, eframe.Dark} {
		frames := s.Frames[role]
		if len(frames) == 0 {
			continue
		}
		reduce, err := s.GetMasterReducer(role)
		if err != nil {
			return err
		}
		master, err := s.Combiner.CreateMaster(role, frames, reduce)
		if err != nil {
			return err
		}

		switch role {
		case eframe.Bias:     s.Masters.Bias = master
		case eframe.DarkFlat: s.Masters.DarkFlat = master
		case eframe.Dark:     s.Masters.Dark = master
		}
		log.Printf("Built master %s from %d frames\n", role, len(frames))
	}

	if flats := s.Frames[eframe.Flat]; len(flats) > 0 {
		reduce, err := s.GetMasterReducer(eframe.Flat)
		if err != nil {
			return err
		}
		flatDark := s.Masters.DarkFlat
		if flatDark == nil {
			flatDark = s.Masters.Bias
		}
		master, err := s.Combiner.CreateMasterFlat(flats, reduce, flatDark)
		if err != nil {
			return err
		}
		s.Masters.Flat = master
		log.Printf("Built master flat from %d frames\n", len(flats))
	}

	if s.Verbosity > 0 {
		log.Printf("%s", s.Masters)
	}
	return nil
}

func (s *Session)CalibrateLights() error {
	if len(s.Masters.all()) == 0 {
		log.Printf("No calibration frames, stacking raw lights\n")
		return nil
	}
	return CalibrateAll(s.Frames[eframe.Light], s.Masters, s.Verbosity)
}

func (s *Session)Stack() error {
	reduce, err := s.GetReducer()
	if err != nil {
		return err
	}

	wantRejections := s.RejectionMap && isSigmaClip(s.Method)
	result, rej, err := s.Combiner.Combine(s.Frames[eframe.Light], reduce, wantRejections)
	if err != nil {
		return err
	}
	result.SourcePath = ""

	s.Result, s.Rejections = result, rej
	log.Printf("Stacked %d lights with %s\n", len(s.Frames[eframe.Light]), s.Method)
	return nil
}

// Report logs statistics for the masters and the stacked image.
func (s *Session)Report() {
	for _, f := range append(s.Masters.all(), s.Result) {
		if f == nil {
			continue
		}
		stats := f.Statistics()
		log.Printf("%-9s %s\n", f.Role, stats)
		if s.Verbosity > 1 {
			log.Printf("%s histogram (bucketed over [min,max]):\n%v\n", f.Role, emath.ValueHistogram(f.Pixels.Values(), stats))
		}
	}
}

// Write saves the stacked image and masters as FITS into the output
// dir, plus whichever extras the config asks for.
func (s *Session)Write() error {
	if s.Result == nil {
		return fmt.Errorf("nothing stacked yet")
	}
	if err := os.MkdirAll(s.Output, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %v", s.Output, err)
	}
	out := func(name string) string { return filepath.Join(s.Output, name) }

	if err := efits.Save(s.Result, out(StackedFilename+".fits")); err != nil {
		return err
	}
	log.Printf("Wrote %s\n", out(StackedFilename+".fits"))

	for _, m := range s.Masters.all() {
		filename := out(fmt.Sprintf("master_%s.fits", m.Role))
		if err := efits.Save(m, filename); err != nil {
			return err
		}
		if s.Verbosity > 0 {
			log.Printf("Wrote %s\n", filename)
		}
	}

	if s.WriteHDR {
		if err := efits.WriteHDR(s.Result, out(StackedFilename+".hdr")); err != nil {
			return err
		}
	}

	if s.Preview {
		st, err := epreview.ParseStretch(s.Stretch)
		if err != nil {
			return err
		}
		if err := epreview.WriteFramePreview(s.Result, st, s.PreviewWidth, out(StackedFilename+".png")); err != nil {
			return err
		}
	}

	if s.Rejections != nil {
		nFrames := len(s.Frames[eframe.Light])
		if err := epreview.WriteRejectionMap(s.Rejections, nFrames, s.PreviewWidth, out(RejectionFilename)); err != nil {
			return err
		}
	}

	return nil
}

func isSigmaClip(method string) bool {
	return method == "sigmaclip" || method == "sigma"
}
