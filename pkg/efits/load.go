package efits

import(
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/abworrall/fits-stacker/pkg/eframe"
)

// A DirLoader loads every recognized image file in a directory, in
// filename order.
type DirLoader struct {
	Verbosity int
}

func (dl DirLoader)LoadDir(dir string, role eframe.FrameRole) ([]*eframe.Frame, error) {
	frames, err := LoadDir(dir, role)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d %s frames from %s\n", len(frames), role, dir)
	if dl.Verbosity > 0 {
		for _, f := range frames {
			log.Printf("  %s\n", f)
		}
	}
	return frames, nil
}

func LoadDir(dir string, role eframe.FrameRole) ([]*eframe.Frame, error) {
	contents, err := os.ReadDir(dir) // sorted by filename
	if err != nil {
		return nil, fmt.Errorf("readdir %s: %v", dir, err)
	}

	frames := []*eframe.Frame{}
	for _, content := range contents {
		if content.IsDir() || !IsRecognized(content.Name()) {
			continue
		}
		f, err := LoadFile(filepath.Join(dir, content.Name()), role)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", dir, err)
		}
		frames = append(frames, f)
	}

	return frames, nil
}

func IsRecognized(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".fits", ".fit", ".fts", ".tif", ".tiff":
		return true
	}
	return false
}

// LoadFile loads one FITS or TIFF file. `role` is used unless the
// file's own header says otherwise.
func LoadFile(filename string, role eframe.FrameRole) (*eframe.Frame, error) {
	var f *eframe.Frame
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".fits", ".fit", ".fts":
		f, err = loadFITS(filename, role)
	case ".tif", ".tiff":
		f, err = loadTIFF(filename, role)
	default:
		return nil, fmt.Errorf("loadfile %s: %w: unrecognized file extension", filename, eframe.ErrUnsupportedEncoding)
	}
	if err != nil {
		return nil, err
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("loadfile %s: %w", filename, err)
	}
	return f, nil
}
